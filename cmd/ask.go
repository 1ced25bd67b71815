package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Route a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errEmptyInput
	}

	ctx := cmd.Context()
	a, err := buildAssistant(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.router.Handle(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Reply)
	return nil
}
