package cmd

import (
	"os"

	configx "github.com/finnieassistant/finnie/pkg/config"
	logx "github.com/finnieassistant/finnie/pkg/logger"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "finnie",
	Short: "Finnie routes finance questions to stock, portfolio and coaching assistants",
	Long: `finnie classifies a free-text finance question, routes it to the matching
assistant (stock analysis, portfolio review or financial coaching) and prints
the answer. Market data, news and portfolio tools can also be run directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.SetEnvFile(envFile)
		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default: ./.env when present)")
}
