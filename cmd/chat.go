package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	configx "github.com/finnieassistant/finnie/pkg/config"
	"github.com/finnieassistant/finnie/pkg/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	chatPrompt       = "you> "
	chatHistoryLimit = 10
)

var (
	chatMetricsAddr string
	chatHistorySize int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive session. Each line is routed on its own; errors are
printed and the session continues. Type /history to show recent exchanges and
/exit to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: METRICS_ADDR)")
	chatCmd.Flags().IntVar(&chatHistorySize, "history", chatHistoryLimit, "number of exchanges shown by /history")
}

type chatSession struct {
	handle  func(ctx context.Context, query string) (string, error)
	recent  func(ctx context.Context, n int) ([]contractx.Exchange, error)
	history int
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := strings.TrimSpace(chatMetricsAddr)
	if addr == "" {
		metricsCfg, err := configx.New[metrics.Config]("METRICS")
		if err != nil {
			return err
		}
		addr = strings.TrimSpace(metricsCfg.Addr)
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
	}

	a, err := buildAssistant(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session := chatSession{
		handle: func(ctx context.Context, query string) (string, error) {
			out, err := a.router.Handle(ctx, query)
			return out.Reply, err
		},
		recent:  a.history.Recent,
		history: chatHistorySize,
	}
	return session.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// run reads one query per line and answers it before reading the next.
func (s chatSession) run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Finnie is ready. Ask about a stock, your portfolio, or a finance concept. /exit to quit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit" || line == "/quit":
			return nil
		case line == "/history":
			s.printHistory(ctx, out)
			continue
		}

		reply, err := s.handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "finnie> %s\n", reply)
	}
}

func (s chatSession) printHistory(ctx context.Context, out io.Writer) {
	if s.recent == nil {
		fmt.Fprintln(out, "history is not enabled")
		return
	}
	exchanges, err := s.recent(ctx, s.history)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if len(exchanges) == 0 {
		fmt.Fprintln(out, "no history yet (set HISTORY_DSN to keep exchanges)")
		return
	}
	for _, ex := range exchanges {
		status := string(ex.Category)
		if ex.Error != "" {
			status = "ERROR"
		}
		fmt.Fprintf(out, "%s [%s] %s\n", ex.CreatedAt.Local().Format("2006-01-02 15:04"), status, ex.Query)
	}
}
