package cmd

import (
	"context"
	"fmt"
	"time"

	cachex "github.com/finnieassistant/finnie/agent/cache"
	contractx "github.com/finnieassistant/finnie/agent/contract"
	"github.com/finnieassistant/finnie/agent/history"
	llmx "github.com/finnieassistant/finnie/agent/llm"
	"github.com/finnieassistant/finnie/agent/news"
	"github.com/finnieassistant/finnie/agent/portfolio"
	promptx "github.com/finnieassistant/finnie/agent/prompt"
	configx "github.com/finnieassistant/finnie/pkg/config"
	openrouterx "github.com/finnieassistant/finnie/pkg/openrouter"
	qstashx "github.com/finnieassistant/finnie/pkg/qstash"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	failed := false
	check := func(name string, err error, detail string) {
		if err != nil {
			failed = true
			fmt.Fprintf(out, "[fail] %-10s %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "[ok]   %-10s %s\n", name, detail)
	}

	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err == nil {
		err = llmCfg.Validate()
	}
	if err != nil {
		check("llm", err, "")
	} else {
		checkModels(ctx, *llmCfg, check)
	}

	promptCfg, err := configx.New[promptConfig]("PROMPT")
	if err == nil {
		_, err = promptx.LoadPromptSet(promptCfg.Dir)
	}
	check("prompts", err, "classifier, stock, portfolio and coach prompts loaded")

	newsCfg, err := configx.New[news.Config]("NEWS")
	if err == nil {
		_, err = buildNews()
	}
	check("news", err, backendName(newsCfg, func(c *news.Config) string { return c.Backend }))

	portfolioCfg, err := configx.New[portfolio.Config]("PORTFOLIO")
	check("portfolio", err, backendName(portfolioCfg, func(c *portfolio.Config) string { return c.Backend }))

	cacheCfg, err := configx.New[cachex.UpstashRedisConfig]("UPSTASH_REDIS")
	check("cache", err, enabledText(cacheCfg != nil && cacheCfg.Enabled()))

	historyCfg, err := configx.New[history.Config]("HISTORY")
	if err == nil && historyCfg.Enabled() {
		var rec history.Recorder
		rec, err = history.Open(ctx, *historyCfg)
		if err == nil {
			_ = rec.Close()
		}
	}
	check("history", err, enabledText(historyCfg != nil && historyCfg.Enabled()))

	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	check("qstash", err, enabledText(qstashCfg != nil && qstashCfg.Enabled()))

	if failed {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func checkModels(ctx context.Context, cfg llmx.Config, check func(string, error, string)) {
	seen := map[string]bool{}
	for _, agentType := range []contractx.AgentType{
		contractx.AgentTypeClassifier,
		contractx.AgentTypeStock,
		contractx.AgentTypePortfolio,
		contractx.AgentTypeCoach,
	} {
		modelCfg := cfg.OpenRouterFor(agentType)
		if seen[modelCfg.Model] {
			continue
		}
		seen[modelCfg.Model] = true

		res, err := openrouterx.Ping(ctx, modelCfg)
		if err == nil && !res.ModelAvailable {
			err = fmt.Errorf("model %s is not listed by %s", modelCfg.Model, modelCfg.BaseURL)
		}
		check("llm", err, fmt.Sprintf("%s reachable (%d models listed)", modelCfg.Model, res.Models))
	}
}

func backendName[T any](cfg *T, backend func(*T) string) string {
	if cfg == nil {
		return ""
	}
	return "backend " + backend(cfg)
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
