package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
	"github.com/finnieassistant/finnie/agent/news"
	"github.com/finnieassistant/finnie/agent/portfolio"
	"github.com/finnieassistant/finnie/pkg/metrics"
	"github.com/rs/zerolog/log"
)

// MarketData builds a snapshot for a ticker. *marketdata.Fetcher satisfies it.
type MarketData interface {
	Fetch(ctx context.Context, ticker string) marketdatax.Snapshot
}

// Gateway executes tool calls against explicitly injected backends.
type Gateway struct {
	marketData MarketData
	news       news.Searcher
	portfolio  portfolio.Analyzer
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(marketData MarketData, searcher news.Searcher, analyzer portfolio.Analyzer) *Gateway {
	return &Gateway{
		marketData: marketData,
		news:       searcher,
		portfolio:  analyzer,
	}
}

func (g *Gateway) Execute(ctx context.Context, agentType contractx.AgentType, req contractx.ToolRequest) contractx.ToolResult {
	name := strings.TrimSpace(req.Tool)
	if !Allowed(agentType, name) {
		metrics.RecordToolDenied(name)
		log.Warn().Str("agent", string(agentType)).Str("tool", name).Msg("tool call rejected")
		return unavailable(agentType, name)
	}

	start := time.Now()
	result := g.execute(ctx, name, req.Args)

	var err error
	if result.Error != "" {
		err = fmt.Errorf("%s", result.Error)
	}
	metrics.RecordToolExecution(name, time.Since(start), err)
	log.Debug().
		Str("agent", string(agentType)).
		Str("tool", name).
		Str("call_id", req.CallID).
		Dur("latency", time.Since(start)).
		Bool("failed", err != nil).
		Msg("tool executed")
	return result
}

func (g *Gateway) execute(ctx context.Context, name string, args map[string]any) contractx.ToolResult {
	switch name {
	case ToolMarketDataFetch:
		ticker, err := stringArg(args, "ticker")
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		if g.marketData == nil {
			return contractx.ToolResult{Tool: name, Error: "market data backend is not configured"}
		}
		// Snapshot failures are data, not tool errors.
		return contractx.ToolResult{Tool: name, Result: g.marketData.Fetch(ctx, ticker)}

	case ToolNewsSearch:
		query, err := stringArg(args, "query")
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		if g.news == nil {
			return contractx.ToolResult{Tool: name, Error: "news backend is not configured"}
		}
		headlines, err := g.news.Search(ctx, query)
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		return contractx.ToolResult{Tool: name, Result: headlines}

	case ToolPortfolioAnalyze:
		path, err := stringArg(args, "portfolio_path")
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		if g.portfolio == nil {
			return contractx.ToolResult{Tool: name, Error: "portfolio backend is not configured"}
		}
		report, err := g.portfolio.Analyze(ctx, path)
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		return contractx.ToolResult{Tool: name, Result: report}

	default:
		return contractx.ToolResult{Tool: name, Error: fmt.Sprintf("unknown tool %q", name)}
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return value, nil
}

func unavailable(agentType contractx.AgentType, tool string) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:  tool,
		Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
	}
}
