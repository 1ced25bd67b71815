package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/finnieassistant/finnie/agent/contract"
)

const (
	ToolMarketDataFetch  = "market_data.fetch"
	ToolNewsSearch       = "news.search"
	ToolPortfolioAnalyze = "portfolio.analyze"
)

type Executor func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult

// BuildForAgent returns the tool schemas bound to an agent's model together
// with an executor restricted to the same tools.
func BuildForAgent(agentType contractx.AgentType, gateway contractx.ToolGateway) ([]*schema.ToolInfo, Executor) {
	return InfosForAgent(agentType), NewExecutor(agentType, gateway)
}

func NewExecutor(agentType contractx.AgentType, gateway contractx.ToolGateway) Executor {
	if gateway == nil {
		return DefaultExecutor(agentType)
	}
	return func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
		return gateway.Execute(ctx, agentType, req)
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(_ context.Context, req contractx.ToolRequest) contractx.ToolResult {
		return unavailable(agentType, req.Tool)
	}
}

// Allowed reports whether a pipeline may call the named tool.
func Allowed(agentType contractx.AgentType, tool string) bool {
	for _, info := range InfosForAgent(agentType) {
		if info.Name == tool {
			return true
		}
	}
	return false
}

func InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeStock:
		return []*schema.ToolInfo{marketDataInfo(), newsInfo()}
	case contractx.AgentTypePortfolio:
		return []*schema.ToolInfo{portfolioInfo(), marketDataInfo(), newsInfo()}
	default:
		return nil
	}
}

func marketDataInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolMarketDataFetch,
		Desc: "Fetch price, technical indicators, fundamentals, volume and recent earnings for a ticker.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"ticker": {Type: schema.String, Desc: "Ticker symbol, e.g. AAPL or BTC-USD", Required: true},
		}),
	}
}

func newsInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolNewsSearch,
		Desc: "Search recent financial news headlines for a company, ticker or topic.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Company, ticker or topic", Required: true},
		}),
	}
}

func portfolioInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolPortfolioAnalyze,
		Desc: "Analyze a portfolio file and return its total value and risk profile.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"portfolio_path": {Type: schema.String, Desc: "Path to the portfolio CSV file", Required: true},
		}),
	}
}
