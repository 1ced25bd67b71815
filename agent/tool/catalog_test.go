package tool

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/finnieassistant/finnie/agent/contract"
	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
	"github.com/finnieassistant/finnie/agent/news"
	"github.com/finnieassistant/finnie/agent/portfolio"
)

type fakeMarketData struct {
	tickers []string
}

func (f *fakeMarketData) Fetch(_ context.Context, ticker string) marketdatax.Snapshot {
	f.tickers = append(f.tickers, ticker)
	return marketdatax.Snapshot{Ticker: ticker, Price: &marketdatax.Price{Current: 101.5}}
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string) ([]string, error) {
	return nil, errors.New("search backend down")
}

func newTestGateway(md MarketData) *Gateway {
	return NewGateway(md, news.StubSearcher{}, portfolio.StubAnalyzer{})
}

func TestBuildForAgentStock(t *testing.T) {
	t.Parallel()

	infos, executor := BuildForAgent(contractx.AgentTypeStock, newTestGateway(&fakeMarketData{}))
	if len(infos) != 2 {
		t.Fatalf("expected 2 tool infos, got %d", len(infos))
	}
	if infos[0].Name != ToolMarketDataFetch {
		t.Fatalf("unexpected first tool: %s", infos[0].Name)
	}
	if infos[1].Name != ToolNewsSearch {
		t.Fatalf("unexpected second tool: %s", infos[1].Name)
	}
	if executor == nil {
		t.Fatal("executor must not be nil")
	}
}

func TestInfosForAgent(t *testing.T) {
	t.Parallel()

	if got := len(InfosForAgent(contractx.AgentTypePortfolio)); got != 3 {
		t.Fatalf("expected 3 portfolio tools, got %d", got)
	}
	if got := InfosForAgent(contractx.AgentTypeCoach); got != nil {
		t.Fatalf("coach must have no tools, got %d", len(got))
	}
	if got := InfosForAgent(contractx.AgentTypeClassifier); got != nil {
		t.Fatalf("classifier must have no tools, got %d", len(got))
	}
}

func TestDefaultExecutorUnavailableMessage(t *testing.T) {
	t.Parallel()

	executor := DefaultExecutor(contractx.AgentTypeCoach)
	out := executor(context.Background(), contractx.ToolRequest{Tool: ToolNewsSearch, Args: map[string]any{"query": "x"}})
	if out.Tool != ToolNewsSearch {
		t.Fatalf("unexpected tool: %s", out.Tool)
	}
	if out.Error != "tool=news.search is unavailable for agent=coach" {
		t.Fatalf("unexpected error message: %q", out.Error)
	}
}

func TestGatewayMarketDataFetch(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{}
	executor := NewExecutor(contractx.AgentTypeStock, newTestGateway(md))
	out := executor(context.Background(), contractx.ToolRequest{
		CallID: "call-1",
		Tool:   ToolMarketDataFetch,
		Args:   map[string]any{"ticker": " aapl "},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}
	snap, ok := out.Result.(marketdatax.Snapshot)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if snap.Price == nil || snap.Price.Current != 101.5 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(md.tickers) != 1 || md.tickers[0] != "aapl" {
		t.Fatalf("unexpected fetch calls: %v", md.tickers)
	}
}

func TestGatewayNewsAndPortfolio(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(&fakeMarketData{})

	out := gw.Execute(context.Background(), contractx.AgentTypeStock, contractx.ToolRequest{
		Tool: ToolNewsSearch,
		Args: map[string]any{"query": "Tesla"},
	})
	headlines, ok := out.Result.([]string)
	if !ok || len(headlines) != 2 || headlines[0] != "Latest news about Tesla" {
		t.Fatalf("unexpected news result: %#v", out.Result)
	}

	out = gw.Execute(context.Background(), contractx.AgentTypePortfolio, contractx.ToolRequest{
		Tool: ToolPortfolioAnalyze,
		Args: map[string]any{"portfolio_path": "holdings.csv"},
	})
	report, ok := out.Result.(portfolio.Report)
	if !ok {
		t.Fatalf("unexpected portfolio result type: %T", out.Result)
	}
	if report.TotalValue != 250000 || report.RiskProfile != "Balanced" {
		t.Fatalf("unexpected portfolio report: %+v", report)
	}
}

func TestGatewayRejectsToolOutsidePipeline(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{}
	gw := newTestGateway(md)

	out := gw.Execute(context.Background(), contractx.AgentTypeStock, contractx.ToolRequest{
		Tool: ToolPortfolioAnalyze,
		Args: map[string]any{"portfolio_path": "holdings.csv"},
	})
	if out.Error == "" {
		t.Fatal("expected allow-list error")
	}

	out = gw.Execute(context.Background(), contractx.AgentTypeCoach, contractx.ToolRequest{
		Tool: ToolMarketDataFetch,
		Args: map[string]any{"ticker": "AAPL"},
	})
	if out.Error == "" {
		t.Fatal("expected coach tool call to be rejected")
	}
	if len(md.tickers) != 0 {
		t.Fatalf("rejected calls must not reach the backend: %v", md.tickers)
	}
}

func TestGatewayArgumentErrors(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(&fakeMarketData{})
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing", args: nil, want: "ticker is required"},
		{name: "wrong type", args: map[string]any{"ticker": 42}, want: "ticker must be a string"},
		{name: "blank", args: map[string]any{"ticker": "  "}, want: "ticker is empty"},
	}

	for _, tt := range tests {
		out := gw.Execute(context.Background(), contractx.AgentTypeStock, contractx.ToolRequest{
			Tool: ToolMarketDataFetch,
			Args: tt.args,
		})
		if out.Error != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, out.Error)
		}
	}
}

func TestGatewayBackendErrorBecomesToolResult(t *testing.T) {
	t.Parallel()

	gw := NewGateway(&fakeMarketData{}, failingSearcher{}, nil)

	out := gw.Execute(context.Background(), contractx.AgentTypeStock, contractx.ToolRequest{
		Tool: ToolNewsSearch,
		Args: map[string]any{"query": "NVDA"},
	})
	if out.Error != "search backend down" {
		t.Fatalf("unexpected error: %q", out.Error)
	}

	out = gw.Execute(context.Background(), contractx.AgentTypePortfolio, contractx.ToolRequest{
		Tool: ToolPortfolioAnalyze,
		Args: map[string]any{"portfolio_path": "p.csv"},
	})
	if out.Error != "portfolio backend is not configured" {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}
