package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
)

const (
	BackendStub = "stub"
	BackendCSV  = "csv"

	RiskConservative = "Conservative"
	RiskBalanced     = "Balanced"
	RiskAggressive   = "Aggressive"
	RiskUnknown      = "Unknown"
)

type Config struct {
	Backend string `envconfig:"BACKEND" split_words:"true" default:"stub"`
	BaseDir string `envconfig:"BASE_DIR" split_words:"true"`
}

// Analyzer reports the value and risk profile of a portfolio file.
type Analyzer interface {
	Analyze(ctx context.Context, portfolioPath string) (Report, error)
}

type Holding struct {
	Ticker    string   `json:"ticker"`
	Shares    float64  `json:"shares"`
	Price     float64  `json:"price,omitempty"`
	Value     float64  `json:"value,omitempty"`
	Weight    float64  `json:"weight,omitempty"`
	CostBasis *float64 `json:"cost_basis,omitempty"`
	Beta      *float64 `json:"beta,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type Report struct {
	TotalValue   float64   `json:"total_value"`
	RiskProfile  string    `json:"risk_profile"`
	WeightedBeta *float64  `json:"weighted_beta,omitempty"`
	Holdings     []Holding `json:"holdings,omitempty"`
}

// StubAnalyzer returns a fixed report and never reads the file.
type StubAnalyzer struct{}

func (StubAnalyzer) Analyze(context.Context, string) (Report, error) {
	return Report{
		TotalValue:  250000,
		RiskProfile: RiskBalanced,
	}, nil
}

// Quoter prices a single ticker. *marketdata.Fetcher satisfies it.
type Quoter interface {
	Fetch(ctx context.Context, ticker string) marketdatax.Snapshot
}

func New(cfg Config, quoter Quoter) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendStub:
		return StubAnalyzer{}, nil
	case BackendCSV:
		if quoter == nil {
			return nil, errors.New("portfolio backend csv requires a market data fetcher")
		}
		return NewCSVAnalyzer(quoter, cfg.BaseDir), nil
	default:
		return nil, fmt.Errorf("unknown portfolio backend %q", cfg.Backend)
	}
}

// RiskProfileForBeta maps a value-weighted beta to a profile label.
func RiskProfileForBeta(beta float64) string {
	switch {
	case beta < 0.8:
		return RiskConservative
	case beta <= 1.2:
		return RiskBalanced
	default:
		return RiskAggressive
	}
}
