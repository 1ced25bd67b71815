package cmd

import (
	"bytes"
	"strings"
	"testing"

	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRenderSnapshot(t *testing.T) {
	t.Parallel()

	snap := marketdatax.Snapshot{
		Ticker:    "AAPL",
		Timestamp: "2025-01-02T15:04:05Z",
		Price:     &marketdatax.Price{Current: 1234.5, Currency: ptr("USD")},
		Technicals: &marketdatax.Technicals{
			SMA20:      ptr(190.0),
			High52Week: 260.1,
			Low52Week:  164.08,
		},
		Fundamentals: &marketdatax.Fundamentals{
			MarketCap: ptr(3.5e12),
			Sector:    ptr("Technology"),
			Beta:      ptr(1.24),
		},
		Volume:   ptr(int64(48123456)),
		Earnings: &marketdatax.EarningsRecent{Status: marketdatax.EarningsUnavailable},
	}

	var out bytes.Buffer
	renderSnapshot(&out, snap)
	text := out.String()

	for _, want := range []string{
		"AAPL  1,234.5 USD",
		"volume       48,123,456",
		"52w range    164.08 - 260.1",
		"SMA 20/50    190 / n/a",
		"market cap   3.5 T",
		"sector       Technology / n/a",
		"beta         1.24",
		"earnings     unavailable",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRenderSnapshotError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderSnapshot(&out, marketdatax.Snapshot{Ticker: "ZZZZ", Error: "No data found for ticker ZZZZ"})
	if out.String() != "ZZZZ: No data found for ticker ZZZZ\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
