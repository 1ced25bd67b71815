package marketdata

import (
	"context"
	"encoding/json"
	"time"
)

// Period is a provider history window such as "1d" or "1y".
type Period string

const (
	PeriodDay  Period = "1d"
	PeriodYear Period = "1y"
)

// Bar is one daily OHLCV row. Providers return bars oldest first.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Info is the fundamentals bag. Nil fields are absent at the provider.
type Info struct {
	MarketCap     *float64
	Sector        *string
	Industry      *string
	TrailingPE    *float64
	ForwardPE     *float64
	DividendYield *float64
	Beta          *float64
	Currency      *string
}

type EarningsDate struct {
	Date            time.Time `json:"date"`
	EPSEstimate     *float64  `json:"eps_estimate"`
	ReportedEPS     *float64  `json:"reported_eps"`
	SurprisePercent *float64  `json:"surprise_percent"`
}

// Provider is the ticker-keyed quote/history/fundamentals source.
// History returns an empty slice, not an error, when the ticker has no data.
type Provider interface {
	History(ctx context.Context, ticker string, period Period) ([]Bar, error)
	Info(ctx context.Context, ticker string) (Info, error)
	EarningsDates(ctx context.Context, ticker string, limit int) ([]EarningsDate, error)
}

// SnapshotCache stores successful snapshots keyed by ticker.
type SnapshotCache interface {
	Get(ctx context.Context, ticker string) (Snapshot, bool, error)
	Set(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, ticker string) error
}

type Price struct {
	Current  float64 `json:"current"`
	Currency *string `json:"currency"`
}

type Technicals struct {
	SMA20      *float64 `json:"sma_20"`
	SMA50      *float64 `json:"sma_50"`
	EMA20      *float64 `json:"ema_20"`
	EMA50      *float64 `json:"ema_50"`
	High52Week float64  `json:"52_week_high"`
	Low52Week  float64  `json:"52_week_low"`
}

type Fundamentals struct {
	MarketCap     *float64 `json:"market_cap"`
	Sector        *string  `json:"sector"`
	Industry      *string  `json:"industry"`
	PERatio       *float64 `json:"pe_ratio"`
	ForwardPE     *float64 `json:"forward_pe"`
	DividendYield *float64 `json:"dividend_yield"`
	Beta          *float64 `json:"beta"`
}

type EarningsStatus string

const (
	EarningsOK          EarningsStatus = "ok"
	EarningsUnavailable EarningsStatus = "unavailable"
	EarningsFailed      EarningsStatus = "failed"
)

type EarningsRecent struct {
	Status  EarningsStatus `json:"status"`
	Records []EarningsDate `json:"records"`
	Error   string         `json:"error,omitempty"`
}

// Snapshot is the Market-Data tool result. When Error is set every other
// section is empty.
type Snapshot struct {
	Ticker       string          `json:"ticker"`
	Error        string          `json:"error,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Price        *Price          `json:"price,omitempty"`
	Technicals   *Technicals     `json:"technicals,omitempty"`
	Fundamentals *Fundamentals   `json:"fundamentals,omitempty"`
	Volume       *int64          `json:"volume,omitempty"`
	Earnings     *EarningsRecent `json:"earnings_recent,omitempty"`

	noData bool
}

func (s Snapshot) Failed() bool {
	return s.Error != ""
}

// NoData reports whether the provider had no current-day price for the ticker.
func (s Snapshot) NoData() bool {
	return s.noData
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.Error != "" {
		if s.noData {
			return json.Marshal(map[string]string{"error": s.Error})
		}
		return json.Marshal(map[string]string{"ticker": s.Ticker, "error": s.Error})
	}
	type plain Snapshot
	return json.Marshal(plain(s))
}
