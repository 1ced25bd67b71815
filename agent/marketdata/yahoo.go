package marketdata

import (
	"context"
	"errors"
	"strings"

	yahoox "github.com/finnieassistant/finnie/pkg/yahoo"
)

// YahooProvider adapts the Yahoo Finance client to Provider.
type YahooProvider struct {
	client *yahoox.Client
}

var _ Provider = (*YahooProvider)(nil)

func NewYahooProvider(client *yahoox.Client) *YahooProvider {
	return &YahooProvider{client: client}
}

func (p *YahooProvider) History(ctx context.Context, ticker string, period Period) ([]Bar, error) {
	chart, err := p.client.Chart(ctx, ticker, string(period), "1d")
	if errors.Is(err, yahoox.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(chart.Candles))
	for _, c := range chart.Candles {
		bars = append(bars, Bar{
			Time:   c.Time,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	return bars, nil
}

func (p *YahooProvider) Info(ctx context.Context, ticker string) (Info, error) {
	summary, err := p.client.QuoteSummary(ctx, ticker,
		yahoox.ModulePrice,
		yahoox.ModuleSummaryDetail,
		yahoox.ModuleAssetProfile,
		yahoox.ModuleDefaultKeyStatistics,
	)
	if err != nil {
		return Info{}, err
	}

	var info Info
	if d := summary.SummaryDetail; d != nil {
		info.MarketCap = d.MarketCap.Float()
		info.TrailingPE = d.TrailingPE.Float()
		info.ForwardPE = d.ForwardPE.Float()
		info.DividendYield = d.DividendYield.Float()
		info.Beta = d.Beta.Float()
		info.Currency = optionalString(d.Currency)
	}
	if s := summary.DefaultKeyStatistics; s != nil {
		if info.ForwardPE == nil {
			info.ForwardPE = s.ForwardPE.Float()
		}
		if info.Beta == nil {
			info.Beta = s.Beta.Float()
		}
	}
	if pr := summary.Price; pr != nil {
		if info.MarketCap == nil {
			info.MarketCap = pr.MarketCap.Float()
		}
		if info.Currency == nil {
			info.Currency = optionalString(pr.Currency)
		}
	}
	if a := summary.AssetProfile; a != nil {
		info.Sector = optionalString(a.Sector)
		info.Industry = optionalString(a.Industry)
	}
	return info, nil
}

func (p *YahooProvider) EarningsDates(ctx context.Context, ticker string, limit int) ([]EarningsDate, error) {
	summary, err := p.client.QuoteSummary(ctx, ticker, yahoox.ModuleEarningsHistory)
	if err != nil {
		return nil, err
	}
	if summary.EarningsHistory == nil {
		return nil, nil
	}

	out := make([]EarningsDate, 0, len(summary.EarningsHistory.History))
	for _, item := range summary.EarningsHistory.History {
		date, ok := item.QuarterTime()
		if !ok {
			continue
		}
		out = append(out, EarningsDate{
			Date:            date,
			EPSEstimate:     item.EPSEstimate.Float(),
			ReportedEPS:     item.EPSActual.Float(),
			SurprisePercent: item.SurprisePercent.Float(),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
