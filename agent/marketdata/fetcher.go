package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultEarningsLimit = 4

type Option func(*Fetcher)

func WithCache(cache SnapshotCache) Option {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// Fetcher builds Market-Data snapshots. Fetch never returns a Go error; every
// failure is reported inside the Snapshot.
type Fetcher struct {
	provider      Provider
	cache         SnapshotCache
	now           func() time.Time
	earningsLimit int
}

func NewFetcher(provider Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:      provider,
		now:           time.Now,
		earningsLimit: defaultEarningsLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, ticker string) (snap Snapshot) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("ticker", ticker).Interface("panic", r).Msg("market data fetch panicked")
			snap = Snapshot{Ticker: ticker, Error: fmt.Sprint(r)}
		}
	}()

	if f.cache != nil {
		cached, ok, err := f.cache.Get(ctx, ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("snapshot cache read failed")
		} else if ok {
			log.Debug().Str("ticker", ticker).Msg("snapshot cache hit")
			return cached
		}
	}

	snap, err := f.fetch(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("market data fetch failed")
		return Snapshot{Ticker: ticker, Error: err.Error()}
	}

	if f.cache != nil && !snap.Failed() {
		if err := f.cache.Set(ctx, snap); err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("snapshot cache write failed")
		}
	}
	return snap
}

// Refresh drops any cached snapshot for ticker before fetching a fresh one.
func (f *Fetcher) Refresh(ctx context.Context, ticker string) Snapshot {
	if f.cache != nil {
		key := strings.ToUpper(strings.TrimSpace(ticker))
		if err := f.cache.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("ticker", key).Msg("snapshot cache delete failed")
		}
	}
	return f.Fetch(ctx, ticker)
}

func (f *Fetcher) fetch(ctx context.Context, ticker string) (Snapshot, error) {
	if f.provider == nil {
		return Snapshot{}, errors.New("market data provider is not configured")
	}
	if ticker == "" {
		return Snapshot{}, errors.New("ticker is required")
	}

	today, err := f.provider.History(ctx, ticker, PeriodDay)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch current price: %w", err)
	}
	if len(today) == 0 {
		return Snapshot{
			Ticker: ticker,
			Error:  fmt.Sprintf("No data found for ticker %s", ticker),
			noData: true,
		}, nil
	}
	currentPrice := today[len(today)-1].Close

	hist, err := f.provider.History(ctx, ticker, PeriodYear)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch history: %w", err)
	}
	if len(hist) == 0 {
		return Snapshot{}, fmt.Errorf("no daily history for ticker %s", ticker)
	}

	info, err := f.provider.Info(ctx, ticker)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch fundamentals: %w", err)
	}

	volume := hist[len(hist)-1].Volume

	return Snapshot{
		Ticker:    ticker,
		Timestamp: f.now().UTC().Format(time.RFC3339Nano),
		Price: &Price{
			Current:  currentPrice,
			Currency: info.Currency,
		},
		Technicals: computeTechnicals(hist),
		Fundamentals: &Fundamentals{
			MarketCap:     info.MarketCap,
			Sector:        info.Sector,
			Industry:      info.Industry,
			PERatio:       info.TrailingPE,
			ForwardPE:     info.ForwardPE,
			DividendYield: info.DividendYield,
			Beta:          info.Beta,
		},
		Volume:   &volume,
		Earnings: f.recentEarnings(ctx, ticker),
	}, nil
}

func (f *Fetcher) recentEarnings(ctx context.Context, ticker string) *EarningsRecent {
	records, err := f.provider.EarningsDates(ctx, ticker, f.earningsLimit)
	if err != nil {
		log.Debug().Err(err).Str("ticker", ticker).Msg("earnings dates unavailable")
		return &EarningsRecent{
			Status:  EarningsFailed,
			Records: []EarningsDate{},
			Error:   err.Error(),
		}
	}
	if len(records) == 0 {
		return &EarningsRecent{Status: EarningsUnavailable, Records: []EarningsDate{}}
	}

	sorted := append([]EarningsDate(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > f.earningsLimit {
		sorted = sorted[:f.earningsLimit]
	}
	return &EarningsRecent{Status: EarningsOK, Records: sorted}
}
