package portfolio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CSVAnalyzer reads holdings from a CSV file with a header row containing
// ticker and shares, and optionally cost_basis.
type CSVAnalyzer struct {
	quoter  Quoter
	baseDir string
}

func NewCSVAnalyzer(quoter Quoter, baseDir string) *CSVAnalyzer {
	return &CSVAnalyzer{quoter: quoter, baseDir: strings.TrimSpace(baseDir)}
}

type position struct {
	ticker    string
	shares    decimal.Decimal
	costBasis *decimal.Decimal
}

func (a *CSVAnalyzer) Analyze(ctx context.Context, portfolioPath string) (Report, error) {
	path, err := a.resolve(portfolioPath)
	if err != nil {
		return Report{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()

	positions, err := readPositions(f)
	if err != nil {
		return Report{}, fmt.Errorf("read portfolio %s: %w", filepath.Base(path), err)
	}
	return a.price(ctx, positions)
}

func (a *CSVAnalyzer) resolve(portfolioPath string) (string, error) {
	p := strings.TrimSpace(portfolioPath)
	if p == "" {
		return "", errors.New("portfolio path is required")
	}
	if a.baseDir == "" {
		return filepath.Clean(p), nil
	}

	base, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve portfolio base dir: %w", err)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(base, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("portfolio path %q is outside %s", portfolioPath, base)
	}
	return full, nil
}

func readPositions(r io.Reader) ([]position, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("portfolio file is empty")
		}
		return nil, err
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	tickerCol, ok := cols["ticker"]
	if !ok {
		return nil, errors.New("missing ticker column")
	}
	sharesCol, ok := cols["shares"]
	if !ok {
		return nil, errors.New("missing shares column")
	}
	costCol, hasCost := cols["cost_basis"]

	var positions []position
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if tickerCol >= len(record) || sharesCol >= len(record) {
			return nil, fmt.Errorf("line %d: too few fields", line)
		}

		ticker := strings.ToUpper(strings.TrimSpace(record[tickerCol]))
		if ticker == "" {
			continue
		}
		shares, err := decimal.NewFromString(strings.TrimSpace(record[sharesCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid shares %q", line, record[sharesCol])
		}

		pos := position{ticker: ticker, shares: shares}
		if hasCost && costCol < len(record) {
			if raw := strings.TrimSpace(record[costCol]); raw != "" {
				cost, err := decimal.NewFromString(raw)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid cost_basis %q", line, raw)
				}
				pos.costBasis = &cost
			}
		}
		positions = append(positions, pos)
	}

	if len(positions) == 0 {
		return nil, errors.New("portfolio has no holdings")
	}
	return positions, nil
}

func (a *CSVAnalyzer) price(ctx context.Context, positions []position) (Report, error) {
	holdings := make([]Holding, len(positions))
	values := make([]decimal.Decimal, len(positions))
	total := decimal.Zero

	for i, pos := range positions {
		h := Holding{Ticker: pos.ticker, Shares: pos.shares.InexactFloat64()}
		if pos.costBasis != nil {
			v := pos.costBasis.InexactFloat64()
			h.CostBasis = &v
		}

		snap := a.quoter.Fetch(ctx, pos.ticker)
		if snap.Failed() || snap.Price == nil {
			h.Error = snap.Error
			if h.Error == "" {
				h.Error = "no price available"
			}
			log.Warn().Str("ticker", pos.ticker).Str("error", h.Error).Msg("portfolio holding not priced")
			holdings[i] = h
			continue
		}

		price := decimal.NewFromFloat(snap.Price.Current)
		values[i] = price.Mul(pos.shares)
		total = total.Add(values[i])

		h.Price = snap.Price.Current
		h.Value = values[i].Round(2).InexactFloat64()
		if snap.Fundamentals != nil {
			h.Beta = snap.Fundamentals.Beta
		}
		holdings[i] = h
	}

	if total.IsZero() {
		return Report{}, errors.New("no holdings could be priced")
	}

	betaWeighted := decimal.Zero
	betaWeight := decimal.Zero
	for i := range holdings {
		if holdings[i].Error != "" {
			continue
		}
		weight := values[i].Div(total)
		holdings[i].Weight = weight.Round(4).InexactFloat64()
		if holdings[i].Beta != nil {
			betaWeighted = betaWeighted.Add(weight.Mul(decimal.NewFromFloat(*holdings[i].Beta)))
			betaWeight = betaWeight.Add(weight)
		}
	}

	report := Report{
		TotalValue:  total.Round(2).InexactFloat64(),
		RiskProfile: RiskUnknown,
		Holdings:    holdings,
	}
	if betaWeight.IsPositive() {
		beta := betaWeighted.Div(betaWeight).Round(3).InexactFloat64()
		report.WeightedBeta = &beta
		report.RiskProfile = RiskProfileForBeta(beta)
	}
	return report, nil
}
