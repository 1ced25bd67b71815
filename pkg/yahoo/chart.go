package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type ChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	ExchangeName       string  `json:"exchangeName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type Chart struct {
	Meta    ChartMeta
	Candles []Candle
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       ChartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) err() error {
	if e == nil {
		return nil
	}
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%w: %s", ErrNotFound, e.Description)
	}
	return fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
}

// Chart returns daily (or other interval) candles for symbol over rng, oldest
// first. Rows with a missing close are skipped.
func (c *Client) Chart(ctx context.Context, symbol string, rng string, interval string) (*Chart, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("yahoo: symbol is required")
	}

	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", interval)
	query.Set("includePrePost", "false")

	var resp chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, err
	}
	if err := resp.Chart.Error.err(); err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return &Chart{}, nil
	}

	result := resp.Chart.Result[0]
	out := &Chart{Meta: result.Meta}
	if len(result.Indicators.Quote) == 0 {
		return out, nil
	}

	q := result.Indicators.Quote[0]
	out.Candles = make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := floatAt(q.Close, i)
		if closePrice == nil {
			continue
		}
		candle := Candle{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *closePrice,
			High:  *closePrice,
			Low:   *closePrice,
		}
		if v := floatAt(q.Open, i); v != nil {
			candle.Open = *v
		}
		if v := floatAt(q.High, i); v != nil {
			candle.High = *v
		}
		if v := floatAt(q.Low, i); v != nil {
			candle.Low = *v
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			candle.Volume = *q.Volume[i]
		}
		out.Candles = append(out.Candles, candle)
	}
	return out, nil
}

func floatAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
