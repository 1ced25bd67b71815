package yahoo

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	ModulePrice                = "price"
	ModuleSummaryDetail        = "summaryDetail"
	ModuleAssetProfile         = "assetProfile"
	ModuleDefaultKeyStatistics = "defaultKeyStatistics"
	ModuleEarningsHistory      = "earningsHistory"
)

// Value is Yahoo's {"raw": ..., "fmt": ...} number wrapper.
type Value struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v *Value) Float() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

type QuoteSummary struct {
	Price *struct {
		Currency  string `json:"currency"`
		MarketCap *Value `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		Currency      string `json:"currency"`
		MarketCap     *Value `json:"marketCap"`
		TrailingPE    *Value `json:"trailingPE"`
		ForwardPE     *Value `json:"forwardPE"`
		DividendYield *Value `json:"dividendYield"`
		Beta          *Value `json:"beta"`
	} `json:"summaryDetail"`
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	DefaultKeyStatistics *struct {
		ForwardPE *Value `json:"forwardPE"`
		Beta      *Value `json:"beta"`
	} `json:"defaultKeyStatistics"`
	EarningsHistory *struct {
		History []EarningsHistoryItem `json:"history"`
	} `json:"earningsHistory"`
}

type EarningsHistoryItem struct {
	Quarter         *Value `json:"quarter"`
	EPSActual       *Value `json:"epsActual"`
	EPSEstimate     *Value `json:"epsEstimate"`
	SurprisePercent *Value `json:"surprisePercent"`
}

// QuarterTime converts the quarter epoch seconds into a UTC time.
func (i EarningsHistoryItem) QuarterTime() (time.Time, bool) {
	q := i.Quarter.Float()
	if q == nil {
		return time.Time{}, false
	}
	return time.Unix(int64(*q), 0).UTC(), true
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []QuoteSummary `json:"result"`
		Error  *apiError      `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) QuoteSummary(ctx context.Context, symbol string, modules ...string) (*QuoteSummary, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("yahoo: symbol is required")
	}
	if len(modules) == 0 {
		modules = []string{ModulePrice, ModuleSummaryDetail, ModuleAssetProfile, ModuleDefaultKeyStatistics}
	}

	crumb, err := c.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("modules", strings.Join(modules, ","))
	query.Set("crumb", crumb)

	var resp quoteSummaryResponse
	err = c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), query, &resp)
	if errors.Is(err, ErrUnauthorized) {
		c.resetCrumb()
	}
	if err != nil {
		return nil, err
	}
	if err := resp.QuoteSummary.Error.err(); err != nil {
		return nil, err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return &QuoteSummary{}, nil
	}
	return &resp.QuoteSummary.Result[0], nil
}
