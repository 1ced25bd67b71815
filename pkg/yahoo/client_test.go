package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:   server.URL,
		CookieURL: server.URL + "/cookie",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestChartParsesCandlesAndSkipsNullCloses(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1y" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":190.5},
			"timestamp":[1700000000,1700086400,1700172800],
			"indicators":{"quote":[{"open":[1,2,3],"high":[1.5,null,3.5],"low":[0.5,1.5,2.5],"close":[1.2,null,3.2],"volume":[100,200,null]}]}}],"error":null}}`)
	}))

	chart, err := client.Chart(context.Background(), "AAPL", "1y", "1d")
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if chart.Meta.Currency != "USD" {
		t.Fatalf("unexpected currency: %q", chart.Meta.Currency)
	}
	if len(chart.Candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(chart.Candles))
	}
	last := chart.Candles[1]
	if last.Close != 3.2 || last.High != 3.5 || last.Volume != 0 {
		t.Fatalf("unexpected last candle: %+v", last)
	}
}

func TestChartNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))

	_, err := client.Chart(context.Background(), "NOPE", "1d", "1d")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuoteSummaryFetchesCrumbOnce(t *testing.T) {
	t.Parallel()

	var crumbCalls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cookie":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session"})
			w.WriteHeader(http.StatusNotFound)
		case "/v1/test/getcrumb":
			crumbCalls.Add(1)
			fmt.Fprint(w, "crumb-123")
		case "/v10/finance/quoteSummary/MSFT":
			if r.URL.Query().Get("crumb") != "crumb-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"quoteSummary":{"result":[{
				"summaryDetail":{"currency":"USD","marketCap":{"raw":3.1e12,"fmt":"3.1T"},"trailingPE":{"raw":35.2},"forwardPE":{},"beta":{"raw":0.9}},
				"assetProfile":{"sector":"Technology","industry":"Software"},
				"earningsHistory":{"history":[{"quarter":{"raw":1700000000},"epsActual":{"raw":2.9},"epsEstimate":{"raw":2.8},"surprisePercent":{"raw":0.035}}]}
			}],"error":null}}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	for i := 0; i < 2; i++ {
		summary, err := client.QuoteSummary(context.Background(), "MSFT", ModuleSummaryDetail, ModuleAssetProfile, ModuleEarningsHistory)
		if err != nil {
			t.Fatalf("QuoteSummary() error = %v", err)
		}
		if summary.AssetProfile == nil || summary.AssetProfile.Sector != "Technology" {
			t.Fatalf("unexpected asset profile: %+v", summary.AssetProfile)
		}
		if got := summary.SummaryDetail.TrailingPE.Float(); got == nil || *got != 35.2 {
			t.Fatalf("unexpected trailing pe: %v", got)
		}
		if summary.SummaryDetail.ForwardPE.Float() != nil {
			t.Fatal("expected empty forward pe to be absent")
		}
		if len(summary.EarningsHistory.History) != 1 {
			t.Fatalf("unexpected earnings history: %+v", summary.EarningsHistory)
		}
	}
	if crumbCalls.Load() != 1 {
		t.Fatalf("expected crumb fetched once, got %d", crumbCalls.Load())
	}
}

func TestQuoteSummaryUnauthorizedResetsCrumb(t *testing.T) {
	t.Parallel()

	var crumbCalls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cookie":
			w.WriteHeader(http.StatusNotFound)
		case "/v1/test/getcrumb":
			crumbCalls.Add(1)
			fmt.Fprint(w, "stale")
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))

	for i := 0; i < 2; i++ {
		_, err := client.QuoteSummary(context.Background(), "MSFT")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if crumbCalls.Load() != 2 {
		t.Fatalf("expected crumb refetched after rejection, got %d calls", crumbCalls.Load())
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "  "}); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
