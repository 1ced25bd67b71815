package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	marketdatax "github.com/finnieassistant/finnie/agent/marketdata"
	"github.com/spf13/cobra"
)

var (
	quoteJSON    bool
	quoteRefresh bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote <ticker>",
	Short: "Fetch a market data snapshot for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the raw snapshot as JSON")
	quoteCmd.Flags().BoolVar(&quoteRefresh, "refresh", false, "drop any cached snapshot before fetching")
}

func runQuote(cmd *cobra.Command, args []string) error {
	fetcher, err := buildFetcher()
	if err != nil {
		return err
	}

	fetch := fetcher.Fetch
	if quoteRefresh {
		fetch = fetcher.Refresh
	}
	snap := fetch(cmd.Context(), args[0])
	if quoteJSON {
		return writeJSON(cmd.OutOrStdout(), snap)
	}
	renderSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSnapshot(w io.Writer, snap marketdatax.Snapshot) {
	if snap.Failed() {
		fmt.Fprintf(w, "%s: %s\n", snap.Ticker, snap.Error)
		return
	}

	currency := ""
	if snap.Price != nil && snap.Price.Currency != nil {
		currency = " " + *snap.Price.Currency
	}
	if snap.Price != nil {
		fmt.Fprintf(w, "%s  %s%s\n", snap.Ticker, humanize.CommafWithDigits(snap.Price.Current, 2), currency)
	}
	if snap.Volume != nil {
		fmt.Fprintf(w, "  volume       %s\n", humanize.Comma(*snap.Volume))
	}

	if t := snap.Technicals; t != nil {
		fmt.Fprintf(w, "  52w range    %s - %s\n", humanize.CommafWithDigits(t.Low52Week, 2), humanize.CommafWithDigits(t.High52Week, 2))
		fmt.Fprintf(w, "  SMA 20/50    %s / %s\n", optFloat(t.SMA20), optFloat(t.SMA50))
		fmt.Fprintf(w, "  EMA 20/50    %s / %s\n", optFloat(t.EMA20), optFloat(t.EMA50))
	}

	if f := snap.Fundamentals; f != nil {
		marketCap := "n/a"
		if f.MarketCap != nil {
			marketCap = humanize.SIWithDigits(*f.MarketCap, 2, "")
		}
		fmt.Fprintf(w, "  market cap   %s\n", marketCap)
		fmt.Fprintf(w, "  sector       %s / %s\n", optString(f.Sector), optString(f.Industry))
		fmt.Fprintf(w, "  P/E (fwd)    %s (%s)\n", optFloat(f.PERatio), optFloat(f.ForwardPE))
		fmt.Fprintf(w, "  beta         %s\n", optFloat(f.Beta))
	}

	if e := snap.Earnings; e != nil {
		switch e.Status {
		case marketdatax.EarningsOK:
			fmt.Fprintln(w, "  earnings")
			for _, rec := range e.Records {
				fmt.Fprintf(w, "    %s  est %s  actual %s  surprise %s%%\n",
					rec.Date.Format("2006-01-02"), optFloat(rec.EPSEstimate), optFloat(rec.ReportedEPS), optFloat(rec.SurprisePercent))
			}
		case marketdatax.EarningsFailed:
			fmt.Fprintf(w, "  earnings     failed: %s\n", e.Error)
		default:
			fmt.Fprintln(w, "  earnings     unavailable")
		}
	}

	if ts, err := time.Parse(time.RFC3339Nano, snap.Timestamp); err == nil {
		fmt.Fprintf(w, "  as of        %s\n", humanize.Time(ts))
	}
}

func optFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return humanize.CommafWithDigits(*v, 2)
}

func optString(v *string) string {
	if v == nil || *v == "" {
		return "n/a"
	}
	return *v
}
