package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/alphapulse/dataset"
	"github.com/rustyeddy/alphapulse/dukascopy"
	"github.com/rustyeddy/alphapulse/market"
	"github.com/rustyeddy/alphapulse/oanda"
	"github.com/rustyeddy/alphapulse/store"
)

var (
	collectFrom string
	collectTo   string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch historical candles, clean them, and store them",
	Long: `Collect downloads 15-minute EURUSD history from a data source,
deduplicates and sorts it, and writes it to the candle store. Re-running an
overlapping range is safe: stored rows are never overwritten.`,
}

var collectOandaCmd = &cobra.Command{
	Use:   "oanda",
	Short: "Collect candles from the OANDA v20 REST API",
	RunE:  runCollectOanda,
}

var collectDukasCmd = &cobra.Command{
	Use:   "dukascopy",
	Short: "Collect candles from the Dukascopy tick feed (no token needed)",
	RunE:  runCollectDukascopy,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.AddCommand(collectOandaCmd)
	collectCmd.AddCommand(collectDukasCmd)

	collectCmd.PersistentFlags().StringVar(&collectFrom, "from", "", "range start, RFC3339 or YYYY-MM-DD (required)")
	collectCmd.PersistentFlags().StringVar(&collectTo, "to", "", "range end (exclusive), RFC3339 or YYYY-MM-DD (required)")
}

func collectRange() (time.Time, time.Time, error) {
	from, err := parseTimeFlag(collectFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad --from: %w", err)
	}
	to, err := parseTimeFlag(collectTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad --to: %w", err)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must be before --to")
	}
	return from, to, nil
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func runCollectOanda(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger("collect")

	from, to, err := collectRange()
	if err != nil {
		return err
	}

	token := cfg.Data.OandaToken
	if token == "" {
		token = strings.TrimSpace(os.Getenv("OANDA_TOKEN"))
	}
	if token == "" {
		return fmt.Errorf("missing OANDA token: set data.oanda_token or env OANDA_TOKEN")
	}

	client := oanda.NewClient(token, cfg.Data.OandaEnv != "live")

	log.Info("fetching candles", "source", "oanda", "instrument", cfg.Data.Instrument, "from", from, "to", to)
	candles, err := client.FetchHistory(cmd.Context(), cfg.Data.Instrument, oanda.M15, from, to)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	return storeCandles(cmd.Context(), cfg.Data.DBPath, cfg.Data.Instrument, candles)
}

func runCollectDukascopy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger("collect")

	from, to, err := collectRange()
	if err != nil {
		return err
	}

	// Dukascopy uses "EURUSD" where OANDA uses "EUR_USD".
	symbol := strings.ReplaceAll(cfg.Data.Instrument, "_", "")

	client := dukascopy.NewClient()
	log.Info("fetching ticks", "source", "dukascopy", "symbol", symbol, "from", from, "to", to)

	ticks, err := client.FetchRange(cmd.Context(), symbol, from, to)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	candles := dukascopy.AggregateM15(ticks)

	return storeCandles(cmd.Context(), cfg.Data.DBPath, cfg.Data.Instrument, candles)
}

func storeCandles(ctx context.Context, dbPath, instrument string, candles []market.Candle) error {
	cleaned := dataset.Clean(candles)

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	inserted, err := st.Put(ctx, instrument, cleaned)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	total, _ := st.Count(ctx, instrument)
	fmt.Printf("Collected %d candles (%d new), %d stored total\n", len(cleaned), inserted, total)
	return nil
}
