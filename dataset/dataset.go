// Package dataset turns raw stored candles into the enriched, gap-checked
// bar series the environment consumes.
package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/rustyeddy/alphapulse/indicators"
	"github.com/rustyeddy/alphapulse/market"
	"github.com/rustyeddy/alphapulse/store"
)

// Default indicator periods for the observation features.
const (
	DefaultSMAPeriod = 20
	DefaultRSIPeriod = 14
)

// Clean sorts candles by time, drops duplicate timestamps keeping the most
// recently fetched row, and forward-fills rows with missing prices from the
// previous close. Leading rows with no prices at all are dropped.
func Clean(candles []market.Candle) []market.Candle {
	if len(candles) == 0 {
		return nil
	}

	out := make([]market.Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	// Duplicates: keep the last occurrence for each timestamp.
	dedup := out[:0]
	for i := 0; i < len(out); i++ {
		if i+1 < len(out) && out[i+1].Time.Equal(out[i].Time) {
			continue
		}
		dedup = append(dedup, out[i])
	}
	out = dedup

	// Forward-fill: a candle with a non-positive close carries the previous
	// close flat through all four prices.
	cleaned := out[:0]
	var prevClose float64
	for _, c := range out {
		if c.Close <= 0 {
			if prevClose <= 0 {
				continue // nothing to fill from yet
			}
			c.Open, c.High, c.Low, c.Close = prevClose, prevClose, prevClose, prevClose
		}
		prevClose = c.Close
		cleaned = append(cleaned, c)
	}
	return cleaned
}

// Enrich computes the trend and momentum indicator columns over a clean
// candle series and returns bars, dropping the warmup rows that lack
// indicator history. The environment never sees a bar with missing values.
func Enrich(candles []market.Candle, smaPeriod, rsiPeriod int) ([]market.Bar, error) {
	if smaPeriod <= 0 || rsiPeriod <= 0 {
		return nil, fmt.Errorf("dataset: indicator periods must be positive (sma=%d rsi=%d)", smaPeriod, rsiPeriod)
	}

	sma := indicators.NewSMA(smaPeriod)
	rsi := indicators.NewRSI(rsiPeriod)

	bars := make([]market.Bar, 0, len(candles))
	for _, c := range candles {
		sma.Update(c)
		rsi.Update(c)
		if !sma.Ready() || !rsi.Ready() {
			continue
		}
		bars = append(bars, market.Bar{
			Time:   c.Time,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
			SMA:    sma.Value(),
			RSI:    rsi.Value(),
		})
	}
	return bars, nil
}

// Load reads the full ordered series for an instrument from the store,
// cleans it, and enriches it with the default indicator periods.
func Load(ctx context.Context, st *store.Store, instrument string) ([]market.Bar, error) {
	candles, err := st.Load(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("dataset: load %s: %w", instrument, err)
	}
	return Enrich(Clean(candles), DefaultSMAPeriod, DefaultRSIPeriod)
}
