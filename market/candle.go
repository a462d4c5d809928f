// Package market defines the price-series types shared by the data
// pipeline and the trading environment.
package market

import "time"

// Candle is one raw OHLCV record for a fixed interval, as fetched from a
// data source. Timestamps are UTC.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Bar is a candle enriched with the derived indicator columns the
// environment observes: a trend average (SMA) and a momentum oscillator
// (RSI). Bars are produced by dataset.Enrich and are immutable once built.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	SMA    float64
	RSI    float64
}
