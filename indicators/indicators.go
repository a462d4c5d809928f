// Package indicators provides streaming technical indicators used to enrich
// candles before they reach the environment.
package indicators

import "github.com/rustyeddy/alphapulse/market"

// Indicator computes a single streaming value from candles.
// It is deterministic and safe to reuse across datasets via Reset.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready() it returns 0;
	// callers should always check Ready().
	Value() float64
}
