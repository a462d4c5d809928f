package indicators

import (
	"fmt"

	"github.com/rustyeddy/alphapulse/market"
)

// RSI is a streaming Relative Strength Index using Wilder's smoothing.
// Update is O(1) per candle, no history scans.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSI creates an RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

// Warmup is period+1: the first candle only seeds prevClose.
func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.count = 0
	r.prevClose = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.current = 0
}

func (r *RSI) Update(c market.Candle) {
	price := c.Close
	r.count++

	if r.count == 1 {
		// First candle: record price, no delta yet.
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count <= r.period+1 {
		// Accumulation phase: build the initial SMA-seeded averages.
		r.avgGain += gain
		r.avgLoss += loss
		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = r.rsi()
		}
		return
	}

	// Wilder's smoothing: avg = (prevAvg*(period-1) + delta) / period
	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = r.rsi()
}

func (r *RSI) rsi() float64 {
	if r.avgLoss == 0 {
		return 100.0
	}
	rs := r.avgGain / r.avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Ready() bool {
	return r.count > r.period
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	return r.current
}
