package indicators

import (
	"fmt"

	"github.com/rustyeddy/alphapulse/market"
)

// SimpleMA is a streaming Simple Moving Average over closing prices.
// Update is O(1) per candle: a circular buffer plus a running sum.
type SimpleMA struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewSMA creates a Simple Moving Average indicator with the given period.
func NewSMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.idx = 0
	m.count = 0
	m.sum = 0
	for i := range m.buf {
		m.buf[i] = 0
	}
}

func (m *SimpleMA) Update(c market.Candle) {
	if m.count >= m.period {
		m.sum -= m.buf[m.idx]
	}
	m.buf[m.idx] = c.Close
	m.sum += c.Close
	m.idx = (m.idx + 1) % m.period
	m.count++
}

func (m *SimpleMA) Ready() bool {
	return m.count >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}
