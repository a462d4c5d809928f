package dukascopy

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/alphapulse/market"
)

// tickRecordSize is the fixed width of one decompressed tick record:
// uint32 ms offset into the hour, uint32 ask points, uint32 bid points,
// float32 ask volume, float32 bid volume — all big-endian.
const tickRecordSize = 20

// decodeTicks parses the decompressed archive body. hour is the UTC hour the
// archive covers; record offsets are milliseconds into that hour.
func decodeTicks(flat []byte, hour time.Time, pointScale float64) ([]Tick, error) {
	if len(flat)%tickRecordSize != 0 {
		return nil, fmt.Errorf("dukascopy: tick payload length %d not a multiple of %d", len(flat), tickRecordSize)
	}
	if pointScale <= 0 {
		return nil, fmt.Errorf("dukascopy: point scale must be positive, got %v", pointScale)
	}

	n := len(flat) / tickRecordSize
	ticks := make([]Tick, 0, n)
	for i := 0; i < n; i++ {
		rec := flat[i*tickRecordSize : (i+1)*tickRecordSize]

		offsetMs := binary.BigEndian.Uint32(rec[0:4])
		askPts := binary.BigEndian.Uint32(rec[4:8])
		bidPts := binary.BigEndian.Uint32(rec[8:12])

		ticks = append(ticks, Tick{
			Time: hour.Add(time.Duration(offsetMs) * time.Millisecond),
			Ask:  float64(askPts) / pointScale,
			Bid:  float64(bidPts) / pointScale,
		})
	}
	return ticks, nil
}

// mid returns the tick midpoint, matching the midpoint candles fetched from
// OANDA.
func (t Tick) mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Aggregate buckets ticks into fixed-interval OHLCV candles on midpoint
// prices. Volume is the tick count per bucket. Empty buckets produce no
// candle; the dataset layer tolerates gaps.
func Aggregate(ticks []Tick, interval time.Duration) []market.Candle {
	if len(ticks) == 0 || interval <= 0 {
		return nil
	}

	sorted := make([]Tick, len(ticks))
	copy(sorted, ticks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	var candles []market.Candle
	var cur *market.Candle

	for _, tk := range sorted {
		bucket := tk.Time.Truncate(interval)
		price := tk.mid()

		if cur == nil || !cur.Time.Equal(bucket) {
			candles = append(candles, market.Candle{
				Time: bucket,
				Open: price, High: price, Low: price, Close: price,
				Volume: 1,
			})
			cur = &candles[len(candles)-1]
			continue
		}

		if price > cur.High {
			cur.High = price
		}
		if price < cur.Low {
			cur.Low = price
		}
		cur.Close = price
		cur.Volume++
	}
	return candles
}

// AggregateM15 is the standard 15-minute aggregation used by the collector.
func AggregateM15(ticks []Tick) []market.Candle {
	return Aggregate(ticks, 15*time.Minute)
}
