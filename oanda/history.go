package oanda

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/alphapulse/market"
)

// FetchHistory walks [from, to) in pages of up to 5000 candles, retrying
// transient request failures up to MaxRetries per page with RetryDelay
// between attempts. Pages are stitched in order; candles overlapping a page
// boundary are dropped by timestamp so the result is duplicate-free.
func (c *Client) FetchHistory(ctx context.Context, instrument string, gran Granularity, from, to time.Time) ([]market.Candle, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("oanda: from %s must be before to %s", from, to)
	}

	step := gran.Duration()
	var all []market.Candle
	cursor := from

	for cursor.Before(to) {
		page, err := c.getCandlesRetry(ctx, CandlesRequest{
			Instrument:  instrument,
			Granularity: gran,
			Count:       maxCandlesPerRequest,
			From:        &cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("oanda: history page at %s: %w", cursor, err)
		}
		if len(page) == 0 {
			break
		}

		progressed := false
		for _, candle := range page {
			if candle.Time.Before(cursor) || !candle.Time.Before(to) {
				continue
			}
			all = append(all, candle)
			progressed = true
		}

		last := page[len(page)-1].Time
		if !progressed && !last.After(cursor) {
			// Nothing new in range; the feed has no more data.
			break
		}
		cursor = last.Add(step)
	}

	return all, nil
}

// getCandlesRetry wraps GetCandles with bounded retries. Context
// cancellation aborts immediately.
func (c *Client) getCandlesRetry(ctx context.Context, req CandlesRequest) ([]market.Candle, error) {
	retries := c.MaxRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		candles, err := c.GetCandles(ctx, req)
		if err == nil {
			return candles, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < retries {
			select {
			case <-time.After(c.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", retries, lastErr)
}
