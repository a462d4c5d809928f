// Package dukascopy downloads historical tick data from the Dukascopy
// datafeed and aggregates it into 15-minute candles. It needs no API token,
// which makes it the fallback source when no OANDA credentials are
// configured.
//
// The feed serves one LZMA-compressed .bi5 archive per instrument-hour; a
// missing hour (weekend, holiday) is a plain 404 and is treated as empty.
package dukascopy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ulikunitz/xz/lzma"
)

const defaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

// Tick is one bid/ask quote decoded from a .bi5 archive.
type Tick struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

// Client fetches hourly tick archives.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// PointScale converts the feed's integer price points to price units;
	// 1e5 for EURUSD and other 5-digit pairs, 1e3 for JPY pairs.
	PointScale float64

	// Delay is a polite pause between hour requests.
	Delay time.Duration
}

// NewClient creates a Dukascopy client with the public datafeed URL.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		PointScale: 1e5,
		Delay:      50 * time.Millisecond,
	}
}

// tickURL builds the archive URL for one instrument-hour. The feed uses a
// zero-based month in the path: Jan=00 .. Dec=11.
func (c *Client) tickURL(symbol string, t time.Time) string {
	month0 := int(t.Month()) - 1
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(c.baseURL, "/"),
		symbol,
		t.Year(), month0, t.Day(), t.Hour())
}

// FetchHour downloads and decodes the tick archive for the hour containing t
// (UTC). A 404 returns an empty slice, not an error.
func (c *Client) FetchHour(ctx context.Context, symbol string, t time.Time) ([]Tick, error) {
	hour := t.UTC().Truncate(time.Hour)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tickURL(symbol, hour), nil)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: create request: %w", err)
	}
	req.Header.Set("User-Agent", "alphapulse-collector/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: fetch %s: %w", hour, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dukascopy: http status %d for %s", resp.StatusCode, hour)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: read body: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("dukascopy: lzma reader: %w", err)
	}
	flat, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: decompress: %w", err)
	}

	return decodeTicks(flat, hour, c.PointScale)
}

// FetchRange downloads [from, to) hour by hour. Hours are fetched
// sequentially with Delay between requests to stay polite to the feed.
func (c *Client) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]Tick, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("dukascopy: from %s must be before to %s", from, to)
	}

	var all []Tick
	for h := from.UTC().Truncate(time.Hour); h.Before(to); h = h.Add(time.Hour) {
		ticks, err := c.FetchHour(ctx, symbol, h)
		if err != nil {
			return nil, err
		}
		all = append(all, ticks...)

		if c.Delay > 0 {
			select {
			case <-time.After(c.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return all, nil
}
