// Package oanda fetches historical candles from the OANDA v20 REST API.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/alphapulse/market"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

// Granularity represents the time frame for candles
type Granularity string

const (
	M1  Granularity = "M1"  // 1 minute
	M5  Granularity = "M5"  // 5 minutes
	M15 Granularity = "M15" // 15 minutes
	M30 Granularity = "M30" // 30 minutes
	H1  Granularity = "H1"  // 1 hour
	H4  Granularity = "H4"  // 4 hours
	D   Granularity = "D"   // 1 day
)

// Duration returns the bar interval for a granularity.
func (g Granularity) Duration() time.Duration {
	switch g {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case M30:
		return 30 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D:
		return 24 * time.Hour
	}
	return 15 * time.Minute
}

// maxCandlesPerRequest is OANDA's per-request candle cap.
const maxCandlesPerRequest = 5000

// Client is an OANDA v20 API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// MaxRetries and RetryDelay bound per-request retries on transient
	// failures during history downloads.
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient creates an OANDA client for the practice or live environment.
func NewClient(token string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// CandlesRequest represents parameters for fetching historical candles.
type CandlesRequest struct {
	Instrument  string      // Required, e.g. "EUR_USD"
	Granularity Granularity // Candle granularity (default M15)
	Count       int         // Number of candles (max 5000, exclusive with To)
	From        *time.Time  // Start time
	To          *time.Time  // End time
}

// candleData is the OHLC payload in the API response.
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

// apiCandle is a single candle in the API response.
type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int64      `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches one page of midpoint candles. Incomplete candles are
// skipped so only closed bars reach the store.
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) ([]market.Candle, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("oanda: instrument is required")
	}
	if req.Granularity == "" {
		req.Granularity = M15
	}

	params := url.Values{}
	params.Set("price", "M")
	params.Set("granularity", string(req.Granularity))

	if req.Count > 0 {
		if req.Count > maxCandlesPerRequest {
			return nil, fmt.Errorf("oanda: count cannot exceed %d", maxCandlesPerRequest)
		}
		params.Set("count", strconv.Itoa(req.Count))
	}
	if req.From != nil {
		params.Set("from", req.From.Format(time.RFC3339))
	}
	if req.To != nil {
		params.Set("to", req.To.Format(time.RFC3339))
	}

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", c.baseURL, req.Instrument, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oanda: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("oanda: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oanda: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("oanda: decode response: %w", err)
	}

	candles := make([]market.Candle, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		if !ac.Complete {
			continue
		}

		t, err := time.Parse(time.RFC3339, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("oanda: parse time %s: %w", ac.Time, err)
		}

		open, err := strconv.ParseFloat(ac.Mid.O, 64)
		if err != nil {
			return nil, fmt.Errorf("oanda: parse open price: %w", err)
		}
		high, err := strconv.ParseFloat(ac.Mid.H, 64)
		if err != nil {
			return nil, fmt.Errorf("oanda: parse high price: %w", err)
		}
		low, err := strconv.ParseFloat(ac.Mid.L, 64)
		if err != nil {
			return nil, fmt.Errorf("oanda: parse low price: %w", err)
		}
		closeP, err := strconv.ParseFloat(ac.Mid.C, 64)
		if err != nil {
			return nil, fmt.Errorf("oanda: parse close price: %w", err)
		}

		candles = append(candles, market.Candle{
			Time:   t.UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: ac.Volume,
		})
	}

	return candles, nil
}
