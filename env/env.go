// Package env implements the episodic trading environment: a deterministic
// state machine over an immutable bar series that a policy drives through
// discrete Buy/Sell/Hold actions.
//
// One Env serves one active episode at a time. There is no locking because
// there is no concurrent mutation; run multiple Env instances (sharing the
// read-only bar slice) for parallel episodes.
package env

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rustyeddy/alphapulse/market"
)

var (
	// ErrNoData is returned at construction when the bar series is empty.
	ErrNoData = errors.New("env: no price data")

	// ErrInvalidAction is returned by Step for actions outside {Buy, Sell, Hold}.
	ErrInvalidAction = errors.New("env: invalid action")
)

// ObservationSize is the fixed dimensionality of an observation vector.
const ObservationSize = 7

// Observation is the feature vector for the bar at the cursor:
// [open, high, low, close, volume, sma, rsi].
type Observation [ObservationSize]float64

// End reasons reported by Reason() after an episode finishes.
const (
	ReasonDailyDrawdown   = "daily_drawdown"
	ReasonOverallDrawdown = "overall_drawdown"
	ReasonProfitTarget    = "profit_target"
	ReasonHorizon         = "horizon"
)

// Env is the episode state machine. Account state is owned exclusively by
// the Env and reset at the start of every episode.
type Env struct {
	bars []market.Bar
	cfg  Config
	rng  *rand.Rand
	log  *slog.Logger

	episodeLength int

	startIndex int
	cursor     int
	balance    float64
	equity     float64
	position   Position
	entryPrice float64
	maxEquity  float64
	done       bool
	reason     string
}

// New builds an environment over an immutable bar series. The series must be
// time-ordered, duplicate-free and fully enriched (no warmup rows); that is
// the data pipeline's contract, not re-checked here.
//
// rng drives the randomized episode start selection; pass a seeded source
// for reproducible runs. A nil rng is seeded from the clock. A nil logger
// discards.
func New(bars []market.Bar, cfg Config, rng *rand.Rand, log *slog.Logger) (*Env, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	episodeLength := cfg.EpisodeLength
	if episodeLength > len(bars) {
		episodeLength = len(bars)
	}

	e := &Env{
		bars:          bars,
		cfg:           cfg,
		rng:           rng,
		log:           log,
		episodeLength: episodeLength,
	}
	e.resetState(0)
	return e, nil
}

// Reset starts a new episode at a uniformly random start index and returns
// the observation for the first bar. It is callable repeatedly; no state
// carries over from the previous episode.
func (e *Env) Reset() Observation {
	span := len(e.bars) - e.episodeLength
	start := 0
	if span > 0 {
		start = e.rng.Intn(span)
	}
	e.resetState(start)
	e.log.Debug("episode reset", "start_index", start, "episode_length", e.episodeLength)
	return e.observation()
}

func (e *Env) resetState(start int) {
	e.startIndex = start
	e.cursor = start
	e.balance = e.cfg.InitialBalance
	e.equity = e.cfg.InitialBalance
	e.position = Flat
	e.entryPrice = 0
	e.maxEquity = e.cfg.InitialBalance
	e.done = false
	e.reason = ""
}

// Step advances the episode by one bar in response to action and returns the
// new observation, the reward, and the terminated/truncated flags.
//
// Calling Step after the episode has ended is a defined no-op: it returns the
// last observation with zero reward and terminated=true. An out-of-range
// action returns ErrInvalidAction without mutating state.
func (e *Env) Step(action Action) (Observation, float64, bool, bool, error) {
	if action < Buy || action > Hold {
		return e.observation(), 0, e.done, false, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	if e.done {
		return e.observation(), 0, true, false, nil
	}

	// A cursor already on the final bar has nowhere to advance; the episode
	// truncates immediately. Happens when the series is a single bar.
	if e.cursor >= len(e.bars)-1 {
		e.endEpisode(ReasonHorizon)
		return e.observation(), 0, e.done, true, nil
	}

	e.cursor++
	bar := e.bars[e.cursor]
	price := bar.Close
	units := e.cfg.LotSize * e.cfg.UnitsPerLot

	// Mark to market.
	if e.position != Flat {
		e.equity = e.balance + e.position.direction()*(price-e.entryPrice)*units
	} else {
		e.equity = e.balance
	}

	// Drawdowns use the pre-update high-water mark.
	dailyDrawdown := (e.maxEquity - e.equity) / e.maxEquity
	overallDrawdown := (e.cfg.InitialBalance - e.equity) / e.cfg.InitialBalance
	if e.equity > e.maxEquity {
		e.maxEquity = e.equity
	}

	// Apply the action. Re-entering the held direction is a no-op: the
	// entry price is never reset by a redundant Buy/Sell.
	switch {
	case action == Buy && e.position != Long:
		if e.position == Short {
			e.balance = e.equity // realize the short
		}
		e.position = Long
		e.entryPrice = price + e.cfg.Spread
		e.log.Debug("opened long", "entry_price", e.entryPrice, "cursor", e.cursor)

	case action == Sell && e.position != Short:
		if e.position == Long {
			e.balance = e.equity // realize the long
		}
		e.position = Short
		e.entryPrice = price - e.cfg.Spread
		e.log.Debug("opened short", "entry_price", e.entryPrice, "cursor", e.cursor)
	}

	// Reward: unrealized move in account currency, shaped by the momentum
	// and trend indicators. Zero while flat.
	var reward float64
	if e.position != Flat {
		reward = e.position.direction() * (price - e.entryPrice) * units

		if e.position == Long && bar.RSI > e.cfg.OverboughtRSI {
			reward -= e.cfg.IndicatorPenalty
		} else if e.position == Short && bar.RSI < e.cfg.OversoldRSI {
			reward -= e.cfg.IndicatorPenalty
		}

		if e.position == Long && price > bar.SMA {
			reward += e.cfg.TrendBonus
		} else if e.position == Short && price < bar.SMA {
			reward += e.cfg.TrendBonus
		}
	}

	// Termination checks, in fixed order: daily drawdown, overall drawdown,
	// profit target. Each applies its own reward adjustment; they are
	// cumulative, not mutually exclusive.
	if dailyDrawdown > e.cfg.DailyDrawdownLimit {
		reward -= e.cfg.TerminalReward
		e.endEpisode(ReasonDailyDrawdown)
		e.log.Warn("daily drawdown exceeded", "drawdown", dailyDrawdown, "limit", e.cfg.DailyDrawdownLimit)
	}
	if overallDrawdown > e.cfg.OverallDrawdownLimit {
		reward -= e.cfg.TerminalReward
		e.endEpisode(ReasonOverallDrawdown)
		e.log.Warn("overall drawdown exceeded", "drawdown", overallDrawdown, "limit", e.cfg.OverallDrawdownLimit)
	}
	if profit := (e.equity - e.cfg.InitialBalance) / e.cfg.InitialBalance; profit >= e.cfg.ProfitTarget {
		reward += e.cfg.TerminalReward
		e.endEpisode(ReasonProfitTarget)
		e.log.Info("profit target reached", "profit", profit, "target", e.cfg.ProfitTarget)
	}

	// Horizon check: truncation is distinct from the terminal conditions
	// above, but both end the episode.
	truncated := false
	if e.cursor >= e.startIndex+e.episodeLength || e.cursor >= len(e.bars)-1 {
		truncated = true
		e.endEpisode(ReasonHorizon)
	}

	return e.observation(), reward, e.done, truncated, nil
}

func (e *Env) endEpisode(reason string) {
	e.done = true
	if e.reason == "" {
		e.reason = reason
	}
}

func (e *Env) observation() Observation {
	b := e.bars[e.cursor]
	return Observation{b.Open, b.High, b.Low, b.Close, float64(b.Volume), b.SMA, b.RSI}
}

// Balance is the realized capital.
func (e *Env) Balance() float64 { return e.balance }

// Equity is balance plus unrealized P/L of any open position.
func (e *Env) Equity() float64 { return e.equity }

// MaxEquity is the episode's equity high-water mark.
func (e *Env) MaxEquity() float64 { return e.maxEquity }

// Position reports the current directional exposure.
func (e *Env) Position() Position { return e.position }

// EntryPrice is the spread-inclusive open price of the current position.
// Meaningless when flat.
func (e *Env) EntryPrice() float64 { return e.entryPrice }

// StartIndex is the episode's window start into the bar series.
func (e *Env) StartIndex() int { return e.startIndex }

// Cursor is the index of the bar the environment currently observes.
func (e *Env) Cursor() int { return e.cursor }

// EpisodeLength is the effective episode length, min(configured, len(bars)).
func (e *Env) EpisodeLength() int { return e.episodeLength }

// Done reports whether the episode has ended.
func (e *Env) Done() bool { return e.done }

// Reason reports why the episode ended: one of the Reason* constants, or ""
// while the episode is still running. When several conditions fire on the
// same step the first in evaluation order wins.
func (e *Env) Reason() string { return e.reason }

// InitialBalance exposes the configured starting balance for drivers that
// compute profit ratios.
func (e *Env) InitialBalance() float64 { return e.cfg.InitialBalance }

// BarAt returns the bar at the given index (read-only series).
func (e *Env) BarAt(i int) market.Bar { return e.bars[i] }

// Len returns the length of the underlying bar series.
func (e *Env) Len() int { return len(e.bars) }
