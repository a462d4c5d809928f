package env

import "fmt"

// Config holds the account and episode parameters consumed at construction.
// Defaults mirror a $10k account trading EURUSD micro lots with prop-firm
// style drawdown rules.
type Config struct {
	// InitialBalance is the starting (and reset) account balance.
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`

	// LotSize in standard lots; 0.1 is a mini lot.
	LotSize float64 `json:"lot_size" yaml:"lot_size"`

	// UnitsPerLot converts lots to base-currency units (100000 for FX).
	UnitsPerLot float64 `json:"units_per_lot" yaml:"units_per_lot"`

	// Spread is the fixed cost applied on entry, in price units.
	Spread float64 `json:"spread" yaml:"spread"`

	// DailyDrawdownLimit ends the episode when equity falls this fraction
	// below the episode's high-water mark.
	DailyDrawdownLimit float64 `json:"daily_drawdown_limit" yaml:"daily_drawdown_limit"`

	// OverallDrawdownLimit ends the episode when equity falls this fraction
	// below the initial balance.
	OverallDrawdownLimit float64 `json:"overall_drawdown_limit" yaml:"overall_drawdown_limit"`

	// ProfitTarget ends the episode when unrealized profit reaches this
	// fraction of the initial balance.
	ProfitTarget float64 `json:"profit_target" yaml:"profit_target"`

	// EpisodeLength is the requested number of bars per episode; the
	// effective length is min(EpisodeLength, len(bars)).
	EpisodeLength int `json:"episode_length" yaml:"episode_length"`

	// Reward shaping constants. Kept in config so tests can isolate each
	// term by zeroing the others.
	OverboughtRSI    float64 `json:"overbought_rsi" yaml:"overbought_rsi"`
	OversoldRSI      float64 `json:"oversold_rsi" yaml:"oversold_rsi"`
	IndicatorPenalty float64 `json:"indicator_penalty" yaml:"indicator_penalty"`
	TrendBonus       float64 `json:"trend_bonus" yaml:"trend_bonus"`

	// TerminalReward is subtracted on a drawdown breach and added on
	// reaching the profit target.
	TerminalReward float64 `json:"terminal_reward" yaml:"terminal_reward"`
}

// DefaultConfig returns the standard EURUSD M15 configuration.
func DefaultConfig() Config {
	return Config{
		InitialBalance:       10_000,
		LotSize:              0.1,
		UnitsPerLot:          100_000,
		Spread:               0.00015, // 1.5 pips
		DailyDrawdownLimit:   0.05,
		OverallDrawdownLimit: 0.10,
		ProfitTarget:         0.08,
		EpisodeLength:        2880, // 30 days of 15-minute bars
		OverboughtRSI:        70,
		OversoldRSI:          30,
		IndicatorPenalty:     50,
		TrendBonus:           10,
		TerminalReward:       1000,
	}
}

// Validate checks the configuration contract. Drawdown and profit arithmetic
// divides by InitialBalance and the equity high-water mark, so both must be
// strictly positive.
func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %v", c.InitialBalance)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive, got %v", c.LotSize)
	}
	if c.UnitsPerLot <= 0 {
		return fmt.Errorf("units_per_lot must be positive, got %v", c.UnitsPerLot)
	}
	if c.Spread < 0 {
		return fmt.Errorf("spread must be non-negative, got %v", c.Spread)
	}
	if c.DailyDrawdownLimit <= 0 || c.DailyDrawdownLimit >= 1 {
		return fmt.Errorf("daily_drawdown_limit must be in (0,1), got %v", c.DailyDrawdownLimit)
	}
	if c.OverallDrawdownLimit <= 0 || c.OverallDrawdownLimit >= 1 {
		return fmt.Errorf("overall_drawdown_limit must be in (0,1), got %v", c.OverallDrawdownLimit)
	}
	if c.ProfitTarget <= 0 {
		return fmt.Errorf("profit_target must be positive, got %v", c.ProfitTarget)
	}
	if c.EpisodeLength <= 0 {
		return fmt.Errorf("episode_length must be positive, got %d", c.EpisodeLength)
	}
	if c.OversoldRSI > c.OverboughtRSI {
		return fmt.Errorf("oversold_rsi %v must not exceed overbought_rsi %v", c.OversoldRSI, c.OverboughtRSI)
	}
	return nil
}
