package env

// Action is one of the three discrete moves a policy can make on each bar.
// The numeric values match the action head of the policy network (0..2).
type Action int

const (
	Buy Action = iota
	Sell
	Hold
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case Hold:
		return "hold"
	}
	return "invalid"
}

// NumActions is the size of the discrete action space.
const NumActions = 3

// Position is the directional exposure currently held.
type Position int

const (
	Flat Position = iota
	Long
	Short
)

func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "flat"
}

// direction is +1 for Long, -1 for Short, 0 for Flat.
func (p Position) direction() float64 {
	switch p {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}
