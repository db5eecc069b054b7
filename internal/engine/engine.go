package engine

type Kind string

const (
	KindIdle     Kind = "idle"
	KindDealing  Kind = "dealing"
	KindBidding  Kind = "bidding"
	KindDoubling Kind = "doubling"
	KindPlaying  Kind = "playing"
	KindComplete Kind = "complete"
)

// Phase is the table lifecycle position. TraceID follows a round from start-dealing
// until reset; Reason is only set on complete.
type Phase struct {
	Kind    Kind   `json:"kind"`
	TraceID string `json:"traceId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ActionType string

const (
	ActReset         ActionType = "reset"
	ActStartDealing  ActionType = "start-dealing"
	ActComplete      ActionType = "complete"
	ActStartBidding  ActionType = "start-bidding"
	ActStartDoubling ActionType = "start-doubling"
	ActStartPlaying  ActionType = "start-playing"
)

type Action struct {
	Type    ActionType
	TraceID string
	Reason  string
}

/*
	idle     -- start-dealing  --> dealing
	dealing  -- start-bidding  --> bidding
	dealing  -- start-playing  --> playing   (classic deal-all)
	bidding  -- start-dealing  --> dealing   (redeal)
	bidding  -- start-doubling --> doubling
	doubling -- start-playing  --> playing
	any started phase -- complete --> complete
	any non-idle phase -- reset --> idle
*/

// Apply returns the phase after a. Actions not allowed from p are no-ops.
func Apply(p Phase, a Action) Phase {
	next, ok := Next(p.Kind, a.Type)
	if !ok {
		return p
	}

	switch a.Type {
	case ActReset:
		return Phase{Kind: next}
	case ActStartDealing:
		return Phase{Kind: next, TraceID: a.TraceID}
	case ActComplete:
		return Phase{Kind: next, TraceID: p.TraceID, Reason: a.Reason}
	default:
		return Phase{Kind: next, TraceID: p.TraceID}
	}
}

// Allowed reports whether a changes the phase when issued from p.
func Allowed(p Phase, a Action) bool {
	_, ok := Next(p.Kind, a.Type)
	return ok
}
