package engine

func Idle() Phase { return Phase{Kind: KindIdle} }

// Started is true for every phase between start-dealing and complete.
func (p Phase) Started() bool {
	return p.Kind != KindIdle && p.Kind != KindComplete && p.Kind != ""
}

func (p Phase) Is(k Kind) bool { return p.Kind == k }

func Reset() Action { return Action{Type: ActReset} }
func StartDealing(traceID string) Action { return Action{Type: ActStartDealing, TraceID: traceID} }
func Complete(reason string) Action { return Action{Type: ActComplete, Reason: reason} }
func StartBidding(reason string) Action { return Action{Type: ActStartBidding, Reason: reason} }
func StartDoubling(reason string) Action { return Action{Type: ActStartDoubling, Reason: reason} }
func StartPlaying(reason string) Action { return Action{Type: ActStartPlaying, Reason: reason} }
