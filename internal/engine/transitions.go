package engine

var Transitions = map[Kind]map[ActionType]Kind{
	KindIdle: {
		ActStartDealing: KindDealing,
	},
	KindDealing: {
		ActStartBidding: KindBidding,
		ActStartPlaying: KindPlaying,
		ActComplete:     KindComplete,
		ActReset:        KindIdle,
	},
	KindBidding: {
		ActStartDealing:  KindDealing,
		ActStartDoubling: KindDoubling,
		ActComplete:      KindComplete,
		ActReset:         KindIdle,
	},
	KindDoubling: {
		ActStartPlaying: KindPlaying,
		ActComplete:     KindComplete,
		ActReset:        KindIdle,
	},
	KindPlaying: {
		ActComplete: KindComplete,
		ActReset:    KindIdle,
	},
	KindComplete: {
		ActReset: KindIdle,
	},
}

// Next looks up the transition table; the zero Kind is treated as idle.
func Next(from Kind, a ActionType) (Kind, bool) {
	if from == "" {
		from = KindIdle
	}
	to, ok := Transitions[from][a]
	return to, ok
}
