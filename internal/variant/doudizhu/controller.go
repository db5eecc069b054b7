package doudizhu

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/dealing"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
)

// Host is what the controller needs from the orchestrator.
type Host interface {
	Snapshot(t *table.Table)
	CompleteGame(t *table.Table, result *table.GameResult)
}

// Oracle judges combo legality and trick flow.
type Oracle interface {
	ValidateLead(cs []cards.Card) rules.Validation
	ValidateFollow(cs []cards.Card, previous rules.Combo) rules.Validation
	AdvanceTrick(in rules.TrickInput) rules.TrickOutcome
}

type Controller struct {
	deals   *dealing.Coordinator
	host    Host
	oracle  Oracle
	shuffle variant.Shuffler
	log     *zap.Logger
}

func New(deals *dealing.Coordinator, host Host, oracle Oracle, shuffle variant.Shuffler, log *zap.Logger) *Controller {
	if oracle == nil {
		oracle = rules.Oracle{}
	}
	if shuffle == nil {
		shuffle = cards.Shuffle
	}
	return &Controller{deals: deals, host: host, oracle: oracle, shuffle: shuffle, log: log.Named("doudizhu")}
}

func (c *Controller) Descriptor() table.Descriptor { return variant.DouDizhu }

// Start shuffles a fresh deck and deals until only the bottom is left. It is also the
// redeal path when every seat passes.
func (c *Controller) Start(t *table.Table) {
	st := &State{}
	if prev := StateOf(t); prev != nil {
		st.Redeals = prev.Redeals
		if prev.Bidding != nil && prev.Bidding.RedealRequired {
			st.Redeals++
		}
	}

	t.Redeck()
	c.shuffle(t.DrawPile)
	t.State = st
	t.Phase = engine.Apply(t.Phase, engine.StartDealing(uuid.NewString()))
	c.log.Info("deal started",
		zap.String("table_id", t.ID),
		zap.String("trace_id", t.Phase.TraceID),
		zap.Int("redeals", st.Redeals))

	c.deals.Start(t, dealing.Hooks{
		StopWhen: func(t *table.Table) bool { return len(t.DrawPile) <= BottomSize },
		OnFinish: c.finishDealing,
	})
}

func (c *Controller) finishDealing(t *table.Table) {
	st := StateOf(t)
	if st == nil || len(t.Seats) == 0 {
		return
	}
	st.Bottom = append([]cards.Card(nil), t.DrawPile...)
	t.DrawPile = nil

	first := t.Seats[0]
	st.Bidding = &BiddingState{CurrentSeat: first, StartingSeat: first}
	t.Phase = engine.Apply(t.Phase, engine.StartBidding("dealt"))
	c.host.Snapshot(t)
}

// startPlayingPhase hands the first lead to the landlord.
func (c *Controller) startPlayingPhase(t *table.Table, st *State) {
	st.Play = &PlayState{
		CurrentSeat:  st.LandlordSeat,
		TrickCombos:  make(map[string]rules.Combo),
		PlayedCounts: make(map[string]int),
	}
	t.Phase = engine.Apply(t.Phase, engine.StartPlaying("doubling finished"))
	c.log.Info("play started",
		zap.String("table_id", t.ID),
		zap.String("trace_id", t.Phase.TraceID),
		zap.String("landlord", st.LandlordSeat))
	c.host.Snapshot(t)
}

func (c *Controller) ResolveCurrentTurnSeatID(t *table.Table, lastDealtSeatID string) string {
	st := StateOf(t)
	switch t.Phase.Kind {
	case engine.KindDealing:
		return lastDealtSeatID
	case engine.KindBidding:
		if st != nil && st.Bidding != nil {
			return st.Bidding.CurrentSeat
		}
	case engine.KindDoubling:
		if st != nil && st.Doubling != nil {
			return st.Doubling.CurrentSeat()
		}
	case engine.KindPlaying:
		if st != nil && st.Play != nil {
			return st.Play.CurrentSeat
		}
	}
	return ""
}
