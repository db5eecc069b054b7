package doudizhu

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

// HandlePlay applies one play or pass. An empty cardIDs is a pass.
func (c *Controller) HandlePlay(t *table.Table, seatID string, cardIDs []int) error {
	st := StateOf(t)
	if !t.Phase.Is(engine.KindPlaying) || st == nil || st.Play == nil || st.Play.Finished {
		return table.ErrWrongPhase
	}
	p := t.Players[seatID]
	if p == nil {
		return table.ErrNotAtTable
	}
	pl := st.Play
	if pl.CurrentSeat != seatID {
		return table.ErrNotYourTurn
	}

	deckSize := t.Variant.DeckSize()
	for _, id := range cardIDs {
		if id < 0 || id >= deckSize {
			return table.ErrUnknownCards
		}
	}
	picked, rest, err := cards.Extract(p.Hand, cardIDs)
	if err != nil {
		return table.ErrCardsNotInHand
	}

	var v rules.Validation
	if pl.Trick.LastCombo == nil {
		v = c.oracle.ValidateLead(picked)
	} else {
		v = c.oracle.ValidateFollow(picked, *pl.Trick.LastCombo)
	}
	if !v.OK {
		return table.Reject(table.CodeIllegalPlay, v.Reason)
	}

	out := c.oracle.AdvanceTrick(rules.TrickInput{
		Combo:      v.Combo,
		SeatID:     seatID,
		State:      pl.Trick,
		NextSeatOf: t.NextSeatOf,
	})
	if !out.OK {
		return table.Reject(table.CodeIllegalPlay, out.Reason)
	}
	pl.Trick = out.State

	if !v.Combo.IsPass() {
		p.Hand = rest
		pl.TrickCombos[seatID] = v.Combo
		pl.PlayedCounts[seatID]++
		if pl.FirstComboSeat == "" {
			pl.FirstComboSeat = seatID
		}
		switch v.Combo.Type {
		case rules.Bomb:
			pl.BombCount++
		case rules.Rocket:
			pl.RocketCount++
		}
	}
	if out.TrickEnded {
		clear(pl.TrickCombos)
	}

	if len(p.Hand) == 0 {
		pl.Finished = true
		pl.CurrentSeat = ""
		result := ComputeScoreBreakdown(t, st, seatID)
		c.log.Info("round won",
			zap.String("table_id", t.ID),
			zap.String("trace_id", t.Phase.TraceID),
			zap.String("seat_id", seatID),
			zap.String("winner", string(result.Winner)),
			zap.Bool("spring", result.Spring))
		c.host.CompleteGame(t, result)
		return nil
	}

	pl.CurrentSeat = out.NextSeatID
	c.host.Snapshot(t)
	return nil
}
