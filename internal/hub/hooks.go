package hub

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Everything in this file runs on the table's room goroutine.

// Publish refreshes the lobby entry and pushes both snapshots.
func (h *Hub) Publish(t *table.Table) {
	h.lobby.Upsert(h.summary(t))
	h.emit(t, types.EventTableState, h.tableState(t))
	h.sendGameSnapshots(t)
}

// Snapshot is the variant controllers' hook after each accepted move.
func (h *Hub) Snapshot(t *table.Table) { h.Publish(t) }

func (h *Hub) CompleteGame(t *table.Table, result *table.GameResult) {
	h.finishRound(t, table.ReasonCompleted, result)
}

func (h *Hub) EndGame(t *table.Table, reason string) {
	h.finishRound(t, reason, nil)
}

// finishRound closes the round, announces it once and resets the table for the next one.
func (h *Hub) finishRound(t *table.Table, reason string, result *table.GameResult) {
	if !t.HasStarted() {
		return
	}
	h.deals.Stop(t)
	t.Phase = engine.Apply(t.Phase, engine.Complete(reason))
	t.LastResult = result
	h.log.Info("game ended",
		zap.String("table_id", t.ID),
		zap.String("trace_id", t.Phase.TraceID),
		zap.String("reason", reason))
	h.emit(t, types.EventGameEnded, types.GameEnded{TableID: t.ID, Reason: reason, Result: resultView(result)})

	t.Phase = engine.Apply(t.Phase, engine.Reset())
	clear(t.Ready)
	t.State = nil
	t.Redeck()
	h.Publish(t)
}

// Teardown removes an emptied or evicted table. Later messages to its room are refused.
func (h *Hub) Teardown(t *table.Table) {
	h.deals.Stop(t)
	for uid, pending := range t.PendingDisconnects {
		pending.Timer.Stop()
		delete(t.PendingDisconnects, uid)
	}
	for _, p := range t.OrderedPlayers() {
		h.unbind(p.ConnID, t.ID)
	}

	h.mu.Lock()
	e := h.tables[t.ID]
	delete(h.tables, t.ID)
	h.mu.Unlock()

	h.lobby.Remove(t.ID)
	if e != nil {
		e.closed = true
		e.room.Close()
	}
	h.log.Info("table closed", zap.String("table_id", t.ID))
}

// dealNotifier keeps per-card traffic off the lobby: a tick only touches the seats.
type dealNotifier struct{ h *Hub }

func (n dealNotifier) CardDealt(t *table.Table, seatID string, c cards.Card) {
	p := t.Players[seatID]
	if p == nil || !p.Connected {
		return
	}
	n.h.sendTo(p.ConnID, types.EventCardDealt, types.CardDealt{
		TableID: t.ID,
		SeatID:  seatID,
		Card:    variant.CardView(c),
	})
}

func (n dealNotifier) Snapshot(t *table.Table) { n.h.sendGameSnapshots(t) }
