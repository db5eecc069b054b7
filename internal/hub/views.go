package hub

import (
	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/lobby"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

func (h *Hub) tableState(t *table.Table) types.TableState {
	s := types.TableState{
		TableID:    t.ID,
		Variant:    string(t.Variant.ID),
		Capacity:   t.Capacity,
		HostID:     t.HostID,
		HasStarted: t.HasStarted(),
		Phase:      string(t.Phase.Kind),
		TraceID:    t.Phase.TraceID,
		Status:     lobby.Status(len(t.Seats), t.Capacity, t.HasStarted()),
		Seats:      make([]types.Seat, 0, len(t.Seats)),
		LastResult: resultView(t.LastResult),
	}
	for _, p := range t.OrderedPlayers() {
		s.Seats = append(s.Seats, types.Seat{
			SeatID:      p.SeatID,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Ready:       t.Ready[p.UserID],
			Connected:   p.Connected,
			Host:        p.UserID == t.HostID,
			Bot:         p.Bot,
		})
	}
	return s
}

func (h *Hub) summary(t *table.Table) types.RoomSummary {
	s := types.RoomSummary{
		TableID:     t.ID,
		Variant:     string(t.Variant.ID),
		PlayerCount: len(t.Seats),
		Capacity:    t.Capacity,
		Status:      lobby.Status(len(t.Seats), t.Capacity, t.HasStarted()),
		UpdatedAt:   h.clock.Now(),
	}
	if host := t.PlayerByUser(t.HostID); host != nil {
		s.HostName = host.DisplayName
	}
	return s
}

// sendGameSnapshots sends each connected seat its own copy; only the recipient's hand
// is included.
func (h *Hub) sendGameSnapshots(t *table.Table) {
	base := types.GameSnapshot{
		TableID:       t.ID,
		Variant:       string(t.Variant.ID),
		Phase:         string(t.Phase.Kind),
		TraceID:       t.Phase.TraceID,
		Seats:         make([]types.SeatHand, 0, len(t.Seats)),
		DrawPileCount: len(t.DrawPile),
	}
	for _, p := range t.OrderedPlayers() {
		base.Seats = append(base.Seats, types.SeatHand{
			SeatID:      p.SeatID,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			HandCount:   len(p.Hand),
			Connected:   p.Connected,
		})
	}

	if c, ok := h.variants.Lookup(t.Variant.ID); ok {
		if r, ok := c.(variant.TurnResolver); ok {
			lastDealt := ""
			if t.Dealing != nil {
				lastDealt = t.Dealing.LastSeatID
			}
			base.CurrentTurnSeatID = r.ResolveCurrentTurnSeatID(t, lastDealt)
		}
		if b, ok := c.(variant.SnapshotBuilder); ok {
			b.BuildSnapshot(t, &base)
		}
	}

	for _, p := range t.OrderedPlayers() {
		if !p.Connected {
			continue
		}
		snap := base
		snap.YourSeatID = p.SeatID
		hand := append([]cards.Card(nil), p.Hand...)
		cards.Sort(hand)
		snap.YourHand = variant.CardViews(hand)
		h.sendTo(p.ConnID, types.EventGameState, snap)
	}
}

func resultView(r *table.GameResult) *types.GameResult {
	if r == nil {
		return nil
	}
	v := &types.GameResult{
		Winner:            string(r.Winner),
		WinnerUserIDs:     append([]string(nil), r.WinnerUserIDs...),
		CallScore:         r.CallScore,
		BombCount:         r.BombCount,
		RocketCount:       r.RocketCount,
		Spring:            r.Spring,
		LandlordRedoubled: r.LandlordRedoubled,
		Scores:            make([]types.PlayerScore, 0, len(r.Scores)),
	}
	for _, s := range r.Scores {
		v.Scores = append(v.Scores, types.PlayerScore{
			SeatID:   s.SeatID,
			UserID:   s.UserID,
			Landlord: s.Landlord,
			Doubled:  s.Doubled,
			Exponent: s.Exponent,
			Score:    s.Score,
		})
	}
	return v
}
