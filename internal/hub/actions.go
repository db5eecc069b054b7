package hub

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/room"
	"github.com/DoyleJ11/card-table-backend/internal/seats"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// CreateTable opens an empty table. A zero capacity takes the variant default; the first
// player to join becomes host.
func (h *Hub) CreateTable(ctx context.Context, variantID table.VariantID, capacity int) (types.TableState, error) {
	c, ok := h.variants.Lookup(variantID)
	if !ok {
		return types.TableState{}, table.ErrUnknownVariant
	}
	d := c.Descriptor()
	if capacity == 0 || d.CapacityLocked {
		capacity = d.DefaultCapacity
	}
	capacity = d.Clamp(capacity)

	id := uuid.NewString()
	r := room.New(h.ctx, id, h.opts.InboxSize, h.clock, h.log)
	e := &entry{room: r, table: table.New(id, d, capacity, r, h.clock.Now())}

	h.mu.Lock()
	h.tables[id] = e
	h.mu.Unlock()

	var state types.TableState
	err := h.do(ctx, e, func(t *table.Table) error {
		h.lobby.Upsert(h.summary(t))
		state = h.tableState(t)
		return nil
	})
	if err != nil {
		return types.TableState{}, err
	}
	h.log.Info("table created",
		zap.String("table_id", id),
		zap.String("variant", string(d.ID)),
		zap.Int("capacity", capacity))
	return state, nil
}

// Join seats a user, or rebinds their existing seat to this connection.
func (h *Hub) Join(ctx context.Context, connID, tableID, userID, displayName string) (types.TableState, error) {
	h.mu.Lock()
	current, bound := h.connTable[connID]
	h.mu.Unlock()
	if bound && current != tableID {
		return types.TableState{}, table.ErrAlreadySeated
	}

	e := h.entry(tableID)
	if e == nil {
		return types.TableState{}, table.ErrTableNotFound
	}
	if err := h.users.Register(ctx, userID, displayName); err != nil {
		h.log.Error("register user", zap.String("user_id", userID), zap.Error(err))
		return types.TableState{}, table.ErrInternal
	}

	var state types.TableState
	err := h.act(ctx, e, func(t *table.Table) error {
		if p := t.PlayerByUser(userID); p != nil {
			prev := p.ConnID
			h.seats.Reattach(t, p, connID)
			if displayName != "" {
				p.DisplayName = displayName
			}
			if prev != connID {
				h.unbind(prev, t.ID)
			}
			h.log.Info("seat reattached",
				zap.String("table_id", t.ID),
				zap.String("seat_id", p.SeatID),
				zap.String("user_id", userID))
		} else {
			if t.HasStarted() {
				return table.ErrGameInProgress
			}
			if t.IsFull() {
				return table.ErrTableFull
			}
			p := t.Seat(userID, displayName, connID)
			if t.HostID == "" {
				t.HostID = userID
			}
			h.log.Info("seat taken",
				zap.String("table_id", t.ID),
				zap.String("seat_id", p.SeatID),
				zap.String("user_id", userID))
		}
		h.bind(connID, t.ID, userID)
		h.Publish(t)
		state = h.tableState(t)
		return nil
	})
	return state, err
}

// Leave frees the caller's seat. Leaving a running game forfeits the round for everyone.
func (h *Hub) Leave(ctx context.Context, connID string) error {
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		p := t.PlayerByConn(connID)
		if p == nil {
			return table.ErrNotAtTable
		}
		if t.HasStarted() {
			h.EndGame(t, table.ReasonPlayerLeft)
		}
		h.unbind(connID, t.ID)
		h.seats.RemovePlayerSeat(t, p.SeatID, userID)
		return nil
	})
}

func (h *Hub) SetReady(ctx context.Context, connID string, ready bool) error {
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		if t.PlayerByUser(userID) == nil {
			return table.ErrNotAtTable
		}
		if t.HasStarted() {
			return table.ErrGameInProgress
		}
		t.Ready[userID] = ready
		h.Publish(t)
		return nil
	})
}

func (h *Hub) Start(ctx context.Context, connID string) error {
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		if t.HostID != userID {
			return table.ErrNotHost
		}
		if t.HasStarted() {
			return table.ErrGameInProgress
		}
		if !t.IsFull() {
			return table.ErrNotFull
		}
		if !seats.AllPlayersPrepared(t) {
			return table.ErrNotAllReady
		}
		c, err := h.controller(t)
		if err != nil {
			return err
		}
		t.LastResult = nil
		c.Start(t)
		h.log.Info("game started",
			zap.String("table_id", t.ID),
			zap.String("trace_id", t.Phase.TraceID),
			zap.String("variant", string(t.Variant.ID)))
		h.Publish(t)
		return nil
	})
}

func (h *Hub) UpdateCapacity(ctx context.Context, connID string, capacity int) error {
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		if t.HostID != userID {
			return table.ErrNotHost
		}
		if t.Variant.CapacityLocked {
			return table.ErrCapacityLocked
		}
		if t.HasStarted() {
			return table.ErrGameInProgress
		}
		capacity = t.Variant.Clamp(capacity)
		if capacity < len(t.Seats) {
			return table.ErrCapacityBelowSeated
		}
		t.Capacity = capacity
		h.Publish(t)
		return nil
	})
}

// Kick removes another seat and drops its connection.
func (h *Hub) Kick(ctx context.Context, connID, seatID string) error {
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		if t.HostID != userID {
			return table.ErrNotHost
		}
		target := t.Players[seatID]
		if target == nil {
			return table.ErrPlayerNotFound
		}
		if target.UserID == userID {
			return table.ErrCannotKickSelf
		}

		if t.HasStarted() {
			h.EndGame(t, table.ReasonPlayerLeft)
		}
		conn := target.ConnID
		h.sendTo(conn, types.EventKicked, types.TableClosed{TableID: t.ID, Reason: "kicked"})
		bot := target.Bot
		h.unbind(conn, t.ID)
		if !bot {
			h.transport.Disconnect(conn)
		}
		h.log.Info("player kicked", zap.String("table_id", t.ID), zap.String("seat_id", seatID))
		h.seats.RemovePlayerSeat(t, seatID, target.UserID)
		return nil
	})
}

// AddBot seats an automated player. Bots ready themselves.
func (h *Hub) AddBot(ctx context.Context, connID string) error {
	if h.bots == nil {
		return table.ErrUnsupportedAction
	}
	e, userID, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		if t.HostID != userID {
			return table.ErrNotHost
		}
		if t.HasStarted() {
			return table.ErrGameInProgress
		}
		if t.IsFull() {
			return table.ErrTableFull
		}

		id := uuid.NewString()
		botUser := "bot-" + id[:8]
		botConn := "bot:" + id
		p := t.Seat(botUser, fmt.Sprintf("Bot %d", len(t.Seats)+1), botConn)
		p.Bot = true
		t.Ready[botUser] = true

		agent := h.bots(t.ID, botConn, p.SeatID)
		h.mu.Lock()
		h.agents[botConn] = agent
		h.mu.Unlock()
		h.bind(botConn, t.ID, botUser)

		h.log.Info("bot seated", zap.String("table_id", t.ID), zap.String("seat_id", p.SeatID))
		h.Publish(t)
		return nil
	})
}

func (h *Hub) Bid(ctx context.Context, connID string, bid int) error {
	return h.turnAction(ctx, connID, func(c variant.Controller, t *table.Table, seatID string) error {
		b, ok := c.(variant.Bidder)
		if !ok {
			return table.ErrUnsupportedAction
		}
		return b.HandleBid(t, seatID, bid)
	})
}

func (h *Hub) Double(ctx context.Context, connID string, double bool) error {
	return h.turnAction(ctx, connID, func(c variant.Controller, t *table.Table, seatID string) error {
		d, ok := c.(variant.Doubler)
		if !ok {
			return table.ErrUnsupportedAction
		}
		return d.HandleDouble(t, seatID, double)
	})
}

// Play plays the given cards; an empty list passes.
func (h *Hub) Play(ctx context.Context, connID string, cardIDs []int) error {
	return h.turnAction(ctx, connID, func(c variant.Controller, t *table.Table, seatID string) error {
		p, ok := c.(variant.TrickPlayer)
		if !ok {
			return table.ErrUnsupportedAction
		}
		return p.HandlePlay(t, seatID, cardIDs)
	})
}

// turnAction resolves the caller's seat and hands off to the variant. The controller
// emits its own snapshots on success.
func (h *Hub) turnAction(ctx context.Context, connID string, fn func(variant.Controller, *table.Table, string) error) error {
	e, _, err := h.seated(connID)
	if err != nil {
		return err
	}
	return h.act(ctx, e, func(t *table.Table) error {
		p := t.PlayerByConn(connID)
		if p == nil {
			return table.ErrNotAtTable
		}
		if !t.HasStarted() {
			return table.ErrGameNotStarted
		}
		c, err := h.controller(t)
		if err != nil {
			return err
		}
		if err := fn(c, t, p.SeatID); err != nil {
			h.log.Debug("action rejected",
				zap.String("table_id", t.ID),
				zap.String("seat_id", p.SeatID),
				zap.Error(err))
			return err
		}
		return nil
	})
}

// Disconnect is called by the transport when a connection drops.
func (h *Hub) Disconnect(ctx context.Context, connID string) {
	h.mu.Lock()
	tableID, ok := h.connTable[connID]
	delete(h.connTable, connID)
	delete(h.connUser, connID)
	e := h.tables[tableID]
	h.mu.Unlock()
	if !ok || e == nil {
		return
	}
	err := h.do(ctx, e, func(t *table.Table) error {
		h.seats.CleanupPlayerSocket(t, connID)
		return nil
	})
	if err != nil {
		h.log.Debug("disconnect on closed table", zap.String("table_id", tableID), zap.Error(err))
	}
}

// TableState reads the lightweight snapshot of one table.
func (h *Hub) TableState(ctx context.Context, tableID string) (types.TableState, error) {
	e := h.entry(tableID)
	if e == nil {
		return types.TableState{}, table.ErrTableNotFound
	}
	var state types.TableState
	err := h.do(ctx, e, func(t *table.Table) error {
		state = h.tableState(t)
		return nil
	})
	return state, err
}

// DiscardEmpty tears down a table nobody sits at. It reports whether the table went away.
func (h *Hub) DiscardEmpty(ctx context.Context, tableID string) bool {
	e := h.entry(tableID)
	if e == nil {
		return false
	}
	discarded := false
	_ = h.do(ctx, e, func(t *table.Table) error {
		if len(t.Seats) > 0 {
			return nil
		}
		h.Teardown(t)
		discarded = true
		return nil
	})
	return discarded
}

// EvictIdle tears down tables that never started and have been quiet for the idle TTL.
func (h *Hub) EvictIdle(ctx context.Context) int {
	now := h.clock.Now()
	h.mu.Lock()
	entries := make([]*entry, 0, len(h.tables))
	for _, e := range h.tables {
		entries = append(entries, e)
	}
	h.mu.Unlock()

	n := 0
	for _, e := range entries {
		_ = h.do(ctx, e, func(t *table.Table) error {
			if t.HasStarted() || now.Sub(t.LastActive) < h.opts.IdleTTL {
				return nil
			}
			h.log.Info("evicting idle table", zap.String("table_id", t.ID), zap.Time("last_active", t.LastActive))
			h.emit(t, types.EventTableClosed, types.TableClosed{TableID: t.ID, Reason: "idle"})
			h.Teardown(t)
			n++
			return nil
		})
	}
	return n
}

// Shutdown cancels every timer and stops every table goroutine.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	entries := make([]*entry, 0, len(h.tables))
	for _, e := range h.tables {
		entries = append(entries, e)
	}
	h.mu.Unlock()

	for _, e := range entries {
		_ = h.do(ctx, e, func(t *table.Table) error {
			h.emit(t, types.EventTableClosed, types.TableClosed{TableID: t.ID, Reason: "shutdown"})
			h.Teardown(t)
			return nil
		})
		e.room.Stop()
	}
	h.cancel()
	h.log.Info("hub stopped", zap.Int("tables", len(entries)))
}
