package seats

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/table"
)

const DefaultGrace = 5 * time.Second

// Host is the part of the orchestrator the seat manager calls back into.
type Host interface {
	// Teardown stops dealing, drops the table from the active set and removes its lobby entry.
	Teardown(t *table.Table)
	EndGame(t *table.Table, reason string)
	Publish(t *table.Table)
}

type Manager struct {
	host  Host
	grace time.Duration
	log   *zap.Logger
}

func NewManager(host Host, grace time.Duration, log *zap.Logger) *Manager {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Manager{host: host, grace: grace, log: log.Named("seats")}
}

func (m *Manager) Grace() time.Duration { return m.grace }

// RemovePlayerSeat is the single seat-removal path for leave, kick and grace expiry.
// userID may be empty, in which case it is read from the seat.
func (m *Manager) RemovePlayerSeat(t *table.Table, seatID, userID string) {
	p := t.Players[seatID]
	if p == nil {
		return
	}
	if userID == "" {
		userID = p.UserID
	}

	idx := t.Unseat(seatID)
	delete(t.Ready, userID)
	m.cancelPending(t, userID)
	m.log.Info("seat removed",
		zap.String("table_id", t.ID),
		zap.String("seat_id", seatID),
		zap.String("user_id", userID),
		zap.Int("remaining", len(t.Seats)))

	if len(t.Seats) == 0 {
		for uid := range t.PendingDisconnects {
			m.cancelPending(t, uid)
		}
		m.host.Teardown(t)
		return
	}

	if t.HostID == userID {
		next := t.Players[t.Seats[idx%len(t.Seats)]]
		t.HostID = next.UserID
		m.log.Info("host promoted", zap.String("table_id", t.ID), zap.String("user_id", next.UserID))
	}

	if t.HasStarted() && len(t.Seats) < t.Capacity {
		m.host.EndGame(t, table.ReasonPlayerLeft)
	}
	m.host.Publish(t)
}

// CleanupPlayerSocket handles a dropped connection. Before the game starts the seat is
// freed at once; mid-game the seat is held for the grace period.
func (m *Manager) CleanupPlayerSocket(t *table.Table, connID string) {
	p := t.PlayerByConn(connID)
	if p == nil {
		return
	}
	if !t.HasStarted() {
		m.RemovePlayerSeat(t, p.SeatID, p.UserID)
		return
	}

	p.Connected = false
	m.cancelPending(t, p.UserID)
	pending := &table.PendingDisconnect{ConnID: connID}
	userID := p.UserID
	pending.Timer = t.Sched.AfterFunc(m.grace, func() { m.expire(t, userID, pending) })
	t.PendingDisconnects[userID] = pending

	m.log.Info("seat held for reconnect",
		zap.String("table_id", t.ID),
		zap.String("user_id", userID),
		zap.Duration("grace", m.grace))
	m.host.Publish(t)
}

// Reattach binds a returning user's seat to a new connection, cancelling any grace timer.
func (m *Manager) Reattach(t *table.Table, p *table.Player, connID string) {
	m.cancelPending(t, p.UserID)
	p.ConnID = connID
	p.Connected = true
}

func (m *Manager) expire(t *table.Table, userID string, pending *table.PendingDisconnect) {
	if t.PendingDisconnects[userID] != pending {
		return
	}
	delete(t.PendingDisconnects, userID)

	p := t.PlayerByUser(userID)
	if p == nil || p.ConnID != pending.ConnID {
		// a faster reconnect already took the seat over
		return
	}
	m.log.Info("reconnect grace expired", zap.String("table_id", t.ID), zap.String("user_id", userID))
	m.RemovePlayerSeat(t, p.SeatID, userID)
}

func (m *Manager) cancelPending(t *table.Table, userID string) {
	if pending, ok := t.PendingDisconnects[userID]; ok {
		pending.Timer.Stop()
		delete(t.PendingDisconnects, userID)
	}
}

func SetAllPrepared(t *table.Table, ready bool) {
	clear(t.Ready)
	if !ready {
		return
	}
	for _, p := range t.Players {
		t.Ready[p.UserID] = ready
	}
}

// AllPlayersPrepared is false for an empty table.
func AllPlayersPrepared(t *table.Table) bool {
	if len(t.Seats) == 0 {
		return false
	}
	for _, p := range t.Players {
		if !t.Ready[p.UserID] {
			return false
		}
	}
	return true
}
