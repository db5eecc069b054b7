package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/clock"
	"github.com/DoyleJ11/card-table-backend/internal/dealing"
	"github.com/DoyleJ11/card-table-backend/internal/room"
	"github.com/DoyleJ11/card-table-backend/internal/seats"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
	"github.com/DoyleJ11/card-table-backend/internal/variant/doudizhu"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Transport is the connection boundary. Implementations must not block the caller.
type Transport interface {
	Broadcast(tableID, event string, payload any)
	SendTo(connID, event string, payload any)
	JoinGroup(connID, tableID string)
	LeaveGroup(connID, tableID string)
	Disconnect(connID string)
}

// Lobby receives the room summary projection.
type Lobby interface {
	Upsert(s types.RoomSummary)
	Remove(tableID string)
}

type Users interface {
	Register(ctx context.Context, userID, displayName string) error
}

// Agent is an automated seat. Deliver and Stop are called from table goroutines and
// must return promptly.
type Agent interface {
	Deliver(event string, payload any)
	Stop()
}

type AgentFactory func(tableID, connID, seatID string) Agent

type Deps struct {
	Transport Transport
	Lobby     Lobby
	Users     Users
	Clock     clock.Clock
	Logger    *zap.Logger
	Shuffle   variant.Shuffler
	Oracle    doudizhu.Oracle
	Bots      AgentFactory
}

type Options struct {
	DealInterval   time.Duration
	ReconnectGrace time.Duration
	InboxSize      int
	IdleTTL        time.Duration
}

type entry struct {
	room  *room.Room
	table *table.Table
	// closed is only touched on the room goroutine
	closed bool
}

// Hub is the table orchestrator. It owns the table registry and the connection
// lookups; each table's record is only ever touched from its room goroutine.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	transport Transport
	lobby     Lobby
	users     Users
	clock     clock.Clock
	log       *zap.Logger
	bots      AgentFactory
	opts      Options

	deals    *dealing.Coordinator
	seats    *seats.Manager
	variants variant.Registry

	mu        sync.Mutex
	tables    map[string]*entry
	connTable map[string]string
	connUser  map[string]string
	agents    map[string]Agent
}

func New(parent context.Context, d Deps, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}

	h := &Hub{
		ctx:       ctx,
		cancel:    cancel,
		transport: d.Transport,
		lobby:     d.Lobby,
		users:     d.Users,
		clock:     d.Clock,
		log:       d.Logger.Named("hub"),
		bots:      d.Bots,
		opts:      opts,
		tables:    make(map[string]*entry),
		connTable: make(map[string]string),
		connUser:  make(map[string]string),
		agents:    make(map[string]Agent),
	}
	h.deals = dealing.New(opts.DealInterval, dealNotifier{h}, d.Logger)
	h.seats = seats.NewManager(h, opts.ReconnectGrace, d.Logger)
	h.variants = variant.NewRegistry(
		variant.NewClassic(h.deals, h, d.Shuffle, d.Logger),
		doudizhu.New(h.deals, h, d.Oracle, d.Shuffle, d.Logger),
	)
	return h
}

// Variants lists the descriptors of every registered controller.
func (h *Hub) Variants() []table.Descriptor {
	out := make([]table.Descriptor, 0, len(h.variants))
	for _, c := range h.variants {
		out = append(out, c.Descriptor())
	}
	return out
}

func (h *Hub) entry(tableID string) *entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tables[tableID]
}

// seated resolves the table and user bound to a connection.
func (h *Hub) seated(connID string) (*entry, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.connTable[connID]
	if !ok {
		return nil, "", table.ErrNotAtTable
	}
	e := h.tables[id]
	if e == nil {
		return nil, "", table.ErrTableNotFound
	}
	return e, h.connUser[connID], nil
}

// do runs fn on the table's goroutine and maps actor failures onto action errors.
func (h *Hub) do(ctx context.Context, e *entry, fn func(t *table.Table) error) error {
	err := e.room.Do(ctx, func() error {
		if e.closed {
			return table.ErrTableNotFound
		}
		return fn(e.table)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, room.ErrPanicked):
		h.log.Error("table action failed", zap.String("table_id", e.room.ID), zap.Error(err))
		return table.ErrInternal
	case errors.Is(err, room.ErrStopped):
		return table.ErrTableNotFound
	}
	return err
}

// act is do for player actions: a successful action counts as table activity.
func (h *Hub) act(ctx context.Context, e *entry, fn func(t *table.Table) error) error {
	return h.do(ctx, e, func(t *table.Table) error {
		if err := fn(t); err != nil {
			return err
		}
		t.Touch(h.clock.Now())
		return nil
	})
}

func (h *Hub) bind(connID, tableID, userID string) {
	h.mu.Lock()
	h.connTable[connID] = tableID
	h.connUser[connID] = userID
	_, bot := h.agents[connID]
	h.mu.Unlock()
	if !bot {
		h.transport.JoinGroup(connID, tableID)
	}
}

func (h *Hub) unbind(connID, tableID string) {
	h.mu.Lock()
	if h.connTable[connID] != tableID {
		h.mu.Unlock()
		return
	}
	delete(h.connTable, connID)
	delete(h.connUser, connID)
	agent := h.agents[connID]
	delete(h.agents, connID)
	h.mu.Unlock()

	if agent != nil {
		agent.Stop()
		return
	}
	h.transport.LeaveGroup(connID, tableID)
}

func (h *Hub) agent(connID string) Agent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agents[connID]
}

// sendTo addresses one connection, routing bot seats to their agent.
func (h *Hub) sendTo(connID, event string, payload any) {
	if a := h.agent(connID); a != nil {
		a.Deliver(event, payload)
		return
	}
	h.transport.SendTo(connID, event, payload)
}

// emit broadcasts to the table's group and to any bots seated there.
func (h *Hub) emit(t *table.Table, event string, payload any) {
	h.transport.Broadcast(t.ID, event, payload)
	for _, p := range t.OrderedPlayers() {
		if p.Bot {
			if a := h.agent(p.ConnID); a != nil {
				a.Deliver(event, payload)
			}
		}
	}
}

func (h *Hub) controller(t *table.Table) (variant.Controller, error) {
	c, ok := h.variants.Lookup(t.Variant.ID)
	if !ok {
		return nil, table.ErrUnknownVariant
	}
	return c, nil
}
