package table

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/clock"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
)

const (
	ReasonCompleted  = "completed"
	ReasonPlayerLeft = "player-left"
)

type VariantID string

const (
	VariantClassic  VariantID = "classic"
	VariantDouDizhu VariantID = "dou-dizhu"
)

// Descriptor is the static shape of a variant: deck and capacity rules.
type Descriptor struct {
	ID              VariantID
	Name            string
	DefaultCapacity int
	MinCapacity     int
	MaxCapacity     int
	CapacityLocked  bool
	Jokers          bool
}

func (d Descriptor) DeckSize() int {
	if d.Jokers {
		return cards.WithJokersSize
	}
	return cards.StandardSize
}

func (d Descriptor) Clamp(capacity int) int {
	return max(d.MinCapacity, min(d.MaxCapacity, capacity))
}

// Scheduler runs fn after d on the goroutine that owns the table.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) clock.Timer
}

// VariantState is the slice of table state owned by the active variant controller.
type VariantState interface {
	Variant() VariantID
}

type Player struct {
	SeatID      string
	UserID      string
	DisplayName string
	ConnID      string
	Hand        []cards.Card
	Connected   bool
	Bot         bool
}

type DealingProgress struct {
	Timer      clock.Timer
	Rotation   int
	TraceID    string
	LastSeatID string
}

type PendingDisconnect struct {
	ConnID string
	Timer  clock.Timer
}

// Table is one game room. It is only touched from the goroutine driving Sched.
type Table struct {
	ID       string
	Variant  Descriptor
	Capacity int
	HostID   string

	Seats   []string
	Players map[string]*Player

	DrawPile []cards.Card
	Phase    engine.Phase
	Dealing  *DealingProgress

	Ready              map[string]bool
	PendingDisconnects map[string]*PendingDisconnect

	State      VariantState
	LastResult *GameResult

	CreatedAt  time.Time
	LastActive time.Time

	Sched   Scheduler
	seatSeq int
}

func New(id string, d Descriptor, capacity int, sched Scheduler, now time.Time) *Table {
	t := &Table{
		ID:                 id,
		Variant:            d,
		Capacity:           capacity,
		Players:            make(map[string]*Player),
		Phase:              engine.Idle(),
		Ready:              make(map[string]bool),
		PendingDisconnects: make(map[string]*PendingDisconnect),
		CreatedAt:          now,
		LastActive:         now,
		Sched:              sched,
	}
	t.DrawPile = cards.NewDeck(d.Jokers)
	return t
}

// HasStarted is derived from the phase so it can never disagree with it.
func (t *Table) HasStarted() bool { return t.Phase.Started() }

func (t *Table) IsFull() bool { return len(t.Seats) >= t.Capacity }

func (t *Table) Touch(now time.Time) { t.LastActive = now }

// Seat adds a player in the next free seat. Callers check capacity first.
func (t *Table) Seat(userID, displayName, connID string) *Player {
	t.seatSeq++
	p := &Player{
		SeatID:      fmt.Sprintf("seat-%d", t.seatSeq),
		UserID:      userID,
		DisplayName: displayName,
		ConnID:      connID,
		Connected:   true,
	}
	t.Seats = append(t.Seats, p.SeatID)
	t.Players[p.SeatID] = p
	return p
}

// Unseat removes a seat and returns the index it occupied, or -1.
func (t *Table) Unseat(seatID string) int {
	idx := t.SeatIndex(seatID)
	if idx < 0 {
		return -1
	}
	t.Seats = append(t.Seats[:idx:idx], t.Seats[idx+1:]...)
	delete(t.Players, seatID)
	return idx
}

func (t *Table) SeatIndex(seatID string) int {
	for i, s := range t.Seats {
		if s == seatID {
			return i
		}
	}
	return -1
}

// NextSeatOf returns the seat after seatID in occupancy order, wrapping around.
func (t *Table) NextSeatOf(seatID string) string {
	idx := t.SeatIndex(seatID)
	if idx < 0 || len(t.Seats) == 0 {
		return ""
	}
	return t.Seats[(idx+1)%len(t.Seats)]
}

func (t *Table) PlayerByUser(userID string) *Player {
	for _, s := range t.Seats {
		if p := t.Players[s]; p.UserID == userID {
			return p
		}
	}
	return nil
}

func (t *Table) PlayerByConn(connID string) *Player {
	for _, s := range t.Seats {
		if p := t.Players[s]; p.ConnID == connID {
			return p
		}
	}
	return nil
}

// OrderedPlayers returns players in seat order.
func (t *Table) OrderedPlayers() []*Player {
	out := make([]*Player, 0, len(t.Seats))
	for _, s := range t.Seats {
		out = append(out, t.Players[s])
	}
	return out
}

// Redeck discards every hand and refills the draw pile with a fresh ordered deck.
func (t *Table) Redeck() {
	for _, p := range t.Players {
		p.Hand = nil
	}
	t.DrawPile = cards.NewDeck(t.Variant.Jokers)
}

// Draw pops the top card of the pile.
func (t *Table) Draw() (cards.Card, bool) {
	if len(t.DrawPile) == 0 {
		return cards.Card{}, false
	}
	c := t.DrawPile[0]
	t.DrawPile = t.DrawPile[1:]
	return c, true
}

func (t *Table) CardsInHands() int {
	n := 0
	for _, p := range t.Players {
		n += len(p.Hand)
	}
	return n
}
