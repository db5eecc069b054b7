package variant

import (
	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Controller layers one game's rules on top of the phase machine and dealing.
type Controller interface {
	Descriptor() table.Descriptor
	Start(t *table.Table)
}

// Optional capabilities, discovered with a type assertion.
type (
	SnapshotBuilder interface {
		BuildSnapshot(t *table.Table, snap *types.GameSnapshot)
	}
	TurnResolver interface {
		ResolveCurrentTurnSeatID(t *table.Table, lastDealtSeatID string) string
	}
	Bidder interface {
		HandleBid(t *table.Table, seatID string, bid int) error
	}
	Doubler interface {
		HandleDouble(t *table.Table, seatID string, double bool) error
	}
	TrickPlayer interface {
		HandlePlay(t *table.Table, seatID string, cardIDs []int) error
	}
)

// Emitter pushes a fresh game snapshot to every seat.
type Emitter interface {
	Snapshot(t *table.Table)
}

// Shuffler permutes a deck in place. Tests swap in a deterministic one.
type Shuffler func([]cards.Card)

var Classic = table.Descriptor{
	ID:              table.VariantClassic,
	Name:            "Classic",
	DefaultCapacity: 4,
	MinCapacity:     2,
	MaxCapacity:     6,
}

var DouDizhu = table.Descriptor{
	ID:              table.VariantDouDizhu,
	Name:            "Dou Dizhu",
	DefaultCapacity: 3,
	MinCapacity:     3,
	MaxCapacity:     3,
	CapacityLocked:  true,
	Jokers:          true,
}

type Registry map[table.VariantID]Controller

func NewRegistry(cs ...Controller) Registry {
	r := make(Registry, len(cs))
	for _, c := range cs {
		r[c.Descriptor().ID] = c
	}
	return r
}

func (r Registry) Lookup(id table.VariantID) (Controller, bool) {
	c, ok := r[id]
	return c, ok
}

func CardView(c cards.Card) types.Card {
	return types.Card{ID: c.ID, Rank: int(c.Rank), Suit: string(c.Suit), Label: c.String()}
}

func CardViews(cs []cards.Card) []types.Card {
	out := make([]types.Card, 0, len(cs))
	for _, c := range cs {
		out = append(out, CardView(c))
	}
	return out
}

func ComboView(c rules.Combo) types.Combo {
	return types.Combo{Type: string(c.Type), Cards: CardViews(c.Cards)}
}
