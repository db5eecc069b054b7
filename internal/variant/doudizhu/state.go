package doudizhu

import (
	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

const (
	BottomSize = 3
	MaxBid     = 3
)

// State is the Dou Dizhu slice of a table. Each sub-state is set once its phase is
// reached and the whole value is dropped when the table resets.
type State struct {
	Bottom       []cards.Card
	Revealed     []cards.Card // bottom cards as shown to everyone after bidding
	Bidding      *BiddingState
	LandlordSeat string
	CallScore    int
	Doubling     *DoublingState
	Play         *PlayState
	Redeals      int
}

func (*State) Variant() table.VariantID { return table.VariantDouDizhu }

type BiddingState struct {
	CurrentSeat       string
	StartingSeat      string
	HighestBid        int
	HighestBidder     string
	BidsTaken         int
	ConsecutivePasses int
	Finished          bool
	RedealRequired    bool
}

type DoublingState struct {
	Order             []string
	TurnIndex         int
	Doubled           map[string]bool
	LandlordRedoubled bool
	Finished          bool
}

func (d *DoublingState) CurrentSeat() string {
	if d.TurnIndex >= len(d.Order) {
		return ""
	}
	return d.Order[d.TurnIndex]
}

type PlayState struct {
	CurrentSeat    string
	Trick          rules.TrickState
	TrickCombos    map[string]rules.Combo
	PlayedCounts   map[string]int
	FirstComboSeat string
	BombCount      int
	RocketCount    int
	Finished       bool
}

// StateOf returns the table's Dou Dizhu state, or nil if another variant (or none) owns it.
func StateOf(t *table.Table) *State {
	st, _ := t.State.(*State)
	return st
}
