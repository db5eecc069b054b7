package bot

import (
	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Move is a trick-play decision. Pass leaves Cards empty.
type Move struct {
	Pass  bool
	Cards []cards.Card
}

func (m Move) IDs() []int {
	ids := make([]int, 0, len(m.Cards))
	for _, c := range m.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func fromView(vs []types.Card) []cards.Card {
	out := make([]cards.Card, 0, len(vs))
	for _, v := range vs {
		out = append(out, cards.Card{ID: v.ID, Rank: cards.Rank(v.Rank), Suit: cards.Suit(v.Suit)})
	}
	cards.Sort(out)
	return out
}

// Strength is a rough hand score: jokers, twos and bombs.
func Strength(hand []cards.Card) int {
	n := 0
	for rank, count := range cards.Counts(hand) {
		switch {
		case rank >= cards.BlackJoker:
			n += 2
		case rank == cards.Two:
			n += count
		}
		if count == 4 {
			n += 2
		}
	}
	return n
}

// ChooseBid bids by strength, passing when it cannot outbid the table.
func ChooseBid(hand []cards.Card, highest int) int {
	s := Strength(hand)
	bid := 0
	switch {
	case s >= 7:
		bid = 3
	case s >= 5:
		bid = 2
	case s >= 3:
		bid = 1
	}
	if bid <= highest {
		return 0
	}
	return bid
}

func ChooseDouble(hand []cards.Card) bool { return Strength(hand) >= 5 }

// ChooseMove leads the lowest rank group, or follows with the cheapest combo that beats
// prev. Bombs are only spent against the other side.
func ChooseMove(hand []cards.Card, prev *rules.Combo, partnerLed bool) Move {
	if len(hand) == 0 {
		return Move{Pass: true}
	}
	if whole, ok := rules.Classify(hand); ok && (prev == nil || rules.Beats(whole, *prev)) {
		return Move{Cards: hand}
	}

	groups := groupByRank(hand)
	if prev == nil {
		g := groups[0]
		if len(g) == 4 {
			g = g[:1]
		}
		return Move{Cards: g}
	}
	if partnerLed {
		return Move{Pass: true}
	}

	for _, g := range groups {
		if len(g) < len(prev.Cards) || len(g) == 4 {
			continue
		}
		try := g[:len(prev.Cards)]
		if c, ok := rules.Classify(try); ok && rules.Beats(c, *prev) {
			return Move{Cards: try}
		}
	}
	for _, g := range groups {
		if len(g) == 4 {
			if c, ok := rules.Classify(g); ok && rules.Beats(c, *prev) {
				return Move{Cards: g}
			}
		}
	}
	if rocket := jokers(hand); len(rocket) == 2 {
		if c, ok := rules.Classify(rocket); ok && rules.Beats(c, *prev) {
			return Move{Cards: rocket}
		}
	}
	return Move{Pass: true}
}

// groupByRank splits a sorted hand into runs of equal rank, lowest first.
func groupByRank(hand []cards.Card) [][]cards.Card {
	var out [][]cards.Card
	for i := 0; i < len(hand); {
		j := i
		for j < len(hand) && hand[j].Rank == hand[i].Rank {
			j++
		}
		out = append(out, hand[i:j])
		i = j
	}
	return out
}

func jokers(hand []cards.Card) []cards.Card {
	var out []cards.Card
	for _, c := range hand {
		if c.Rank >= cards.BlackJoker {
			out = append(out, c)
		}
	}
	return out
}
