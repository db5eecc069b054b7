package rules

import (
	"sort"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
)

// ComboType represents the shape of a played group of cards.
type ComboType string

const (
	Pass            ComboType = "pass"
	Single          ComboType = "single"
	Pair            ComboType = "pair"
	Triple          ComboType = "triple"
	TripleSingle    ComboType = "triple_single"
	TriplePair      ComboType = "triple_pair"
	Straight        ComboType = "straight"         // 5+ consecutive singles, 3..A
	PairStraight    ComboType = "pair_straight"    // 3+ consecutive pairs, 3..A
	Airplane        ComboType = "airplane"         // 2+ consecutive triples
	AirplaneSingles ComboType = "airplane_singles"
	AirplanePairs   ComboType = "airplane_pairs"
	FourTwoSingles  ComboType = "four_two_singles"
	FourTwoPairs    ComboType = "four_two_pairs"
	Bomb            ComboType = "bomb"
	Rocket          ComboType = "rocket"
)

// Combo is a classified play. Rank is the deciding rank (the run's highest rank for
// sequences, the triple or quad rank for kicker shapes); Length counts sequence units.
type Combo struct {
	Type   ComboType    `json:"type"`
	Cards  []cards.Card `json:"cards"`
	Rank   cards.Rank   `json:"rank"`
	Length int          `json:"length"`
}

func (c Combo) IsPass() bool { return c.Type == Pass }

// Classify identifies the combo formed by cs. Empty input is not a combo.
func Classify(cs []cards.Card) (Combo, bool) {
	n := len(cs)
	if n == 0 {
		return Combo{}, false
	}
	sorted := append([]cards.Card(nil), cs...)
	cards.Sort(sorted)
	counts := cards.Counts(sorted)
	combo := func(t ComboType, r cards.Rank, length int) (Combo, bool) {
		return Combo{Type: t, Cards: sorted, Rank: r, Length: length}, true
	}

	switch n {
	case 1:
		return combo(Single, sorted[0].Rank, 1)
	case 2:
		if counts[cards.BlackJoker] == 1 && counts[cards.RedJoker] == 1 {
			return combo(Rocket, cards.RedJoker, 1)
		}
		if len(counts) == 1 {
			return combo(Pair, sorted[0].Rank, 1)
		}
		return Combo{}, false
	case 3:
		if len(counts) == 1 {
			return combo(Triple, sorted[0].Rank, 1)
		}
		return Combo{}, false
	case 4:
		if len(counts) == 1 {
			return combo(Bomb, sorted[0].Rank, 1)
		}
		if r, ok := rankWithCount(counts, 3); ok {
			return combo(TripleSingle, r, 1)
		}
		return Combo{}, false
	}

	if r, ok := rankWithCount(counts, 3); ok && n == 5 && len(counts) == 2 {
		return combo(TriplePair, r, 1)
	}
	if r, ok := rankWithCount(counts, 4); ok {
		if n == 6 {
			return combo(FourTwoSingles, r, 1)
		}
		if n == 8 && len(counts) == 3 && allCounts(counts, r, 2) {
			return combo(FourTwoPairs, r, 1)
		}
	}
	if top, ok := sequence(counts, 1, 5); ok {
		return combo(Straight, top, n)
	}
	if top, ok := sequence(counts, 2, 3); ok {
		return combo(PairStraight, top, n/2)
	}
	if top, ok := sequence(counts, 3, 2); ok {
		return combo(Airplane, top, n/3)
	}
	if n%4 == 0 {
		if top, ok := airplaneWithWings(counts, n/4, 1); ok {
			return combo(AirplaneSingles, top, n/4)
		}
	}
	if n%5 == 0 {
		if top, ok := airplaneWithWings(counts, n/5, 2); ok {
			return combo(AirplanePairs, top, n/5)
		}
	}
	return Combo{}, false
}

func rankWithCount(counts map[cards.Rank]int, want int) (cards.Rank, bool) {
	for r, c := range counts {
		if c == want {
			return r, true
		}
	}
	return 0, false
}

func allCounts(counts map[cards.Rank]int, except cards.Rank, want int) bool {
	for r, c := range counts {
		if r != except && c != want {
			return false
		}
	}
	return true
}

// sequence reports whether every rank appears exactly width times and the ranks form
// a consecutive run of at least minLen, topping out at Ace.
func sequence(counts map[cards.Rank]int, width, minLen int) (cards.Rank, bool) {
	if len(counts) < minLen {
		return 0, false
	}
	ranks := make([]cards.Rank, 0, len(counts))
	for r, c := range counts {
		if c != width {
			return 0, false
		}
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	if ranks[len(ranks)-1] > cards.Ace {
		return 0, false
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return 0, false
		}
	}
	return ranks[len(ranks)-1], true
}

// airplaneWithWings looks for k consecutive triples (k >= 2) whose leftover cards form
// k singles (wing == 1) or k pairs (wing == 2). The highest qualifying run wins.
func airplaneWithWings(counts map[cards.Rank]int, k, wing int) (cards.Rank, bool) {
	if k < 2 {
		return 0, false
	}
	for top := cards.Ace; top-cards.Rank(k-1) >= cards.Three; top-- {
		ok := true
		for r := top - cards.Rank(k-1); r <= top; r++ {
			if counts[r] < 3 {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		left := make(map[cards.Rank]int, len(counts))
		for r, c := range counts {
			left[r] = c
		}
		for r := top - cards.Rank(k-1); r <= top; r++ {
			left[r] -= 3
		}
		if wingsFit(left, k, wing) {
			return top, true
		}
	}
	return 0, false
}

func wingsFit(left map[cards.Rank]int, k, wing int) bool {
	total := 0
	for _, c := range left {
		if wing == 2 && c%2 != 0 {
			return false
		}
		total += c
	}
	return total == k*wing
}
