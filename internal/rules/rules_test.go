package rules

import (
	"testing"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hand builds cards from ranks; suits rotate so equal ranks stay distinct.
func hand(ranks ...cards.Rank) []cards.Card {
	suits := []cards.Suit{cards.Spades, cards.Hearts, cards.Clubs, cards.Diamonds}
	seen := map[cards.Rank]int{}
	out := make([]cards.Card, 0, len(ranks))
	for i, r := range ranks {
		s := suits[seen[r]%4]
		if r >= cards.BlackJoker {
			s = cards.Joker
		}
		seen[r]++
		out = append(out, cards.Card{ID: i, Rank: r, Suit: s})
	}
	return out
}

const (
	c3 = cards.Three
	c4 = cards.Four
	c5 = cards.Five
	c6 = cards.Six
	c7 = cards.Seven
	c8 = cards.Eight
	cK = cards.King
	cA = cards.Ace
	c2 = cards.Two
	bj = cards.BlackJoker
	rj = cards.RedJoker
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		cards []cards.Card
		want  ComboType
		rank  cards.Rank
		ok    bool
	}{
		{name: "single", cards: hand(c7), want: Single, rank: c7, ok: true},
		{name: "pair", cards: hand(c5, c5), want: Pair, rank: c5, ok: true},
		{name: "mixed pair", cards: hand(c5, c6), ok: false},
		{name: "rocket", cards: hand(bj, rj), want: Rocket, rank: rj, ok: true},
		{name: "triple", cards: hand(cK, cK, cK), want: Triple, rank: cK, ok: true},
		{name: "triple with single", cards: hand(c8, c8, c8, c3), want: TripleSingle, rank: c8, ok: true},
		{name: "bomb", cards: hand(c4, c4, c4, c4), want: Bomb, rank: c4, ok: true},
		{name: "triple with pair", cards: hand(c8, c8, c8, c3, c3), want: TriplePair, rank: c8, ok: true},
		{name: "straight", cards: hand(c3, c4, c5, c6, c7), want: Straight, rank: c7, ok: true},
		{name: "straight through two", cards: hand(cards.Jack, cards.Queen, cK, cA, c2), ok: false},
		{name: "short straight", cards: hand(c3, c4, c5, c6), ok: false},
		{name: "pair straight", cards: hand(c3, c3, c4, c4, c5, c5), want: PairStraight, rank: c5, ok: true},
		{name: "airplane", cards: hand(c3, c3, c3, c4, c4, c4), want: Airplane, rank: c4, ok: true},
		{name: "airplane with singles", cards: hand(c5, c5, c5, c6, c6, c6, c3, cK), want: AirplaneSingles, rank: c6, ok: true},
		{name: "airplane with pairs", cards: hand(c5, c5, c5, c6, c6, c6, c3, c3, cK, cK), want: AirplanePairs, rank: c6, ok: true},
		{name: "four with two singles", cards: hand(c7, c7, c7, c7, c3, c4), want: FourTwoSingles, rank: c7, ok: true},
		{name: "four with two pairs", cards: hand(c7, c7, c7, c7, c3, c3, c4, c4), want: FourTwoPairs, rank: c7, ok: true},
		{name: "empty", cards: nil, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			combo, ok := Classify(tc.cards)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.want, combo.Type)
			assert.Equal(t, tc.rank, combo.Rank)
		})
	}
}

func mustClassify(t *testing.T, cs []cards.Card) Combo {
	t.Helper()
	c, ok := Classify(cs)
	require.True(t, ok, "expected %v to classify", cs)
	return c
}

func TestBeats(t *testing.T) {
	pair5 := mustClassify(t, hand(c5, c5))
	pair7 := mustClassify(t, hand(c7, c7))
	single2 := mustClassify(t, hand(c2))
	bomb3 := mustClassify(t, hand(c3, c3, c3, c3))
	bomb4 := mustClassify(t, hand(c4, c4, c4, c4))
	rocket := mustClassify(t, hand(bj, rj))
	straight5 := mustClassify(t, hand(c3, c4, c5, c6, c7))
	straight6 := mustClassify(t, hand(c4, c5, c6, c7, c8, cards.Nine))

	cases := []struct {
		name      string
		candidate Combo
		previous  Combo
		want      bool
	}{
		{name: "higher pair", candidate: pair7, previous: pair5, want: true},
		{name: "lower pair", candidate: pair5, previous: pair7, want: false},
		{name: "type mismatch", candidate: single2, previous: pair5, want: false},
		{name: "bomb over pair", candidate: bomb3, previous: pair7, want: true},
		{name: "higher bomb", candidate: bomb4, previous: bomb3, want: true},
		{name: "lower bomb", candidate: bomb3, previous: bomb4, want: false},
		{name: "rocket over bomb", candidate: rocket, previous: bomb4, want: true},
		{name: "bomb under rocket", candidate: bomb4, previous: rocket, want: false},
		{name: "straight length mismatch", candidate: straight6, previous: straight5, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Beats(tc.candidate, tc.previous))
		})
	}
}

func TestValidateLeadAndFollow(t *testing.T) {
	v := ValidateLead(nil)
	assert.False(t, v.OK)
	assert.Equal(t, ReasonMustLead, v.Reason)

	v = ValidateLead(hand(c3, c5))
	assert.False(t, v.OK)
	assert.Equal(t, ReasonInvalidCombo, v.Reason)

	prev := mustClassify(t, hand(c8))
	v = ValidateFollow(nil, prev)
	require.True(t, v.OK)
	assert.True(t, v.Combo.IsPass())

	v = ValidateFollow(hand(c4), prev)
	assert.False(t, v.OK)
	assert.Equal(t, ReasonCannotBeat, v.Reason)

	v = ValidateFollow(hand(cK), prev)
	assert.True(t, v.OK)
}

func TestAdvanceTrick(t *testing.T) {
	order := []string{"a", "b", "c"}
	next := func(id string) string {
		for i, s := range order {
			if s == id {
				return order[(i+1)%len(order)]
			}
		}
		return ""
	}
	lead := mustClassify(t, hand(c5))
	pass := Combo{Type: Pass}

	out := AdvanceTrick(TrickInput{Combo: lead, SeatID: "a", NextSeatOf: next})
	require.True(t, out.OK)
	assert.Equal(t, "b", out.NextSeatID)
	assert.False(t, out.TrickEnded)

	out = AdvanceTrick(TrickInput{Combo: pass, SeatID: "b", State: out.State, NextSeatOf: next})
	require.True(t, out.OK)
	assert.Equal(t, "c", out.NextSeatID)
	assert.Equal(t, 1, out.State.Passes)

	out = AdvanceTrick(TrickInput{Combo: pass, SeatID: "c", State: out.State, NextSeatOf: next})
	require.True(t, out.OK)
	assert.True(t, out.TrickEnded)
	assert.Equal(t, "a", out.NextSeatID)
	assert.Nil(t, out.State.LastCombo)

	out = AdvanceTrick(TrickInput{Combo: pass, SeatID: "a", NextSeatOf: next})
	assert.False(t, out.OK)
	assert.Equal(t, ReasonNothingToPass, out.Reason)
}
