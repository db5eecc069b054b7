package cards

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var ErrCardNotInHand = errors.New("card not in hand")
var ErrDuplicateCard = errors.New("duplicate card")

type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Joker    Suit = "JK"
)

// Rank orders cards for Dou Dizhu: 3 is lowest, then ... K, A, 2, black joker, red joker.
type Rank int

const (
	Three Rank = iota + 3
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Two
	BlackJoker
	RedJoker
)

type Card struct {
	ID     int  `json:"id"`
	Rank   Rank `json:"rank"`
	Suit   Suit `json:"suit"`
	FaceUp bool `json:"faceUp"`
}

var rankLabels = map[Rank]string{
	Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7", Eight: "8", Nine: "9", Ten: "10",
	Jack: "J", Queen: "Q", King: "K", Ace: "A", Two: "2", BlackJoker: "BJ", RedJoker: "RJ",
}

func (r Rank) String() string {
	if l, ok := rankLabels[r]; ok {
		return l
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

func (c Card) String() string {
	if c.Suit == Joker {
		return c.Rank.String()
	}
	return c.Rank.String() + string(c.Suit)
}

const StandardSize = 52
const WithJokersSize = 54

// NewDeck produces an ordered deck; ids are stable positions in the unshuffled deck.
func NewDeck(jokers bool) []Card {
	suits := []Suit{Spades, Hearts, Clubs, Diamonds}
	deck := make([]Card, 0, WithJokersSize)
	id := 0
	for r := Three; r <= Two; r++ {
		for _, s := range suits {
			deck = append(deck, Card{ID: id, Rank: r, Suit: s})
			id++
		}
	}
	if jokers {
		deck = append(deck,
			Card{ID: id, Rank: BlackJoker, Suit: Joker},
			Card{ID: id + 1, Rank: RedJoker, Suit: Joker},
		)
	}
	return deck
}

// Shuffle permutes the deck in place.
func Shuffle(deck []Card) {
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Sort orders cards by rank, then id.
func Sort(cs []Card) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Rank != cs[j].Rank {
			return cs[i].Rank < cs[j].Rank
		}
		return cs[i].ID < cs[j].ID
	})
}

// Extract removes the cards with the given ids from hand. The hand is left untouched on error.
func Extract(hand []Card, ids []int) (picked []Card, rest []Card, err error) {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, hand, fmt.Errorf("%w: %d", ErrDuplicateCard, id)
		}
		seen[id] = true
	}

	rest = make([]Card, 0, len(hand))
	for _, c := range hand {
		if seen[c.ID] {
			picked = append(picked, c)
			continue
		}
		rest = append(rest, c)
	}
	if len(picked) != len(ids) {
		return nil, hand, ErrCardNotInHand
	}
	return picked, rest, nil
}

// Counts groups cards by rank.
func Counts(cs []Card) map[Rank]int {
	out := make(map[Rank]int, len(cs))
	for _, c := range cs {
		out[c.Rank]++
	}
	return out
}
