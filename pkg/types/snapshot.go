package types

import "time"

type Card struct {
	ID    int    `json:"id"`
	Rank  int    `json:"rank"`
	Suit  string `json:"suit"`
	Label string `json:"label"`
}

type Seat struct {
	SeatID      string `json:"seatId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Ready       bool   `json:"ready"`
	Connected   bool   `json:"connected"`
	Host        bool   `json:"host"`
	Bot         bool   `json:"bot,omitempty"`
}

// TableState is the lightweight snapshot broadcast after every membership or phase change.
type TableState struct {
	TableID    string      `json:"tableId"`
	Variant    string      `json:"variant"`
	Capacity   int         `json:"capacity"`
	HostID     string      `json:"hostId"`
	HasStarted bool        `json:"hasStarted"`
	Phase      string      `json:"phase"`
	TraceID    string      `json:"traceId,omitempty"`
	Status     string      `json:"status"`
	Seats      []Seat      `json:"seats"`
	LastResult *GameResult `json:"lastResult,omitempty"`
}

type SeatHand struct {
	SeatID      string `json:"seatId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	HandCount   int    `json:"handCount"`
	Connected   bool   `json:"connected"`
}

type Combo struct {
	Type  string `json:"type"`
	Cards []Card `json:"cards"`
}

type Bidding struct {
	CurrentSeatID       string `json:"currentSeatId"`
	StartingSeatID      string `json:"startingSeatId"`
	HighestBid          int    `json:"highestBid"`
	HighestBidderSeatID string `json:"highestBidderSeatId,omitempty"`
	BidsTaken           int    `json:"bidsTaken"`
	ConsecutivePasses   int    `json:"consecutivePasses"`
	Finished            bool   `json:"finished"`
	RedealRequired      bool   `json:"redealRequired"`
}

type Doubling struct {
	Order             []string        `json:"order"`
	TurnIndex         int             `json:"turnIndex"`
	Doubled           map[string]bool `json:"doubled"`
	LandlordRedoubled bool            `json:"landlordRedoubled"`
	Finished          bool            `json:"finished"`
}

type Play struct {
	LastCombo       *Combo           `json:"lastCombo,omitempty"`
	LastComboSeatID string           `json:"lastComboSeatId,omitempty"`
	Passes          int              `json:"passes"`
	TrickCombos     map[string]Combo `json:"trickCombos"`
	BombCount       int              `json:"bombCount"`
	RocketCount     int              `json:"rocketCount"`
}

// GameSnapshot is sent per connection; YourHand only ever carries the recipient's cards.
type GameSnapshot struct {
	TableID           string     `json:"tableId"`
	Variant           string     `json:"variant"`
	Phase             string     `json:"phase"`
	TraceID           string     `json:"traceId,omitempty"`
	Seats             []SeatHand `json:"seats"`
	CurrentTurnSeatID string     `json:"currentTurnSeatId,omitempty"`
	DrawPileCount     int        `json:"drawPileCount"`
	YourSeatID        string     `json:"yourSeatId,omitempty"`
	YourHand          []Card     `json:"yourHand"`

	LandlordSeatID string    `json:"landlordSeatId,omitempty"`
	CallScore      int       `json:"callScore,omitempty"`
	BottomCards    []Card    `json:"bottomCards,omitempty"`
	BottomCount    int       `json:"bottomCount,omitempty"`
	Bidding        *Bidding  `json:"bidding,omitempty"`
	Doubling       *Doubling `json:"doubling,omitempty"`
	Play           *Play     `json:"play,omitempty"`
}

type PlayerScore struct {
	SeatID   string `json:"seatId"`
	UserID   string `json:"userId"`
	Landlord bool   `json:"landlord"`
	Doubled  bool   `json:"doubled"`
	Exponent int    `json:"exponent"`
	Score    int    `json:"score"`
}

type GameResult struct {
	Winner            string        `json:"winner"`
	WinnerUserIDs     []string      `json:"winnerUserIds"`
	CallScore         int           `json:"callScore"`
	BombCount         int           `json:"bombCount"`
	RocketCount       int           `json:"rocketCount"`
	Spring            bool          `json:"spring"`
	LandlordRedoubled bool          `json:"landlordRedoubled"`
	Scores            []PlayerScore `json:"scores"`
}

type GameEnded struct {
	TableID string      `json:"tableId"`
	Reason  string      `json:"reason"`
	Result  *GameResult `json:"result,omitempty"`
}

type CardDealt struct {
	TableID string `json:"tableId"`
	SeatID  string `json:"seatId"`
	Card    Card   `json:"card"`
}

type TableClosed struct {
	TableID string `json:"tableId"`
	Reason  string `json:"reason"`
}

// RoomSummary is the lobby-facing projection of a table.
type RoomSummary struct {
	TableID     string    `json:"tableId"`
	Variant     string    `json:"variant"`
	HostName    string    `json:"hostName,omitempty"`
	PlayerCount int       `json:"playerCount"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
