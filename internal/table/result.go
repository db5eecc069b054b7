package table

type Side string

const (
	SideLandlord Side = "LANDLORD"
	SideFarmers  Side = "FARMERS"
)

type PlayerScore struct {
	SeatID   string
	UserID   string
	Landlord bool
	Doubled  bool
	Exponent int
	Score    int
}

// GameResult is computed once when a round is won and never mutated afterwards.
type GameResult struct {
	Winner            Side
	WinnerUserIDs     []string
	CallScore         int
	BombCount         int
	RocketCount       int
	Spring            bool
	LandlordRedoubled bool
	Scores            []PlayerScore
}

// Total is the sum of all scores; zero for a well-formed result.
func (r *GameResult) Total() int {
	n := 0
	for _, s := range r.Scores {
		n += s.Score
	}
	return n
}
