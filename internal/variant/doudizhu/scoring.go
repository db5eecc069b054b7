package doudizhu

import "github.com/DoyleJ11/card-table-backend/internal/table"

// ComputeScoreBreakdown settles a round won by winnerSeat. Every defender is scored on
// its own exponent and the landlord takes the negated sum, so the scores total zero.
func ComputeScoreBreakdown(t *table.Table, st *State, winnerSeat string) *table.GameResult {
	landlordWon := winnerSeat == st.LandlordSeat

	var bombs, rockets int
	var redoubled bool
	doubled := map[string]bool{}
	if st.Play != nil {
		bombs, rockets = st.Play.BombCount, st.Play.RocketCount
	}
	if st.Doubling != nil {
		redoubled = st.Doubling.LandlordRedoubled
		doubled = st.Doubling.Doubled
	}
	spring := isSpring(t, st, landlordWon)

	res := &table.GameResult{
		CallScore:         st.CallScore,
		BombCount:         bombs,
		RocketCount:       rockets,
		Spring:            spring,
		LandlordRedoubled: redoubled,
	}
	winFactor := 1
	res.Winner = table.SideFarmers
	if landlordWon {
		winFactor = -1
		res.Winner = table.SideLandlord
	}

	sum := 0
	landlordIdx := -1
	for _, seatID := range t.Seats {
		p := t.Players[seatID]
		if seatID == st.LandlordSeat {
			landlordIdx = len(res.Scores)
			res.Scores = append(res.Scores, table.PlayerScore{SeatID: seatID, UserID: p.UserID, Landlord: true})
			if landlordWon {
				res.WinnerUserIDs = append(res.WinnerUserIDs, p.UserID)
			}
			continue
		}

		exp := bombs + rockets + b2i(spring) + b2i(doubled[seatID]) + b2i(redoubled && doubled[seatID])
		score := st.CallScore * winFactor * (1 << exp)
		sum += score
		res.Scores = append(res.Scores, table.PlayerScore{
			SeatID:   seatID,
			UserID:   p.UserID,
			Doubled:  doubled[seatID],
			Exponent: exp,
			Score:    score,
		})
		if !landlordWon {
			res.WinnerUserIDs = append(res.WinnerUserIDs, p.UserID)
		}
	}
	if landlordIdx >= 0 {
		res.Scores[landlordIdx].Score = -sum
	}
	return res
}

// isSpring: the landlord went out before any defender played, or the defenders went out
// after the landlord's opening lead was its only play.
func isSpring(t *table.Table, st *State, landlordWon bool) bool {
	if st.Play == nil {
		return false
	}
	if landlordWon {
		for _, seatID := range t.Seats {
			if seatID != st.LandlordSeat && st.Play.PlayedCounts[seatID] > 0 {
				return false
			}
		}
		return true
	}
	return st.Play.PlayedCounts[st.LandlordSeat] == 1 && st.Play.FirstComboSeat == st.LandlordSeat
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
