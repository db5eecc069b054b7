package doudizhu

import (
	"maps"

	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/variant"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// BuildSnapshot fills in the public Dou Dizhu fields. The bottom stays face down until a
// landlord takes it.
func (c *Controller) BuildSnapshot(t *table.Table, snap *types.GameSnapshot) {
	st := StateOf(t)
	if st == nil {
		return
	}
	snap.LandlordSeatID = st.LandlordSeat
	snap.CallScore = st.CallScore
	snap.BottomCount = len(st.Bottom)
	if st.LandlordSeat != "" {
		snap.BottomCards = variant.CardViews(st.Revealed)
	}

	if b := st.Bidding; b != nil {
		snap.Bidding = &types.Bidding{
			CurrentSeatID:       b.CurrentSeat,
			StartingSeatID:      b.StartingSeat,
			HighestBid:          b.HighestBid,
			HighestBidderSeatID: b.HighestBidder,
			BidsTaken:           b.BidsTaken,
			ConsecutivePasses:   b.ConsecutivePasses,
			Finished:            b.Finished,
			RedealRequired:      b.RedealRequired,
		}
	}

	if d := st.Doubling; d != nil {
		snap.Doubling = &types.Doubling{
			Order:             append([]string(nil), d.Order...),
			TurnIndex:         d.TurnIndex,
			Doubled:           maps.Clone(d.Doubled),
			LandlordRedoubled: d.LandlordRedoubled,
			Finished:          d.Finished,
		}
	}

	if pl := st.Play; pl != nil {
		view := &types.Play{
			LastComboSeatID: pl.Trick.LastSeatID,
			Passes:          pl.Trick.Passes,
			TrickCombos:     make(map[string]types.Combo, len(pl.TrickCombos)),
			BombCount:       pl.BombCount,
			RocketCount:     pl.RocketCount,
		}
		if pl.Trick.LastCombo != nil {
			last := variant.ComboView(*pl.Trick.LastCombo)
			view.LastCombo = &last
		}
		for seatID, combo := range pl.TrickCombos {
			view.TrickCombos[seatID] = variant.ComboView(combo)
		}
		snap.Play = view
	}
}
