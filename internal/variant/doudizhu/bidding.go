package doudizhu

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

func (c *Controller) HandleBid(t *table.Table, seatID string, bid int) error {
	st := StateOf(t)
	if !t.Phase.Is(engine.KindBidding) || st == nil || st.Bidding == nil || st.Bidding.Finished {
		return table.ErrWrongPhase
	}
	if t.Players[seatID] == nil {
		return table.ErrNotAtTable
	}
	b := st.Bidding
	if b.CurrentSeat != seatID {
		return table.ErrNotYourTurn
	}
	if bid < 0 || bid > MaxBid || (bid > 0 && bid <= b.HighestBid) {
		return table.ErrInvalidBid
	}

	b.BidsTaken = min(b.BidsTaken+1, len(t.Seats))
	if bid == 0 {
		b.ConsecutivePasses++
	} else {
		b.HighestBid = bid
		b.HighestBidder = seatID
		b.ConsecutivePasses = 0
	}

	allBid := b.BidsTaken >= len(t.Seats)
	stop := bid == MaxBid ||
		(allBid && b.HighestBidder != "" && b.ConsecutivePasses >= 2) ||
		(allBid && b.HighestBidder == "")
	if !stop {
		b.CurrentSeat = t.NextSeatOf(seatID)
		c.host.Snapshot(t)
		return nil
	}

	b.Finished = true
	if b.HighestBidder == "" {
		b.RedealRequired = true
		c.log.Info("all seats passed, redealing",
			zap.String("table_id", t.ID),
			zap.String("trace_id", t.Phase.TraceID))
		c.Start(t)
		c.host.Snapshot(t)
		return nil
	}

	c.assignLandlord(t, st, b.HighestBidder)
	return nil
}

// assignLandlord gives the bottom to the winning bidder and opens doubling with the
// defenders first, in seat order after the landlord, and the landlord last.
func (c *Controller) assignLandlord(t *table.Table, st *State, seatID string) {
	landlord := t.Players[seatID]
	landlord.Hand = append(landlord.Hand, st.Bottom...)
	st.Revealed = st.Bottom
	st.Bottom = nil
	st.LandlordSeat = seatID
	st.CallScore = st.Bidding.HighestBid

	order := make([]string, 0, len(t.Seats))
	for s := t.NextSeatOf(seatID); s != seatID && s != ""; s = t.NextSeatOf(s) {
		order = append(order, s)
	}
	order = append(order, seatID)
	st.Doubling = &DoublingState{Order: order, Doubled: make(map[string]bool, len(order)-1)}

	t.Phase = engine.Apply(t.Phase, engine.StartDoubling("landlord chosen"))
	c.log.Info("landlord chosen",
		zap.String("table_id", t.ID),
		zap.String("trace_id", t.Phase.TraceID),
		zap.String("seat_id", seatID),
		zap.Int("call_score", st.CallScore))
	c.host.Snapshot(t)
}

func (c *Controller) HandleDouble(t *table.Table, seatID string, double bool) error {
	st := StateOf(t)
	if !t.Phase.Is(engine.KindDoubling) || st == nil || st.Doubling == nil || st.Doubling.Finished {
		return table.ErrWrongPhase
	}
	if t.Players[seatID] == nil {
		return table.ErrNotAtTable
	}
	d := st.Doubling
	if d.CurrentSeat() != seatID {
		return table.ErrNotYourTurn
	}

	if seatID == st.LandlordSeat {
		d.LandlordRedoubled = double
	} else {
		d.Doubled[seatID] = double
	}
	d.TurnIndex++

	if d.TurnIndex >= len(d.Order) {
		d.Finished = true
		c.startPlayingPhase(t, st)
		return nil
	}
	c.host.Snapshot(t)
	return nil
}
