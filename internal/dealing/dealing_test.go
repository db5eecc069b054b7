package dealing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/clock"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

type recorder struct {
	dealt     []string
	snapshots int
	onTick    func()
}

func (r *recorder) CardDealt(t *table.Table, seatID string, c cards.Card) {
	r.dealt = append(r.dealt, seatID)
}

func (r *recorder) Snapshot(t *table.Table) {
	r.snapshots++
	if r.onTick != nil {
		r.onTick()
	}
}

func setup(t *testing.T, seats int) (*table.Table, *clock.Fake, *recorder, *Coordinator) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	d := table.Descriptor{ID: table.VariantDouDizhu, MinCapacity: 3, MaxCapacity: 3, Jokers: true}
	tb := table.New("t1", d, seats, fake, fake.Now())
	for i := 0; i < seats; i++ {
		id := string(rune('a' + i))
		tb.Seat("u-"+id, id, "c-"+id)
	}
	tb.Phase = engine.Apply(tb.Phase, engine.StartDealing("trace-1"))
	rec := &recorder{}
	return tb, fake, rec, New(600*time.Millisecond, rec, zap.NewNop())
}

func TestDealsToBottomOfThree(t *testing.T) {
	tb, fake, rec, c := setup(t, 3)
	finished := 0
	rec.onTick = func() {
		assert.Equal(t, 54, len(tb.DrawPile)+tb.CardsInHands(), "conservation")
	}

	c.Start(tb, Hooks{
		StopWhen: func(t *table.Table) bool { return len(t.DrawPile) <= 3 },
		OnFinish: func(t *table.Table) { finished++ },
	})
	require.NotNil(t, tb.Dealing)
	assert.Equal(t, "trace-1", tb.Dealing.TraceID)

	fake.Advance(52 * 600 * time.Millisecond)

	assert.Equal(t, 1, finished)
	assert.Nil(t, tb.Dealing)
	assert.Equal(t, 0, fake.Pending())
	assert.Len(t, tb.DrawPile, 3)
	assert.Equal(t, 51, rec.snapshots)
	for _, p := range tb.OrderedPlayers() {
		assert.Len(t, p.Hand, 17, p.SeatID)
		for _, card := range p.Hand {
			assert.True(t, card.FaceUp)
		}
	}
	// rotation: seats receive cards in occupancy order
	assert.Equal(t, []string{tb.Seats[0], tb.Seats[1], tb.Seats[2], tb.Seats[0]}, rec.dealt[:4])

	fake.Advance(10 * time.Second)
	assert.Equal(t, 1, finished)
}

func TestOneCardPerTick(t *testing.T) {
	tb, fake, rec, c := setup(t, 3)
	c.Start(tb, Hooks{
		StopWhen: func(t *table.Table) bool { return len(t.DrawPile) == 0 },
		OnFinish: func(t *table.Table) {},
	})

	fake.Advance(599 * time.Millisecond)
	assert.Empty(t, rec.dealt)

	fake.Advance(time.Millisecond)
	assert.Len(t, rec.dealt, 1)
	assert.Equal(t, tb.Seats[0], tb.Dealing.LastSeatID)

	fake.Advance(1200 * time.Millisecond)
	assert.Len(t, rec.dealt, 3)
	assert.Equal(t, 1, fake.Pending())
}

func TestStartTwiceKeepsOneTimer(t *testing.T) {
	tb, fake, _, c := setup(t, 3)
	h := Hooks{
		StopWhen: func(t *table.Table) bool { return false },
		OnFinish: func(t *table.Table) {},
	}
	c.Start(tb, h)
	first := tb.Dealing
	c.Start(tb, h)

	assert.NotSame(t, first, tb.Dealing)
	assert.Equal(t, 1, fake.Pending())
}

func TestStopIsIdempotent(t *testing.T) {
	tb, fake, rec, c := setup(t, 3)
	c.Stop(tb)

	c.Start(tb, Hooks{
		StopWhen: func(t *table.Table) bool { return false },
		OnFinish: func(t *table.Table) {},
	})
	c.Stop(tb)
	c.Stop(tb)

	assert.Nil(t, tb.Dealing)
	assert.Equal(t, 0, fake.Pending())
	fake.Advance(5 * time.Second)
	assert.Empty(t, rec.dealt)
}

func TestEmptyTableResetsPhase(t *testing.T) {
	tb, fake, rec, c := setup(t, 3)
	c.Start(tb, Hooks{
		StopWhen: func(t *table.Table) bool { return false },
		OnFinish: func(t *table.Table) { t.Phase = engine.Apply(t.Phase, engine.StartBidding("x")) },
	})
	for _, s := range append([]string(nil), tb.Seats...) {
		tb.Unseat(s)
	}

	fake.Advance(600 * time.Millisecond)
	assert.Equal(t, engine.KindIdle, tb.Phase.Kind)
	assert.Nil(t, tb.Dealing)
	assert.Empty(t, rec.dealt)
}

func TestStaleTickIsDropped(t *testing.T) {
	tb, _, rec, c := setup(t, 3)
	h := Hooks{
		StopWhen: func(t *table.Table) bool { return false },
		OnFinish: func(t *table.Table) {},
	}
	stale := &table.DealingProgress{}
	c.Start(tb, h)

	c.tick(tb, stale, h)
	assert.Empty(t, rec.dealt)
}
