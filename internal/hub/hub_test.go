package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/clock"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/lobby"
	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/users"
	"github.com/DoyleJ11/card-table-backend/internal/variant/doudizhu"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

const dealEvery = 600 * time.Millisecond

type frame struct {
	to      string
	event   string
	payload any
}

type fakeTransport struct {
	mu           sync.Mutex
	broadcasts   []frame
	direct       []frame
	groups       map[string]string
	disconnected []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{groups: make(map[string]string)}
}

func (f *fakeTransport) Broadcast(tableID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, frame{to: tableID, event: event, payload: payload})
}

func (f *fakeTransport) SendTo(connID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, frame{to: connID, event: event, payload: payload})
}

func (f *fakeTransport) JoinGroup(connID, tableID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[connID] = tableID
}

func (f *fakeTransport) LeaveGroup(connID, tableID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groups[connID] == tableID {
		delete(f.groups, connID)
	}
}

func (f *fakeTransport) Disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, connID)
}

func (f *fakeTransport) broadcastsOf(event string) []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []frame
	for _, fr := range f.broadcasts {
		if fr.event == event {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeTransport) lastSnapshot(t *testing.T, connID string) types.GameSnapshot {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.direct) - 1; i >= 0; i-- {
		fr := f.direct[i]
		if fr.to == connID && fr.event == types.EventGameState {
			return fr.payload.(types.GameSnapshot)
		}
	}
	t.Fatalf("no snapshot sent to %s", connID)
	return types.GameSnapshot{}
}

func (f *fakeTransport) directOf(connID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.direct {
		if fr.to == connID && fr.event == event {
			n++
		}
	}
	return n
}

type fixture struct {
	h    *Hub
	tr   *fakeTransport
	dir  *lobby.Directory
	fake *clock.Fake
}

func newFixture(t *testing.T, bots AgentFactory) *fixture {
	t.Helper()
	f := &fixture{
		tr:   newFakeTransport(),
		dir:  lobby.NewDirectory(),
		fake: clock.NewFake(time.Unix(0, 0)),
	}
	f.h = New(context.Background(), Deps{
		Transport: f.tr,
		Lobby:     f.dir,
		Users:     users.NewMemory(),
		Clock:     f.fake,
		Logger:    zap.NewNop(),
		Shuffle:   func([]cards.Card) {},
		Bots:      bots,
	}, Options{
		DealInterval:   dealEvery,
		ReconnectGrace: 5 * time.Second,
		InboxSize:      16,
		IdleTTL:        time.Minute,
	})
	t.Cleanup(func() { f.h.Shutdown(context.Background()) })
	return f
}

var ctx = context.Background()

// settle waits for everything already queued on the table goroutine.
func (f *fixture) settle(t *testing.T, tableID string) {
	t.Helper()
	_, err := f.h.TableState(ctx, tableID)
	if err != nil && !errors.Is(err, table.ErrTableNotFound) {
		t.Fatalf("settle: %v", err)
	}
}

// advance steps the clock so each timer callback runs before the next step.
func (f *fixture) advance(t *testing.T, tableID string, d time.Duration, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		f.fake.Advance(d)
		f.settle(t, tableID)
	}
}

func (f *fixture) state(t *testing.T, tableID string) types.TableState {
	t.Helper()
	s, err := f.h.TableState(ctx, tableID)
	require.NoError(t, err)
	return s
}

// inspect runs fn against the live table record on its goroutine.
func (f *fixture) inspect(t *testing.T, tableID string, fn func(t *table.Table)) {
	t.Helper()
	e := f.h.entry(tableID)
	require.NotNil(t, e)
	require.NoError(t, f.h.do(ctx, e, func(tb *table.Table) error { fn(tb); return nil }))
}

// seatThree opens a dou-dizhu table with a, b and c seated and ready.
func (f *fixture) seatThree(t *testing.T) string {
	t.Helper()
	st, err := f.h.CreateTable(ctx, table.VariantDouDizhu, 0)
	require.NoError(t, err)
	for _, u := range []string{"a", "b", "c"} {
		_, err := f.h.Join(ctx, "c-"+u, st.TableID, "u-"+u, u)
		require.NoError(t, err)
		require.NoError(t, f.h.SetReady(ctx, "c-"+u, true))
	}
	return st.TableID
}

// toBidding starts the table and deals it out.
func (f *fixture) toBidding(t *testing.T) string {
	t.Helper()
	id := f.seatThree(t)
	require.NoError(t, f.h.Start(ctx, "c-a"))
	f.advance(t, id, dealEvery, 52)
	require.Equal(t, string(engine.KindBidding), f.state(t, id).Phase)
	return id
}

func TestCreateTable(t *testing.T) {
	f := newFixture(t, nil)

	st, err := f.h.CreateTable(ctx, table.VariantDouDizhu, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Capacity, "locked capacity ignores the request")
	assert.Equal(t, string(engine.KindIdle), st.Phase)
	assert.Equal(t, types.StatusWaiting, st.Status)

	room, ok := f.dir.Get(st.TableID)
	require.True(t, ok)
	assert.Equal(t, 0, room.PlayerCount)

	st, err = f.h.CreateTable(ctx, table.VariantClassic, 99)
	require.NoError(t, err)
	assert.Equal(t, 6, st.Capacity, "clamped to the variant max")

	_, err = f.h.CreateTable(ctx, "hearts", 0)
	assert.ErrorIs(t, err, table.ErrUnknownVariant)
}

func TestJoinRules(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seatThree(t)

	st := f.state(t, id)
	require.Len(t, st.Seats, 3)
	assert.Equal(t, "u-a", st.HostID)
	assert.Equal(t, types.StatusFull, st.Status)

	_, err := f.h.Join(ctx, "c-d", id, "u-d", "d")
	assert.ErrorIs(t, err, table.ErrTableFull)

	_, err = f.h.Join(ctx, "c-x", "missing", "u-x", "x")
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	other, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-a", other.TableID, "u-a", "a")
	assert.ErrorIs(t, err, table.ErrAlreadySeated)

	require.NoError(t, f.h.Start(ctx, "c-a"))
	require.NoError(t, f.h.Leave(ctx, "c-c"))
	_, err = f.h.Join(ctx, "c-d", id, "u-d", "d")
	assert.NoError(t, err, "forfeited round resets the table so a newcomer may sit")
}

func TestJoinRejectsNewcomerMidGame(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.h.CreateTable(ctx, table.VariantClassic, 2)
	require.NoError(t, err)
	id := st.TableID
	for _, u := range []string{"a", "b"} {
		_, err := f.h.Join(ctx, "c-"+u, id, "u-"+u, u)
		require.NoError(t, err)
		require.NoError(t, f.h.SetReady(ctx, "c-"+u, true))
	}
	require.NoError(t, f.h.Start(ctx, "c-a"))

	_, err = f.h.Join(ctx, "c-c", id, "u-c", "c")
	assert.ErrorIs(t, err, table.ErrGameInProgress)
	assert.ErrorIs(t, f.h.UpdateCapacity(ctx, "c-a", 3), table.ErrGameInProgress)
	assert.Len(t, f.state(t, id).Seats, 2)
}

func TestStartDealsThenOpensBidding(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seatThree(t)

	require.NoError(t, f.h.Start(ctx, "c-a"))
	st := f.state(t, id)
	assert.Equal(t, string(engine.KindDealing), st.Phase)
	assert.True(t, st.HasStarted)
	assert.NotEmpty(t, st.TraceID)
	room, _ := f.dir.Get(id)
	assert.Equal(t, types.StatusInProgress, room.Status)

	f.advance(t, id, dealEvery, 52)

	st = f.state(t, id)
	assert.Equal(t, string(engine.KindBidding), st.Phase)
	for _, u := range []string{"a", "b", "c"} {
		snap := f.tr.lastSnapshot(t, "c-"+u)
		assert.Len(t, snap.YourHand, 17)
		assert.Equal(t, 3, snap.BottomCount)
		assert.Equal(t, "seat-1", snap.CurrentTurnSeatID)
		for _, s := range snap.Seats {
			assert.Equal(t, 17, s.HandCount)
		}
	}
	assert.Equal(t, 17, f.tr.directOf("c-a", types.EventCardDealt), "cards go only to their seat")
}

func TestHighestBidderTakesBottom(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)

	require.NoError(t, f.h.Bid(ctx, "c-a", 1))
	require.NoError(t, f.h.Bid(ctx, "c-b", 0))
	require.NoError(t, f.h.Bid(ctx, "c-c", 2))
	require.NoError(t, f.h.Bid(ctx, "c-a", 0))
	require.NoError(t, f.h.Bid(ctx, "c-b", 0))

	assert.Equal(t, string(engine.KindDoubling), f.state(t, id).Phase)
	snap := f.tr.lastSnapshot(t, "c-c")
	assert.Equal(t, "seat-3", snap.LandlordSeatID)
	assert.Len(t, snap.YourHand, 20)
	assert.Len(t, snap.BottomCards, 3)
	assert.Equal(t, "seat-1", snap.CurrentTurnSeatID)

	err := f.h.Bid(ctx, "c-a", 3)
	assert.ErrorIs(t, err, table.ErrWrongPhase)
}

func TestAllPassRedeals(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)
	trace := f.state(t, id).TraceID

	for _, c := range []string{"c-a", "c-b", "c-c"} {
		require.NoError(t, f.h.Bid(ctx, c, 0))
	}

	st := f.state(t, id)
	assert.Equal(t, string(engine.KindDealing), st.Phase)
	assert.NotEqual(t, trace, st.TraceID, "redeal mints a new trace")
	f.inspect(t, id, func(tb *table.Table) {
		assert.Equal(t, 1, doudizhu.StateOf(tb).Redeals)
	})

	f.advance(t, id, dealEvery, 52)
	assert.Equal(t, string(engine.KindBidding), f.state(t, id).Phase)
}

func TestOnlyHostStarts(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seatThree(t)

	err := f.h.Start(ctx, "c-b")
	var ae *table.ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Only the host can perform this action", ae.Message)
	assert.Equal(t, string(engine.KindIdle), f.state(t, id).Phase)
}

func TestStartPreconditions(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.h.CreateTable(ctx, table.VariantDouDizhu, 0)
	require.NoError(t, err)
	id := st.TableID

	_, err = f.h.Join(ctx, "c-a", id, "u-a", "a")
	require.NoError(t, err)
	assert.ErrorIs(t, f.h.Start(ctx, "c-a"), table.ErrNotFull)

	for _, u := range []string{"b", "c"} {
		_, err := f.h.Join(ctx, "c-"+u, id, "u-"+u, u)
		require.NoError(t, err)
	}
	require.NoError(t, f.h.SetReady(ctx, "c-a", true))
	assert.ErrorIs(t, f.h.Start(ctx, "c-a"), table.ErrNotAllReady)

	require.NoError(t, f.h.SetReady(ctx, "c-b", true))
	require.NoError(t, f.h.SetReady(ctx, "c-c", true))
	require.NoError(t, f.h.Start(ctx, "c-a"))
	assert.ErrorIs(t, f.h.Start(ctx, "c-a"), table.ErrGameInProgress)
	assert.ErrorIs(t, f.h.SetReady(ctx, "c-b", false), table.ErrGameInProgress)

	assert.ErrorIs(t, f.h.Start(ctx, "c-nobody"), table.ErrNotAtTable)
}

func TestGraceExpiryEndsGame(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)

	f.h.Disconnect(ctx, "c-b")
	st := f.state(t, id)
	require.Len(t, st.Seats, 3)
	assert.False(t, st.Seats[1].Connected)

	f.advance(t, id, 4*time.Second, 1)
	assert.Len(t, f.state(t, id).Seats, 3)
	assert.Empty(t, f.tr.broadcastsOf(types.EventGameEnded))

	f.advance(t, id, 2*time.Second, 1)
	st = f.state(t, id)
	assert.Len(t, st.Seats, 2)
	assert.False(t, st.HasStarted)

	ended := f.tr.broadcastsOf(types.EventGameEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, table.ReasonPlayerLeft, ended[0].payload.(types.GameEnded).Reason)

	room, ok := f.dir.Get(id)
	require.True(t, ok)
	assert.Equal(t, 2, room.PlayerCount)
	assert.Equal(t, types.StatusWaiting, room.Status)
}

func TestReconnectWithinGraceKeepsSeat(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)

	f.h.Disconnect(ctx, "c-b")
	f.advance(t, id, 3*time.Second, 1)

	_, err := f.h.Join(ctx, "c-b2", id, "u-b", "")
	require.NoError(t, err)
	f.advance(t, id, 3*time.Second, 1)

	st := f.state(t, id)
	require.Len(t, st.Seats, 3)
	assert.Equal(t, "seat-2", st.Seats[1].SeatID)
	assert.True(t, st.Seats[1].Connected)
	assert.Equal(t, "b", st.Seats[1].DisplayName)
	assert.Equal(t, string(engine.KindBidding), st.Phase)
	assert.Empty(t, f.tr.broadcastsOf(types.EventGameEnded))

	snap := f.tr.lastSnapshot(t, "c-b2")
	assert.Len(t, snap.YourHand, 17)

	// the stale socket closing late must not touch the new binding
	f.h.Disconnect(ctx, "c-b")
	assert.True(t, f.state(t, id).Seats[1].Connected)
}

func TestDisconnectBeforeStartFreesSeat(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seatThree(t)

	f.h.Disconnect(ctx, "c-c")
	st := f.state(t, id)
	assert.Len(t, st.Seats, 2)
	room, _ := f.dir.Get(id)
	assert.Equal(t, types.StatusWaiting, room.Status)
}

func TestWinningPlayEndsRoundOnce(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)

	require.NoError(t, f.h.Bid(ctx, "c-a", 3))
	for _, c := range []string{"c-b", "c-c", "c-a"} {
		require.NoError(t, f.h.Double(ctx, c, false))
	}
	require.Equal(t, string(engine.KindPlaying), f.state(t, id).Phase)

	var last int
	f.inspect(t, id, func(tb *table.Table) {
		p := tb.Players["seat-1"]
		p.Hand = p.Hand[:1]
		last = p.Hand[0].ID
	})
	require.NoError(t, f.h.Play(ctx, "c-a", []int{last}))

	ended := f.tr.broadcastsOf(types.EventGameEnded)
	require.Len(t, ended, 1)
	ge := ended[0].payload.(types.GameEnded)
	assert.Equal(t, table.ReasonCompleted, ge.Reason)
	require.NotNil(t, ge.Result)
	assert.Equal(t, "LANDLORD", ge.Result.Winner)
	assert.Equal(t, []string{"u-a"}, ge.Result.WinnerUserIDs)
	total := 0
	for _, s := range ge.Result.Scores {
		total += s.Score
	}
	assert.Zero(t, total)

	st := f.state(t, id)
	assert.Equal(t, string(engine.KindIdle), st.Phase)
	assert.False(t, st.HasStarted)
	require.NotNil(t, st.LastResult)
	for _, s := range st.Seats {
		assert.False(t, s.Ready)
	}
	f.inspect(t, id, func(tb *table.Table) {
		assert.Nil(t, tb.State)
		assert.Empty(t, tb.Ready)
	})

	assert.ErrorIs(t, f.h.Play(ctx, "c-b", nil), table.ErrGameNotStarted)
}

func TestTurnActionsOnClassic(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	id := st.TableID
	_, err = f.h.Join(ctx, "c-a", id, "u-a", "a")
	require.NoError(t, err)
	require.NoError(t, f.h.UpdateCapacity(ctx, "c-a", 1))
	assert.Equal(t, 2, f.state(t, id).Capacity, "clamped to the variant min")

	_, err = f.h.Join(ctx, "c-b", id, "u-b", "b")
	require.NoError(t, err)
	require.NoError(t, f.h.SetReady(ctx, "c-a", true))
	require.NoError(t, f.h.SetReady(ctx, "c-b", true))
	require.NoError(t, f.h.Start(ctx, "c-a"))

	f.advance(t, id, dealEvery, 52)
	assert.Equal(t, string(engine.KindDealing), f.state(t, id).Phase)
	assert.ErrorIs(t, f.h.Bid(ctx, "c-a", 1), table.ErrUnsupportedAction)
	assert.ErrorIs(t, f.h.Play(ctx, "c-a", []int{0}), table.ErrUnsupportedAction)
	assert.Len(t, f.tr.lastSnapshot(t, "c-b").YourHand, 26)

	f.advance(t, id, dealEvery, 1)
	ended := f.tr.broadcastsOf(types.EventGameEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, types.GameEnded{TableID: id, Reason: table.ReasonCompleted}, ended[0].payload)

	st = f.state(t, id)
	assert.Equal(t, string(engine.KindIdle), st.Phase)
	assert.False(t, st.HasStarted)
	assert.Empty(t, f.tr.lastSnapshot(t, "c-b").YourHand)

	// the host can deal again once everyone readies up
	require.NoError(t, f.h.SetReady(ctx, "c-a", true))
	require.NoError(t, f.h.SetReady(ctx, "c-b", true))
	require.NoError(t, f.h.Start(ctx, "c-a"))
	assert.Equal(t, string(engine.KindDealing), f.state(t, id).Phase)
}

func TestUpdateCapacity(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	id := st.TableID
	for _, u := range []string{"a", "b", "c"} {
		_, err := f.h.Join(ctx, "c-"+u, id, "u-"+u, u)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, f.h.UpdateCapacity(ctx, "c-b", 5), table.ErrNotHost)
	assert.ErrorIs(t, f.h.UpdateCapacity(ctx, "c-a", 2), table.ErrCapacityBelowSeated)
	require.NoError(t, f.h.UpdateCapacity(ctx, "c-a", 3))
	assert.Equal(t, types.StatusFull, f.state(t, id).Status)
}

func TestUpdateCapacityLocked(t *testing.T) {
	f := newFixture(t, nil)
	f.seatThree(t)
	assert.ErrorIs(t, f.h.UpdateCapacity(ctx, "c-a", 4), table.ErrCapacityLocked)
}

func TestKick(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seatThree(t)

	assert.ErrorIs(t, f.h.Kick(ctx, "c-b", "seat-3"), table.ErrNotHost)
	assert.ErrorIs(t, f.h.Kick(ctx, "c-a", "seat-1"), table.ErrCannotKickSelf)
	assert.ErrorIs(t, f.h.Kick(ctx, "c-a", "seat-9"), table.ErrPlayerNotFound)

	require.NoError(t, f.h.Kick(ctx, "c-a", "seat-3"))
	assert.Len(t, f.state(t, id).Seats, 2)
	assert.Equal(t, 1, f.tr.directOf("c-c", types.EventKicked))
	assert.Contains(t, f.tr.disconnected, "c-c")
	assert.ErrorIs(t, f.h.SetReady(ctx, "c-c", true), table.ErrNotAtTable)
}

func TestLeaveMidGameForfeitsThenPromotesHost(t *testing.T) {
	f := newFixture(t, nil)
	id := f.toBidding(t)

	require.NoError(t, f.h.Leave(ctx, "c-a"))

	ended := f.tr.broadcastsOf(types.EventGameEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, table.ReasonPlayerLeft, ended[0].payload.(types.GameEnded).Reason)

	st := f.state(t, id)
	assert.Len(t, st.Seats, 2)
	assert.Equal(t, "u-b", st.HostID)
	assert.Equal(t, string(engine.KindIdle), st.Phase)
	assert.ErrorIs(t, f.h.Leave(ctx, "c-a"), table.ErrNotAtTable)
}

func TestLastLeaveTearsDown(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-a", st.TableID, "u-a", "a")
	require.NoError(t, err)

	require.NoError(t, f.h.Leave(ctx, "c-a"))
	_, err = f.h.TableState(ctx, st.TableID)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	_, ok := f.dir.Get(st.TableID)
	assert.False(t, ok)
}

func TestDiscardEmpty(t *testing.T) {
	f := newFixture(t, nil)
	home, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-a", home.TableID, "u-a", "a")
	require.NoError(t, err)

	orphan, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-a", orphan.TableID, "u-a", "a")
	require.ErrorIs(t, err, table.ErrAlreadySeated)
	_, ok := f.dir.Get(orphan.TableID)
	require.True(t, ok)

	assert.True(t, f.h.DiscardEmpty(ctx, orphan.TableID))
	_, err = f.h.TableState(ctx, orphan.TableID)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	_, ok = f.dir.Get(orphan.TableID)
	assert.False(t, ok)

	assert.False(t, f.h.DiscardEmpty(ctx, home.TableID), "seated tables stay")
	assert.False(t, f.h.DiscardEmpty(ctx, orphan.TableID))
	assert.Equal(t, "u-a", f.state(t, home.TableID).HostID)
}

func TestEvictIdle(t *testing.T) {
	f := newFixture(t, nil)
	quiet, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-q", quiet.TableID, "u-q", "q")
	require.NoError(t, err)
	busy := f.toBidding(t)

	assert.Equal(t, 0, f.h.EvictIdle(ctx), "nothing is idle yet")

	f.fake.Advance(2 * time.Minute)
	require.Equal(t, 1, f.h.EvictIdle(ctx))

	closed := f.tr.broadcastsOf(types.EventTableClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, quiet.TableID, closed[0].to)
	assert.Equal(t, types.TableClosed{TableID: quiet.TableID, Reason: "idle"}, closed[0].payload)
	_, ok := f.dir.Get(quiet.TableID)
	assert.False(t, ok)
	_, err = f.h.TableState(ctx, quiet.TableID)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	assert.ErrorIs(t, f.h.SetReady(ctx, "c-q", true), table.ErrNotAtTable)

	_, err = f.h.TableState(ctx, busy)
	assert.NoError(t, err, "started tables are never evicted")
}

type fakeAgent struct {
	mu      sync.Mutex
	events  []string
	stopped bool
}

func (a *fakeAgent) Deliver(event string, _ any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *fakeAgent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
}

func TestAddBot(t *testing.T) {
	var agents []*fakeAgent
	f := newFixture(t, func(tableID, connID, seatID string) Agent {
		a := &fakeAgent{}
		agents = append(agents, a)
		return a
	})
	st, err := f.h.CreateTable(ctx, table.VariantDouDizhu, 0)
	require.NoError(t, err)
	id := st.TableID
	_, err = f.h.Join(ctx, "c-a", id, "u-a", "a")
	require.NoError(t, err)
	_, err = f.h.Join(ctx, "c-b", id, "u-b", "b")
	require.NoError(t, err)

	assert.ErrorIs(t, f.h.AddBot(ctx, "c-b"), table.ErrNotHost)
	require.NoError(t, f.h.AddBot(ctx, "c-a"))
	require.Len(t, agents, 1)
	assert.ErrorIs(t, f.h.AddBot(ctx, "c-a"), table.ErrTableFull)

	st = f.state(t, id)
	require.Len(t, st.Seats, 3)
	bot := st.Seats[2]
	assert.True(t, bot.Bot)
	assert.True(t, bot.Ready)

	agents[0].mu.Lock()
	assert.Contains(t, agents[0].events, types.EventTableState)
	assert.Contains(t, agents[0].events, types.EventGameState)
	agents[0].mu.Unlock()

	require.NoError(t, f.h.Kick(ctx, "c-a", bot.SeatID))
	agents[0].mu.Lock()
	assert.True(t, agents[0].stopped)
	agents[0].mu.Unlock()
	assert.Empty(t, f.tr.disconnected, "bots have no socket to drop")
}

func TestAddBotWithoutFactory(t *testing.T) {
	f := newFixture(t, nil)
	f.seatThree(t)
	assert.ErrorIs(t, f.h.AddBot(ctx, "c-a"), table.ErrUnsupportedAction)
}

func TestTablesAreIsolated(t *testing.T) {
	f := newFixture(t, nil)
	a := f.toBidding(t)

	other, err := f.h.CreateTable(ctx, table.VariantClassic, 0)
	require.NoError(t, err)
	e := f.h.entry(other.TableID)
	err = f.h.do(ctx, e, func(*table.Table) error { panic("bad table") })
	assert.ErrorIs(t, err, table.ErrInternal)

	assert.Equal(t, string(engine.KindBidding), f.state(t, a).Phase)
	_, err = f.h.TableState(ctx, other.TableID)
	assert.NoError(t, err)
}
