package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/rules"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

const DefaultThinkDelay = 800 * time.Millisecond

// Actions is the slice of the orchestrator a bot drives. Bots go through the same
// checks as human seats.
type Actions interface {
	SetReady(ctx context.Context, connID string, ready bool) error
	Bid(ctx context.Context, connID string, bid int) error
	Double(ctx context.Context, connID string, double bool) error
	Play(ctx context.Context, connID string, cardIDs []int) error
}

type event struct {
	name    string
	payload any
}

// Agent plays one seat. It runs on its own goroutine so table goroutines can hand it
// events without waiting.
type Agent struct {
	ConnID string
	SeatID string

	actions Actions
	delay   time.Duration
	log     *zap.Logger
	inbox   chan event
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewAgent(parent context.Context, actions Actions, connID, seatID string, delay time.Duration, log *zap.Logger) *Agent {
	if delay < 0 {
		delay = DefaultThinkDelay
	}
	ctx, cancel := context.WithCancel(parent)
	a := &Agent{
		ConnID:  connID,
		SeatID:  seatID,
		actions: actions,
		delay:   delay,
		log:     log.Named("bot").With(zap.String("seat_id", seatID)),
		inbox:   make(chan event, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
	go a.loop()
	return a
}

// Deliver never blocks; when the queue is full the oldest event is dropped.
func (a *Agent) Deliver(name string, payload any) {
	ev := event{name: name, payload: payload}
	for {
		select {
		case a.inbox <- ev:
			return
		case <-a.ctx.Done():
			return
		default:
		}
		select {
		case <-a.inbox:
		default:
		}
	}
}

func (a *Agent) Stop() { a.cancel() }

func (a *Agent) loop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case ev := <-a.inbox:
			a.handle(ev)
		}
	}
}

func (a *Agent) handle(ev event) {
	switch p := ev.payload.(type) {
	case types.TableState:
		if p.HasStarted {
			return
		}
		for _, s := range p.Seats {
			if s.SeatID == a.SeatID && !s.Ready {
				a.act("ready", func(ctx context.Context) error { return a.actions.SetReady(ctx, a.ConnID, true) })
			}
		}

	case types.GameSnapshot:
		if p.Variant != "dou-dizhu" || p.CurrentTurnSeatID != a.SeatID {
			return
		}
		switch p.Phase {
		case "bidding", "doubling", "playing":
		default:
			return
		}
		if !a.think() {
			return
		}
		// a newer snapshot may have arrived while thinking
		if newer, ok := a.latestSnapshot(); ok {
			if newer.CurrentTurnSeatID != a.SeatID {
				return
			}
			p = newer
		}
		a.takeTurn(p)
	}
}

func (a *Agent) think() bool {
	if a.delay == 0 {
		return true
	}
	t := time.NewTimer(a.delay)
	defer t.Stop()
	select {
	case <-a.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// latestSnapshot drains queued events and keeps the most recent game snapshot.
func (a *Agent) latestSnapshot() (types.GameSnapshot, bool) {
	var (
		snap  types.GameSnapshot
		found bool
	)
	for {
		select {
		case ev := <-a.inbox:
			if s, ok := ev.payload.(types.GameSnapshot); ok {
				snap, found = s, true
				continue
			}
			a.handle(ev)
		default:
			return snap, found
		}
	}
}

func (a *Agent) takeTurn(s types.GameSnapshot) {
	hand := fromView(s.YourHand)
	switch s.Phase {
	case "bidding":
		highest := 0
		if s.Bidding != nil {
			highest = s.Bidding.HighestBid
		}
		bid := ChooseBid(hand, highest)
		a.act("bid", func(ctx context.Context) error { return a.actions.Bid(ctx, a.ConnID, bid) })

	case "doubling":
		double := ChooseDouble(hand)
		a.act("double", func(ctx context.Context) error { return a.actions.Double(ctx, a.ConnID, double) })

	case "playing":
		var prev *rules.Combo
		partnerLed := false
		if s.Play != nil && s.Play.LastCombo != nil {
			if c, ok := rules.Classify(fromView(s.Play.LastCombo.Cards)); ok {
				prev = &c
			}
			owner := s.Play.LastComboSeatID
			partnerLed = owner != s.LandlordSeatID && a.SeatID != s.LandlordSeatID
		}
		move := ChooseMove(hand, prev, partnerLed)
		a.act("play", func(ctx context.Context) error { return a.actions.Play(ctx, a.ConnID, move.IDs()) })
	}
}

func (a *Agent) act(what string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		a.log.Debug("bot action rejected", zap.String("action", what), zap.Error(err))
	}
}
