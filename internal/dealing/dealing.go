package dealing

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

const DefaultInterval = 600 * time.Millisecond

// Notifier receives the side effects of each tick.
type Notifier interface {
	CardDealt(t *table.Table, seatID string, c cards.Card)
	Snapshot(t *table.Table)
}

type Hooks struct {
	StopWhen func(t *table.Table) bool
	OnFinish func(t *table.Table)
}

// Coordinator deals one card per tick to seats in rotation. A table has at most one
// pending tick; its handle lives on the table's DealingProgress.
type Coordinator struct {
	interval time.Duration
	notify   Notifier
	log      *zap.Logger
}

func New(interval time.Duration, notify Notifier, log *zap.Logger) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{interval: interval, notify: notify, log: log.Named("dealing")}
}

func (c *Coordinator) Interval() time.Duration { return c.interval }

func (c *Coordinator) Start(t *table.Table, h Hooks) {
	c.Stop(t)
	p := &table.DealingProgress{TraceID: t.Phase.TraceID}
	t.Dealing = p
	c.log.Debug("dealing started",
		zap.String("table_id", t.ID),
		zap.String("trace_id", p.TraceID),
		zap.Int("pile", len(t.DrawPile)))
	c.schedule(t, p, h)
}

// Stop cancels the pending tick and clears the progress record. Safe to call when idle.
func (c *Coordinator) Stop(t *table.Table) {
	if t.Dealing == nil {
		return
	}
	if t.Dealing.Timer != nil {
		t.Dealing.Timer.Stop()
	}
	t.Dealing = nil
}

func (c *Coordinator) schedule(t *table.Table, p *table.DealingProgress, h Hooks) {
	p.Timer = t.Sched.AfterFunc(c.interval, func() { c.tick(t, p, h) })
}

func (c *Coordinator) tick(t *table.Table, p *table.DealingProgress, h Hooks) {
	if t.Dealing != p {
		c.log.Debug("stale dealing tick dropped", zap.String("table_id", t.ID), zap.String("trace_id", p.TraceID))
		return
	}

	if len(t.Seats) == 0 {
		c.Stop(t)
		t.Phase = engine.Apply(t.Phase, engine.Reset())
		return
	}

	if h.StopWhen(t) {
		c.Stop(t)
		c.log.Debug("dealing finished", zap.String("table_id", t.ID), zap.String("trace_id", p.TraceID))
		h.OnFinish(t)
		return
	}

	card, ok := t.Draw()
	if !ok {
		// stop condition never matched an empty pile; finish rather than spin
		c.log.Warn("draw pile exhausted before stop condition",
			zap.String("table_id", t.ID), zap.String("trace_id", p.TraceID))
		c.Stop(t)
		h.OnFinish(t)
		return
	}

	p.Rotation %= len(t.Seats)
	seatID := t.Seats[p.Rotation]
	player := t.Players[seatID]
	card.FaceUp = true
	player.Hand = append(player.Hand, card)
	p.LastSeatID = seatID
	p.Rotation = (p.Rotation + 1) % len(t.Seats)

	c.notify.CardDealt(t, seatID, card)
	c.notify.Snapshot(t)
	c.schedule(t, p, h)
}
