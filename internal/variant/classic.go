package variant

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/cards"
	"github.com/DoyleJ11/card-table-backend/internal/dealing"
	"github.com/DoyleJ11/card-table-backend/internal/engine"
	"github.com/DoyleJ11/card-table-backend/internal/table"
)

// ClassicHost is what the classic controller reports back to.
type ClassicHost interface {
	Emitter
	CompleteGame(t *table.Table, result *table.GameResult)
}

// ClassicController deals the whole deck, shows the hands once and completes the round.
// There is no bidding or trick play.
type ClassicController struct {
	deals   *dealing.Coordinator
	host    ClassicHost
	shuffle Shuffler
	log     *zap.Logger
}

func NewClassic(deals *dealing.Coordinator, host ClassicHost, shuffle Shuffler, log *zap.Logger) *ClassicController {
	if shuffle == nil {
		shuffle = cards.Shuffle
	}
	return &ClassicController{deals: deals, host: host, shuffle: shuffle, log: log.Named("classic")}
}

func (c *ClassicController) Descriptor() table.Descriptor { return Classic }

func (c *ClassicController) Start(t *table.Table) {
	t.Redeck()
	c.shuffle(t.DrawPile)
	clear(t.Ready)
	t.State = nil
	t.Phase = engine.Apply(t.Phase, engine.StartDealing(uuid.NewString()))
	c.log.Info("round started", zap.String("table_id", t.ID), zap.String("trace_id", t.Phase.TraceID))

	c.deals.Start(t, dealing.Hooks{
		StopWhen: func(t *table.Table) bool { return len(t.DrawPile) == 0 },
		OnFinish: c.finish,
	})
}

// finish passes through playing so the dealt hands reach every seat, then hands the
// table back to the host to close the round. Nothing is scored.
func (c *ClassicController) finish(t *table.Table) {
	t.Phase = engine.Apply(t.Phase, engine.StartPlaying("dealt"))
	c.host.Snapshot(t)
	c.log.Info("round dealt", zap.String("table_id", t.ID), zap.String("trace_id", t.Phase.TraceID))
	c.host.CompleteGame(t, nil)
}
