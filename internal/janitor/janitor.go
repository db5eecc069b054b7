package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "@every 1m"

// Evicter tears down tables that never started and went quiet. It reports how many
// were removed.
type Evicter interface {
	EvictIdle(ctx context.Context) int
}

// Janitor runs the idle-table sweep on a cron schedule.
type Janitor struct {
	cron    *cron.Cron
	target  Evicter
	log     *zap.Logger
	timeout time.Duration
}

func New(target Evicter, spec string, log *zap.Logger) (*Janitor, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	j := &Janitor{
		cron:    cron.New(),
		target:  target,
		log:     log.Named("janitor"),
		timeout: 30 * time.Second,
	}
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	j.log.Info("idle sweep scheduled")
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.log.Warn("sweep still running at shutdown")
	}
}

// Sweep runs one eviction pass.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	n := j.target.EvictIdle(ctx)
	if n > 0 {
		j.log.Info("evicted idle tables", zap.Int("count", n), zap.Duration("took", time.Since(start)))
		return
	}
	j.log.Debug("idle sweep found nothing")
}
