package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/clock"
)

const DefaultInboxSize = 64

var (
	ErrStopped  = errors.New("room: stopped")
	ErrPanicked = errors.New("room: action panicked")
)

type Msg interface{ isRoomMsg() }

// Run executes Fn on the room goroutine and reports its error on Reply. Fn is skipped
// when Ctx is already done by the time the loop reaches it.
type Run struct {
	Ctx   context.Context
	Fn    func() error
	Reply chan error
}

func (Run) isRoomMsg() {}

// Fire executes Fn on the room goroutine with nobody waiting on it (timer callbacks).
type Fire struct{ Fn func() }

func (Fire) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// Room serialises every mutation of one table onto a single goroutine.
type Room struct {
	ID     string
	inbox  chan Msg
	clock  clock.Clock
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, id string, size int, clk clock.Clock, log *zap.Logger) *Room {
	if size <= 0 {
		size = DefaultInboxSize
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		ID:     id,
		inbox:  make(chan Msg, size),
		clock:  clk,
		log:    log.With(zap.String("table_id", id)),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Run:
				switch {
				case r.ctx.Err() != nil:
					msg.Reply <- ErrStopped
					return
				case msg.Ctx != nil && msg.Ctx.Err() != nil:
					msg.Reply <- msg.Ctx.Err()
				default:
					msg.Reply <- r.safely(msg.Fn)
				}

			case Fire:
				if r.ctx.Err() != nil {
					return
				}
				_ = r.safely(func() error { msg.Fn(); return nil })

			case Shutdown:
				r.cancel()
				return
			}
		}
	}
}

// safely keeps one bad action from killing the table goroutine.
func (r *Room) safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("room action panicked", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	return fn()
}

// Do runs fn on the room goroutine and waits for it. ctx bounds the wait for a slot in
// the inbox; once queued, the returned error always says whether fn ran.
func (r *Room) Do(ctx context.Context, fn func() error) error {
	if r.ctx.Err() != nil {
		return ErrStopped
	}
	reply := make(chan error, 1)
	select {
	case r.inbox <- Run{Ctx: ctx, Fn: fn, Reply: reply}:
	case <-r.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		// the loop may have answered just before exiting
		select {
		case err := <-reply:
			return err
		default:
			return ErrStopped
		}
	}
}

// Post queues fn without waiting. It reports false once the room is stopped.
func (r *Room) Post(fn func()) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.inbox <- Fire{Fn: fn}:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// AfterFunc schedules fn to run on the room goroutine after d.
func (r *Room) AfterFunc(d time.Duration, fn func()) clock.Timer {
	return r.clock.AfterFunc(d, func() { r.Post(fn) })
}

func (r *Room) Now() time.Time { return r.clock.Now() }

// Stop asks the loop to exit and waits until it has.
func (r *Room) Stop() {
	select {
	case r.inbox <- Shutdown{}:
	case <-r.ctx.Done():
	}
	<-r.done
}

// Close cancels the room without waiting. Safe to call from inside an action.
func (r *Room) Close() { r.cancel() }

func (r *Room) Done() <-chan struct{} { return r.done }

// Inbox is exposed for tests that want to drive the loop directly.
func (r *Room) Inbox() chan<- Msg { return r.inbox }
