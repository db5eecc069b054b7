package lobby

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

const (
	DefaultKey     = "lobby:rooms"
	DefaultChannel = "lobby:updates"

	mirrorQueue   = 256
	writeDeadline = 2 * time.Second
)

// RedisWriter is the subset of *redis.Client the mirror uses.
type RedisWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type Msg interface{ isLobbyMsg() }

type Upserted struct{ Summary types.RoomSummary }

func (Upserted) isLobbyMsg() {}

type Removed struct{ TableID string }

func (Removed) isLobbyMsg() {}

func tableOf(msg Msg) string {
	switch msg := msg.(type) {
	case Upserted:
		return msg.Summary.TableID
	case Removed:
		return msg.TableID
	}
	return ""
}

// Update is what subscribers on the lobby channel receive.
type Update struct {
	Op      string             `json:"op"`
	TableID string             `json:"tableId"`
	Room    *types.RoomSummary `json:"room,omitempty"`
}

// Mirror copies the lobby into a Redis hash and announces each change on a channel.
// Writes happen on its own goroutine; callers never wait on Redis.
//
// When the queue is full, changes collapse into an overflow set keyed by table id
// where the latest change wins. Nothing is dropped, so a removed room never lingers.
type Mirror struct {
	inbox chan Msg

	mu       sync.Mutex
	overflow map[string]Msg

	rdb     RedisWriter
	key     string
	channel string
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMirror(parent context.Context, rdb RedisWriter, key, channel string, log *zap.Logger) *Mirror {
	if key == "" {
		key = DefaultKey
	}
	if channel == "" {
		channel = DefaultChannel
	}
	ctx, cancel := context.WithCancel(parent)
	m := &Mirror{
		inbox:    make(chan Msg, mirrorQueue),
		overflow: make(map[string]Msg),
		rdb:      rdb,
		key:     key,
		channel: channel,
		log:     log.Named("lobby-mirror"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go m.loop()
	return m
}

func (m *Mirror) Upsert(s types.RoomSummary) { m.enqueue(Upserted{Summary: s}) }

func (m *Mirror) Remove(tableID string) { m.enqueue(Removed{TableID: tableID}) }

func (m *Mirror) enqueue(msg Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// once anything overflowed, later changes queue behind it to keep per-room order
	if len(m.overflow) == 0 {
		select {
		case m.inbox <- msg:
			return
		default:
			m.log.Warn("lobby mirror queue full, coalescing updates")
		}
	}
	m.overflow[tableOf(msg)] = msg
}

func (m *Mirror) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			m.drain()
			return
		case msg := <-m.inbox:
			m.write(msg)
			if len(m.inbox) == 0 {
				m.flushOverflow()
			}
		}
	}
}

// flushOverflow writes the coalesced changes. Callers only run it with the inbox empty,
// so every overflowed change is newer than anything already written.
func (m *Mirror) flushOverflow() {
	m.mu.Lock()
	if len(m.overflow) == 0 {
		m.mu.Unlock()
		return
	}
	pending := m.overflow
	m.overflow = make(map[string]Msg)
	m.mu.Unlock()

	for _, msg := range pending {
		m.write(msg)
	}
}

// drain flushes what is already queued so a clean shutdown leaves Redis consistent.
func (m *Mirror) drain() {
	for {
		select {
		case msg := <-m.inbox:
			m.write(msg)
		default:
			m.flushOverflow()
			return
		}
	}
}

func (m *Mirror) write(msg Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), writeDeadline)
	defer cancel()

	var upd Update
	switch msg := msg.(type) {
	case Upserted:
		s := msg.Summary
		raw, err := json.Marshal(s)
		if err != nil {
			m.log.Error("marshal room summary", zap.String("table_id", s.TableID), zap.Error(err))
			return
		}
		if err := m.rdb.HSet(ctx, m.key, s.TableID, raw).Err(); err != nil {
			m.log.Error("redis hset", zap.String("table_id", s.TableID), zap.Error(err))
			return
		}
		upd = Update{Op: "upsert", TableID: s.TableID, Room: &s}

	case Removed:
		if err := m.rdb.HDel(ctx, m.key, msg.TableID).Err(); err != nil {
			m.log.Error("redis hdel", zap.String("table_id", msg.TableID), zap.Error(err))
			return
		}
		upd = Update{Op: "remove", TableID: msg.TableID}
	}

	raw, err := json.Marshal(upd)
	if err != nil {
		return
	}
	if err := m.rdb.Publish(ctx, m.channel, raw).Err(); err != nil {
		m.log.Warn("redis publish", zap.String("table_id", upd.TableID), zap.Error(err))
	}
}

// Close stops the writer after flushing queued updates.
func (m *Mirror) Close() {
	m.cancel()
	<-m.done
}
