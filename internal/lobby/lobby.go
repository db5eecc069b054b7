package lobby

import (
	"sort"
	"sync"

	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Status derives a room's lobby status from occupancy.
func Status(players, capacity int, started bool) string {
	switch {
	case started:
		return types.StatusInProgress
	case players >= capacity:
		return types.StatusFull
	default:
		return types.StatusWaiting
	}
}

// Sink is anything that accepts the room projection.
type Sink interface {
	Upsert(s types.RoomSummary)
	Remove(tableID string)
}

// Directory is the in-process lobby used by the HTTP listing.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]types.RoomSummary
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]types.RoomSummary)}
}

func (d *Directory) Upsert(s types.RoomSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[s.TableID] = s
}

func (d *Directory) Remove(tableID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, tableID)
}

func (d *Directory) Get(tableID string) (types.RoomSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.rooms[tableID]
	return s, ok
}

// List returns open rooms first, then by most recent update.
func (d *Directory) List() []types.RoomSummary {
	d.mu.RLock()
	out := make([]types.RoomSummary, 0, len(d.rooms))
	for _, s := range d.rooms {
		out = append(out, s)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		wi, wj := out[i].Status == types.StatusWaiting, out[j].Status == types.StatusWaiting
		if wi != wj {
			return wi
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].TableID < out[j].TableID
	})
	return out
}

// Fanout forwards every change to each sink in order.
type Fanout []Sink

func (f Fanout) Upsert(s types.RoomSummary) {
	for _, sink := range f {
		sink.Upsert(s)
	}
}

func (f Fanout) Remove(tableID string) {
	for _, sink := range f {
		sink.Remove(tableID)
	}
}
