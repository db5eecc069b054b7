package users

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrInvalidUser = errors.New("users: empty user id")

type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string    `gorm:"size:64" json:"displayName"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Memory keeps users for the life of the process.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]User), now: time.Now}
}

// Register records a user, refreshing the display name and last-seen time on repeat visits.
func (m *Memory) Register(_ context.Context, userID, displayName string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	u, ok := m.users[userID]
	if !ok {
		u = User{ID: userID, FirstSeen: now}
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	u.LastSeen = now
	m.users[userID] = u
	return nil
}

func (m *Memory) Get(_ context.Context, userID string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	return u, ok, nil
}
