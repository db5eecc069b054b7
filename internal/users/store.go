package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store persists users in Postgres.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

const (
	connectAttempts = 3
	connectBackoff  = 2 * time.Second
)

// Open connects with a few retries and migrates the users table.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			break
		}
		log.Warn("postgres connect failed", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewStore(ctx, db, log)
}

func NewStore(ctx context.Context, db *gorm.DB, log *zap.Logger) (*Store, error) {
	if err := db.WithContext(ctx).AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return &Store{db: db, log: log.Named("users")}, nil
}

func (s *Store) Register(ctx context.Context, userID, displayName string) error {
	if userID == "" {
		return ErrInvalidUser
	}
	now := time.Now()
	u := User{ID: userID, DisplayName: displayName, FirstSeen: now, LastSeen: now}
	if err := s.upsert(ctx, &u).Error; err != nil {
		return fmt.Errorf("register user %s: %w", userID, err)
	}
	return nil
}

// upsert inserts u or, on a known id, refreshes last_seen. An empty display name keeps
// the stored one.
func (s *Store) upsert(ctx context.Context, u *User) *gorm.DB {
	update := []string{"last_seen"}
	if u.DisplayName != "" {
		update = append(update, "display_name")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(u)
}

func (s *Store) Get(ctx context.Context, userID string) (User, bool, error) {
	var u User
	err := s.lookup(ctx, userID, &u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, true, nil
}

func (s *Store) lookup(ctx context.Context, userID string, u *User) *gorm.DB {
	return s.db.WithContext(ctx).First(u, "id = ?", userID)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
