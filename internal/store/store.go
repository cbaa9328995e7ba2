package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/warr-app/warr/internal/cache"
	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/models"
)

// Compile-time interface check.
var _ core.Cache[string] = (*Store)(nil)

// Store is a durable key-value store with per-key expiry, backed by a SQL
// database through GORM. It keeps the token-store slots across process
// restarts, which the in-memory cache cannot.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// Every sqlite connection to ":memory:" is a separate database, and
		// file databases only allow one writer anyway.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.StoredCredential{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credential table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Get returns the value of a live slot, or cache.ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var cred models.StoredCredential
	err := s.db.WithContext(ctx).
		Where("slot = ? AND expires_at > ?", key, s.now()).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", cache.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return cred.Value, nil
}

// Set upserts a slot and purges slots whose TTL has elapsed.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()
	cred := models.StoredCredential{
		Slot:      key,
		Value:     value,
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at <= ?", now).
			Delete(&models.StoredCredential{}).Error; err != nil {
			return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&cred).Error
		if err != nil {
			return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
		}
		return nil
	})
}

// MGet returns the live slots among keys.
func (s *Store) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var creds []models.StoredCredential
	err := s.db.WithContext(ctx).
		Where("slot IN ? AND expires_at > ?", keys, s.now()).
		Find(&creds).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}

	for _, cred := range creds {
		result[cred.Slot] = cred.Value
	}
	return result, nil
}

// Delete removes slots; missing slots are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("slot IN ?", keys).
		Delete(&models.StoredCredential{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return nil
}
