package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// GormStore persists cache entries in a Postgres or MySQL table through GORM.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore wraps db. Call AutoMigrate before first use.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{db: db, logger: logger}
}

// AutoMigrate ensures the cache table exists with the expected schema.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm cache store not initialised")
	}
	return s.db.WithContext(ctx).AutoMigrate(&cacheRecord{})
}

// Get returns the cached body for key. Errors are logged and reported as a miss.
func (s *GormStore) Get(ctx context.Context, key string) (string, bool) {
	var record cacheRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("database cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return record.Body, true
}

// Put upserts value under key.
func (s *GormStore) Put(ctx context.Context, key, value string) error {
	record := cacheRecord{Key: key, Body: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("database cache write: %w", err)
	}
	return nil
}

// Prune deletes entries last written before the cutoff.
func (s *GormStore) Prune(ctx context.Context, before time.Time) (int, error) {
	result := s.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&cacheRecord{})
	return int(result.RowsAffected), result.Error
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type cacheRecord struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:255"`
	Body      string    `gorm:"column:body;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;index:idx_forecast_cache_updated"`
}

func (cacheRecord) TableName() string {
	return "forecast_cache"
}

var (
	_ weather.CacheStore = (*GormStore)(nil)
	_ weather.Pruner     = (*GormStore)(nil)
)
