package repository

import (
	"context"
	"errors"
	"time"

	"MarketHeat/internal/domain/models"
	"MarketHeat/pkg/cache"
	applogger "MarketHeat/pkg/logger"
)

const (
	tableKey  = "snapshot:table"
	latestKey = "snapshot:latest"
)

// RedisSnapshot implements SnapshotCache on top of pkg/cache.
type RedisSnapshot struct {
	c   cache.Service
	ttl time.Duration
	l   *applogger.Logger
}

func NewRedisSnapshot(c cache.Service, ttl time.Duration) *RedisSnapshot {
	return &RedisSnapshot{c: c, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *RedisSnapshot) SetLogger(l *applogger.Logger) { s.l = l }

func (s *RedisSnapshot) PutTable(ctx context.Context, p models.TablePayload) error {
	if err := s.c.Set(ctx, tableKey, p, s.ttl); err != nil {
		if s.l != nil {
			s.l.Warn("snapshot put_table error", applogger.Error(err))
		}
		return err
	}
	return nil
}

func (s *RedisSnapshot) GetTable(ctx context.Context) (models.TablePayload, bool, error) {
	var p models.TablePayload
	err := s.c.Get(ctx, tableKey, &p)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return p, false, nil
		}
		if s.l != nil {
			s.l.Warn("snapshot get_table error", applogger.Error(err))
		}
		return p, false, err
	}
	return p, true, nil
}

func (s *RedisSnapshot) PutLatest(ctx context.Context, rec models.LatestRecord) error {
	if err := s.c.Set(ctx, latestKey, rec, s.ttl); err != nil {
		if s.l != nil {
			s.l.Warn("snapshot put_latest error", applogger.Error(err))
		}
		return err
	}
	return nil
}

func (s *RedisSnapshot) GetLatest(ctx context.Context) (models.LatestRecord, bool, error) {
	var rec models.LatestRecord
	err := s.c.Get(ctx, latestKey, &rec)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return rec, false, nil
		}
		if s.l != nil {
			s.l.Warn("snapshot get_latest error", applogger.Error(err))
		}
		return rec, false, err
	}
	return rec, true, nil
}
