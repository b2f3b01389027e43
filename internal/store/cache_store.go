package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

const cacheKeyPrefix = "qcache"

// CacheStore memoizes responses per (tenant, verbatim query text) in Redis.
// The eviction policy is explicit configuration: ttl 0 means entries live
// until ClearTenant is called by the re-sync job.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
	now    Clock
	logger logger.Logger
}

func NewCacheStore(client *redis.Client, ttl time.Duration, now Clock, log logger.Logger) *CacheStore {
	if now == nil {
		now = time.Now
	}
	return &CacheStore{
		client: client,
		ttl:    ttl,
		now:    now,
		logger: log.WithFields(map[string]interface{}{"component": "cache-store"}),
	}
}

func cacheKey(tenantID, queryText string) string {
	// queryText stays verbatim and case-sensitive per the cache contract
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, tenantID, queryText)
}

// Get returns the cached entry or (nil, nil) on a miss. Store errors are
// returned so the caller can degrade to a fresh resolution.
func (s *CacheStore) Get(ctx context.Context, tenantID, queryText string) (*models.CacheEntry, error) {
	raw, err := s.client.Get(ctx, cacheKey(tenantID, queryText)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// a corrupt entry behaves as a miss
		s.logger.Warn("dropping unreadable cache entry", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
		return nil, nil
	}
	return &entry, nil
}

// Set writes an entry, stamping CreatedAt from the injected clock.
func (s *CacheStore) Set(ctx context.Context, tenantID, queryText string, data interface{}, humanText string) error {
	entry := models.CacheEntry{
		TenantID:  tenantID,
		QueryText: queryText,
		Data:      data,
		HumanText: humanText,
		CreatedAt: s.now(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := s.client.Set(ctx, cacheKey(tenantID, queryText), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// ClearTenant removes every cached answer for a tenant. The bulk replication
// job calls this after a data refresh.
func (s *CacheStore) ClearTenant(ctx context.Context, tenantID string) error {
	pattern := fmt.Sprintf("%s:%s:*", cacheKeyPrefix, tenantID)

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}
