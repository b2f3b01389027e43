// Package store holds the conversation-context and query-cache stores injected
// into the orchestrator.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/common/metrics"
	"ledger-assistant/internal/models"
)

// Clock is injected so TTL behavior is testable with a fake time source.
type Clock func() time.Time

// ContextStore keeps one ConversationContext per (tenantId, channelId) key.
// Entries past their TTL are indistinguishable from absent and are recreated
// fresh, never reused. Mutations are guarded by a store-wide mutex and never
// span an I/O call, preserving last-write-wins per key under parallel
// execution.
type ContextStore struct {
	mu      sync.RWMutex
	entries map[string]*models.ConversationContext
	ttl     time.Duration
	now     Clock
	logger  logger.Logger
}

func NewContextStore(ttl time.Duration, now Clock, log logger.Logger) *ContextStore {
	if now == nil {
		now = time.Now
	}
	return &ContextStore{
		entries: make(map[string]*models.ConversationContext),
		ttl:     ttl,
		now:     now,
		logger:  log.WithFields(map[string]interface{}{"component": "context-store"}),
	}
}

func contextKey(tenantID, channelID string) string {
	return tenantID + "|" + channelID
}

// Get returns the live context for the key, creating a fresh one with a new
// session id when absent or expired.
func (s *ContextStore) Get(tenantID, channelID string) *models.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := contextKey(tenantID, channelID)
	now := s.now()

	if c, ok := s.entries[key]; ok && now.Before(c.ExpiresAt) {
		return cloneContext(c)
	}

	fresh := &models.ConversationContext{
		SessionID: uuid.NewString(),
		ChannelID: channelID,
		TenantID:  tenantID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.entries[key] = fresh
	metrics.ContextsActive.Set(float64(len(s.entries)))
	return cloneContext(fresh)
}

// Update records a resolution against the key. Absent or expired entries are
// recreated first, then mutated, and the TTL window restarts from now.
func (s *ContextStore) Update(tenantID, channelID string, mutate func(*models.ConversationContext)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := contextKey(tenantID, channelID)
	now := s.now()

	c, ok := s.entries[key]
	if !ok || !now.Before(c.ExpiresAt) {
		c = &models.ConversationContext{
			SessionID: uuid.NewString(),
			ChannelID: channelID,
			TenantID:  tenantID,
			CreatedAt: now,
		}
		s.entries[key] = c
	}

	mutate(c)
	c.ExpiresAt = now.Add(s.ttl)
	metrics.ContextsActive.Set(float64(len(s.entries)))
}

// ClearResultSet drops continuation eligibility for the key, so a second
// numeric reply does not resolve against a stale list.
func (s *ContextStore) ClearResultSet(tenantID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.entries[contextKey(tenantID, channelID)]; ok {
		c.LastResultSet = nil
	}
}

// Sweep removes expired entries and returns how many were dropped. It holds
// the lock only for the map walk, never across I/O.
func (s *ContextStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for key, c := range s.entries {
		if !now.Before(c.ExpiresAt) {
			delete(s.entries, key)
			dropped++
		}
	}
	metrics.ContextsActive.Set(float64(len(s.entries)))
	return dropped
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (s *ContextStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if dropped := s.Sweep(); dropped > 0 {
					s.logger.Debug("swept expired contexts", map[string]interface{}{
						"dropped": dropped,
					})
				}
			}
		}
	}()
}

// Len reports the number of stored entries, live or not.
func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneContext(c *models.ConversationContext) *models.ConversationContext {
	cp := *c
	if c.LastResultSet != nil {
		cp.LastResultSet = make([]interface{}, len(c.LastResultSet))
		copy(cp.LastResultSet, c.LastResultSet)
	}
	return &cp
}
