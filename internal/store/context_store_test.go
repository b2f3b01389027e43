package store

import (
	"testing"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestStore(t *testing.T) (*ContextStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	return NewContextStore(10*time.Minute, clock.Now, logger.NewTestLogger(t)), clock
}

func TestContextStore_CreatesFreshOnFirstAccess(t *testing.T) {
	s, _ := newTestStore(t)

	c := s.Get("tenant-1", "chan-1")
	require.NotNil(t, c)
	assert.NotEmpty(t, c.SessionID)
	assert.Equal(t, "tenant-1", c.TenantID)
	assert.Equal(t, c.CreatedAt.Add(10*time.Minute), c.ExpiresAt)
}

func TestContextStore_ActiveEntryIsReused(t *testing.T) {
	s, clock := newTestStore(t)

	first := s.Get("tenant-1", "chan-1")
	clock.Advance(5 * time.Minute)
	second := s.Get("tenant-1", "chan-1")

	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestContextStore_ExpiredEntryIsRecreated(t *testing.T) {
	s, clock := newTestStore(t)

	s.Update("tenant-1", "chan-1", func(c *models.ConversationContext) {
		c.LastCategory = models.CategoryLedger
		c.LastQueryText = "cash balance"
	})
	first := s.Get("tenant-1", "chan-1")

	clock.Advance(11 * time.Minute)
	second := s.Get("tenant-1", "chan-1")

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Empty(t, second.LastCategory)
	assert.Empty(t, second.LastQueryText)
}

func TestContextStore_UpdateResetsTTL(t *testing.T) {
	s, clock := newTestStore(t)

	first := s.Get("tenant-1", "chan-1")

	clock.Advance(8 * time.Minute)
	s.Update("tenant-1", "chan-1", func(c *models.ConversationContext) {
		c.LastQueryText = "sales today"
	})

	// 8m + 8m would be past the original window, but update restarted it
	clock.Advance(8 * time.Minute)
	c := s.Get("tenant-1", "chan-1")
	assert.Equal(t, first.SessionID, c.SessionID)
	assert.Equal(t, "sales today", c.LastQueryText)
}

func TestContextStore_KeysAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)

	a := s.Get("tenant-1", "chan-1")
	b := s.Get("tenant-2", "chan-1")
	c := s.Get("tenant-1", "chan-2")

	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.NotEqual(t, a.SessionID, c.SessionID)
}

func TestContextStore_ClearResultSet(t *testing.T) {
	s, _ := newTestStore(t)

	s.Update("tenant-1", "chan-1", func(c *models.ConversationContext) {
		c.LastResultSet = []interface{}{"a", "b", "c"}
		c.LastCategory = models.CategoryLedger
	})
	s.ClearResultSet("tenant-1", "chan-1")

	c := s.Get("tenant-1", "chan-1")
	assert.Nil(t, c.LastResultSet)
	assert.Equal(t, models.CategoryLedger, c.LastCategory)
}

func TestContextStore_SweepDropsOnlyExpired(t *testing.T) {
	s, clock := newTestStore(t)

	s.Get("tenant-1", "chan-1")
	clock.Advance(6 * time.Minute)
	s.Get("tenant-2", "chan-2")

	clock.Advance(5 * time.Minute) // first is 11m old, second 5m

	dropped := s.Sweep()
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, s.Len())
}

func TestContextStore_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)

	s.Update("tenant-1", "chan-1", func(c *models.ConversationContext) {
		c.LastResultSet = []interface{}{"a"}
	})

	c := s.Get("tenant-1", "chan-1")
	c.LastResultSet[0] = "mutated"

	again := s.Get("tenant-1", "chan-1")
	assert.Equal(t, "a", again.LastResultSet[0])
}
