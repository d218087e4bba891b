package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBanStoreLifecycle(t *testing.T) {
	store := NewBanStore()

	_, banned := store.BannedUntil("tab-a")
	assert.False(t, banned)

	until := time.Now().Add(10 * time.Minute)
	store.Ban("tab-a", until)

	got, banned := store.BannedUntil("tab-a")
	assert.True(t, banned)
	assert.Equal(t, until, got)

	_, banned = store.BannedUntil("tab-b")
	assert.False(t, banned, "bans are per tab")
}

func TestBanStoreLazyEviction(t *testing.T) {
	store := NewBanStore()
	store.Ban("tab-a", time.Now().Add(10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, banned := store.BannedUntil("tab-a")
	assert.False(t, banned, "expired entries are evicted on lookup")

	// evicted, so a second lookup also misses
	_, banned = store.BannedUntil("tab-a")
	assert.False(t, banned)
}

func TestBanStoreRebanExtends(t *testing.T) {
	store := NewBanStore()
	store.Ban("tab-a", time.Now().Add(time.Minute))
	later := time.Now().Add(time.Hour)
	store.Ban("tab-a", later)

	got, banned := store.BannedUntil("tab-a")
	assert.True(t, banned)
	assert.Equal(t, later, got)
}
