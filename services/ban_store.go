package services

import (
	"sync"
	"time"
)

// BanStore maps a tab identifier to its ban expiry. Expired entries are
// evicted lazily on lookup; there is no background sweep.
type BanStore struct {
	mu   sync.Mutex
	bans map[string]time.Time
}

func NewBanStore() *BanStore {
	return &BanStore{bans: make(map[string]time.Time)}
}

func (b *BanStore) Ban(tabID string, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bans[tabID] = until
}

// BannedUntil reports whether the tab is currently banned and until when.
func (b *BanStore) BannedUntil(tabID string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.bans[tabID]
	if !ok {
		return time.Time{}, false
	}
	if time.Now().After(until) {
		delete(b.bans, tabID)
		return time.Time{}, false
	}
	return until, true
}
