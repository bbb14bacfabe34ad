package challenge

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps challenges in process memory. Entries do not survive a
// restart.
type MemoryLedger struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[uint64]Entry
}

// MemoryOption customizes a MemoryLedger.
type MemoryOption func(*MemoryLedger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewMemoryLedger creates an empty ledger whose entries expire after ttl.
func NewMemoryLedger(ttl time.Duration, opts ...MemoryOption) *MemoryLedger {
	l := &MemoryLedger{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[uint64]Entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issue stores entry for adminID, replacing any previous one.
func (l *MemoryLedger) Issue(_ context.Context, adminID uint64, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.IssuedAt.IsZero() {
		entry.IssuedAt = l.now()
	}
	l.items[adminID] = entry
	return nil
}

// Peek returns the live entry for adminID.
func (l *MemoryLedger) Peek(_ context.Context, adminID uint64) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[adminID]
	if !ok {
		return Entry{}, false, nil
	}
	if l.expired(entry) {
		delete(l.items, adminID)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Consume returns and removes the live entry for adminID.
func (l *MemoryLedger) Consume(_ context.Context, adminID uint64) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[adminID]
	if !ok {
		return Entry{}, false, nil
	}
	delete(l.items, adminID)
	if l.expired(entry) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Sweep drops expired entries and returns how many were removed.
func (l *MemoryLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for adminID, entry := range l.items {
		if l.expired(entry) {
			delete(l.items, adminID)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Run sweeps expired entries every interval until ctx is done.
func (l *MemoryLedger) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *MemoryLedger) expired(entry Entry) bool {
	if l.ttl <= 0 {
		return false
	}
	return !l.now().Before(entry.IssuedAt.Add(l.ttl))
}
