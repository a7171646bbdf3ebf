package wizard

import (
	"context"
	"sync"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

// DraftTTL is how long an auto-saved snapshot stays recoverable.
const DraftTTL = 24 * time.Hour

// DraftStore persists wizard snapshots keyed per order session. The
// orchestrator receives one by injection so tests can run against the
// in-memory implementation.
type DraftStore interface {
	// Load returns the stored snapshot, or nil when none exists.
	// Corrupt data is treated as absence, never as an error.
	Load(ctx context.Context, key string) (*models.DraftSnapshot, error)
	Save(ctx context.Context, key string, snap *models.DraftSnapshot) error
	Clear(ctx context.Context, key string) error
	IsExpired(snap *models.DraftSnapshot) bool
}

// Expired reports whether the snapshot is stale relative to now, or
// carries an unknown layout version.
func Expired(snap *models.DraftSnapshot, now time.Time) bool {
	if snap == nil {
		return true
	}
	if snap.Version != models.DraftVersion {
		return true
	}
	return now.Sub(snap.Timestamp) > DraftTTL
}

// MemoryDraftStore keeps snapshots in a map. It backs the wizard when
// Redis is unavailable and every test.
type MemoryDraftStore struct {
	mu    sync.Mutex
	data  map[string]*models.DraftSnapshot
	clock func() time.Time
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{
		data:  make(map[string]*models.DraftSnapshot),
		clock: timeutil.Now,
	}
}

// SetClock overrides the store's notion of now. Test hook.
func (m *MemoryDraftStore) SetClock(clock func() time.Time) {
	m.clock = clock
}

func (m *MemoryDraftStore) Load(ctx context.Context, key string) (*models.DraftSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (m *MemoryDraftStore) Save(ctx context.Context, key string, snap *models.DraftSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	m.data[key] = &cp
	return nil
}

func (m *MemoryDraftStore) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryDraftStore) IsExpired(snap *models.DraftSnapshot) bool {
	return Expired(snap, m.clock())
}
