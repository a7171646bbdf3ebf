package wizard

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

// Sessions idle past sessionIdleTTL are flushed and closed by the
// sweeper so abandoned wizards do not pile up tickers.
const (
	sessionIdleTTL  = 2 * time.Hour
	reapSweepPeriod = 10 * time.Minute
)

// Manager owns the live wizard sessions and their autosavers. Draft
// keys are stable per order ("orden:<id>") or per form variant for
// brand-new orders ("nueva:<variant>"), so a reopened wizard finds its
// own draft.
type Manager struct {
	mu       sync.Mutex
	store    DraftStore
	sessions map[string]*Session
	savers   map[string]*Autosaver
	reapDone chan struct{}

	// OnAutosaveActivated receives the session id the first time its
	// draft is written. The events feed pushes it to the client.
	OnAutosaveActivated func(sessionID string)
}

func NewManager(store DraftStore) *Manager {
	m := &Manager{
		store:    store,
		sessions: make(map[string]*Session),
		savers:   make(map[string]*Autosaver),
		reapDone: make(chan struct{}),
	}
	go m.reapLoop()
	return m
}

// Shutdown stops the idle-session sweeper. Live sessions are left to
// their owners.
func (m *Manager) Shutdown() {
	close(m.reapDone)
}

func (m *Manager) reapLoop() {
	ticker := time.NewTicker(reapSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.ReapIdle(sessionIdleTTL); n > 0 {
				log.Printf("[Wizard] Cerradas %d sesiones inactivas", n)
			}
		case <-m.reapDone:
			return
		}
	}
}

// ReapIdle closes every session with no activity since maxIdle ago.
// Pending drafts are flushed first, so an abandoned wizard stays
// recoverable through its draft key.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := timeutil.Now().Add(-maxIdle)

	m.mu.Lock()
	var ids []string
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		saver := m.savers[id]
		m.mu.Unlock()
		if saver != nil {
			saver.Flush()
		}
		m.Close(id)
	}
	return len(ids)
}

// OpenResult reports whether a recoverable draft was found when the
// session opened. The caller presents the choice; nothing is restored
// until RecoverDraft is called.
type OpenResult struct {
	Session *Session
	Draft   *models.DraftSnapshot
}

// Open creates a session and checks the draft store for a non-expired
// snapshot with significant data under the session's draft key.
// Expired or corrupt drafts are cleared silently.
func (m *Manager) Open(ctx context.Context, variant models.FormVariant, ordenID *int) (*OpenResult, error) {
	s := NewSession(variant)
	s.OrdenID = ordenID

	key := draftKeyFor(s)
	snap, err := m.store.Load(ctx, key)
	if err != nil {
		// A broken draft store must not block opening the wizard; the
		// session just starts without a recovery offer.
		log.Printf("[Draft] Load %s failed: %v", key, err)
		snap = nil
	}
	if snap != nil && m.store.IsExpired(snap) {
		m.store.Clear(ctx, key)
		snap = nil
	}
	if snap != nil && !snapshotSignificant(snap) {
		snap = nil
	}

	saver := NewAutosaver(s, m.store, key)
	saver.OnActivated = func() {
		if m.OnAutosaveActivated != nil {
			m.OnAutosaveActivated(s.ID)
		}
	}
	saver.Start()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.savers[s.ID] = saver
	m.mu.Unlock()

	return &OpenResult{Session: s, Draft: snap}, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// RecoverDraft replaces the session's state with the stored snapshot.
func (m *Manager) RecoverDraft(ctx context.Context, id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSesionCerrada
	}
	snap, err := m.store.Load(ctx, draftKeyFor(s))
	if err != nil {
		return err
	}
	if snap == nil || m.store.IsExpired(snap) {
		return nil
	}
	s.Restore(snap)
	return nil
}

// DiscardDraft deletes the stored snapshot without touching the
// session.
func (m *Manager) DiscardDraft(ctx context.Context, id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSesionCerrada
	}
	return m.store.Clear(ctx, draftKeyFor(s))
}

// ClearAfterSubmit removes the draft and re-captures the dirty
// baseline once an order was persisted.
func (m *Manager) ClearAfterSubmit(ctx context.Context, id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSesionCerrada
	}
	if err := m.store.Clear(ctx, draftKeyFor(s)); err != nil {
		return err
	}
	s.CaptureBaseline()
	return nil
}

// Close tears the session down: autosave timers first, then the
// session's own commit timers.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	saver := m.savers[id]
	delete(m.sessions, id)
	delete(m.savers, id)
	m.mu.Unlock()
	if saver != nil {
		saver.Stop()
	}
	if s != nil {
		s.Close()
	}
}

func draftKeyFor(s *Session) string {
	if s.OrdenID != nil {
		return "orden:" + strconv.Itoa(*s.OrdenID)
	}
	// New orders share one key per form variant. A session-scoped key
	// would never be found again after a crash.
	return "nueva:" + string(s.Variant)
}

func snapshotSignificant(snap *models.DraftSnapshot) bool {
	if snap.ClienteValido || len(snap.DispositivosAgregados) > 0 {
		return true
	}
	for _, t := range snap.TerminalesCompletos {
		if t.DiagnosticoCompletado || t.PresupuestoCompletado {
			return true
		}
	}
	return false
}
