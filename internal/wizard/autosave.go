package wizard

import (
	"context"
	"log"
	"sync"
	"time"

	"taller-backend/internal/metrics"
)

const (
	autosaveInterval = 30 * time.Second
	autosaveDebounce = 2 * time.Second
)

// Autosaver writes a session's snapshot to its draft store on a fixed
// interval, and additionally shortly after the last state change,
// whichever fires first. It only writes while the session holds
// significant data.
type Autosaver struct {
	session *Session
	store   DraftStore
	key     string

	// OnActivated, when set, fires the first time a draft is written
	// for the session. Feeds the one-shot "auto-save active"
	// notification.
	OnActivated func()

	mu       sync.Mutex
	debounce *time.Timer
	ticker   *time.Ticker
	done     chan struct{}
	stopped  bool
}

// NewAutosaver wires an autosaver to a session. Start must be called
// to begin saving; Stop must be called on teardown or timers keep
// writing after the wizard is closed.
func NewAutosaver(session *Session, store DraftStore, key string) *Autosaver {
	return &Autosaver{
		session: session,
		store:   store,
		key:     key,
		done:    make(chan struct{}),
	}
}

func (a *Autosaver) Start() {
	a.ticker = time.NewTicker(autosaveInterval)
	a.session.SetOnChange(a.bump)
	go func() {
		for {
			select {
			case <-a.ticker.C:
				a.save()
			case <-a.done:
				return
			}
		}
	}()
}

// bump arms the short debounce timer after a state change.
func (a *Autosaver) bump() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.debounce != nil {
		a.debounce.Stop()
	}
	a.debounce = time.AfterFunc(autosaveDebounce, a.save)
}

func (a *Autosaver) save() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	if !a.session.HoldsSignificantData() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, a.key, a.session.Snapshot()); err != nil {
		log.Printf("[Draft] Auto-save failed for %s: %v", a.key, err)
		return
	}
	metrics.DraftSavesTotal.Inc()
	if a.session.MarcarAvisoAutosave() && a.OnActivated != nil {
		a.OnActivated()
	}
}

// Flush writes a snapshot immediately, regardless of timers.
func (a *Autosaver) Flush() {
	a.save()
}

// Stop cancels the interval and any armed debounce timer.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	if a.debounce != nil {
		a.debounce.Stop()
	}
	if a.ticker != nil {
		a.ticker.Stop()
	}
	close(a.done)
}
