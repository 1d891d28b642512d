package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridswap/swapdash/internal/playback"
	"github.com/gridswap/swapdash/internal/scenario"
	"github.com/gridswap/swapdash/internal/store"
	"github.com/gridswap/swapdash/internal/types"
)

// sessionTTL is how long an idle session survives before the janitor
// evicts it and stops its playback engine.
const sessionTTL = 2 * time.Hour

// Session bundles the per-browser-session state engines: the reactive
// store, the scenario manager and the timeline playback engine.
type Session struct {
	ID       string
	Store    *store.Store
	Manager  *scenario.Manager
	Playback *playback.Engine

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionRegistry tracks live sessions by ID.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newManager  func(st *store.Store) *scenario.Manager
	newPlayback func() *playback.Engine
}

// NewSessionRegistry creates a registry. The two factories let the
// controller inject the sim client, archive channel and playback interval
// without the registry importing any of them.
func NewSessionRegistry(newManager func(st *store.Store) *scenario.Manager, newPlayback func() *playback.Engine) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*Session),
		newManager:  newManager,
		newPlayback: newPlayback,
	}
}

// Create builds a new session with fresh state engines.
func (r *SessionRegistry) Create() *Session {
	st := store.New()
	s := &Session{
		ID:       uuid.New().String(),
		Store:    st,
		Manager:  r.newManager(st),
		Playback: r.newPlayback(),
		lastSeen: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session by ID, refreshing its idle timer.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Delete removes a session and stops its playback engine.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Playback.Close()
	}
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartJanitor evicts idle sessions until the context is cancelled.
func (r *SessionRegistry) StartJanitor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.evictIdle(time.Now().Add(-sessionTTL))
			case <-ctx.Done():
				r.closeAll()
				return
			}
		}
	}()
}

func (r *SessionRegistry) evictIdle(cutoff time.Time) {
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Playback.Close()
	}
}

func (r *SessionRegistry) closeAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, s := range sessions {
		s.Playback.Close()
	}
}

// stateSnapshot is the full session state returned by the state endpoint,
// letting a reconnecting browser rebuild its view in one request.
type stateSnapshot struct {
	SessionID       string                  `json:"session_id"`
	Project         *types.Project          `json:"project,omitempty"`
	Stations        []types.Station         `json:"stations"`
	Pending         []types.Intervention    `json:"pending_interventions"`
	Active          []types.Intervention    `json:"active_interventions"`
	Scenarios       []types.Scenario        `json:"scenarios"`
	RunState        store.RunState          `json:"run_state"`
	BaselineRunning bool                    `json:"baseline_running"`
	Result          *types.SimulationResult `json:"result,omitempty"`
	Picking         interface{}             `json:"picking"`
	Playback        playback.Snapshot       `json:"playback"`
}

func (s *Session) snapshot() stateSnapshot {
	return stateSnapshot{
		SessionID:       s.ID,
		Project:         s.Store.Project(),
		Stations:        s.Store.Stations(),
		Pending:         s.Store.PendingInterventions(),
		Active:          s.Store.ActiveInterventions(),
		Scenarios:       s.Store.Scenarios(),
		RunState:        s.Store.RunState(),
		BaselineRunning: s.Store.BaselineRunning(),
		Result:          s.Store.SimulationResult(),
		Picking:         s.Store.Picking().Snapshot(),
		Playback:        s.Playback.Snapshot(),
	}
}
