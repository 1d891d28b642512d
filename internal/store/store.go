// Package store is the session-scoped state container for the dashboard.
// State is split into normalized slices (stations, scenarios, projects, UI,
// auth); every mutation goes through a declared action method on the store
// and is serialized behind a single mutex, so actions apply in dispatch
// order. Reads return copies. Components observe changes via Subscribe.
package store

import (
	"sync"

	"github.com/gridswap/swapdash/internal/picking"
	"github.com/gridswap/swapdash/internal/types"
)

// Slice names the state slice an event belongs to.
type Slice string

const (
	SliceStations  Slice = "stations"
	SliceScenarios Slice = "scenarios"
	SliceProjects  Slice = "projects"
	SliceUI        Slice = "ui"
	SliceAuth      Slice = "auth"
)

// Event describes one applied action, delivered to subscribers after the
// mutation committed.
type Event struct {
	Slice  Slice
	Action string
}

// RunPhase is the lifecycle phase of the current simulation run.
type RunPhase string

const (
	RunIdle      RunPhase = "idle"
	RunRunning   RunPhase = "running"
	RunCompleted RunPhase = "completed"
	RunFailed    RunPhase = "failed"
)

// RunState is the state machine for a single simulation run. Failed carries
// a human-readable message; prior results are never discarded on failure.
type RunState struct {
	Phase   RunPhase `json:"phase"`
	Message string   `json:"message,omitempty"`
}

// Notification is a transient user-facing message.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Store holds all dashboard session state.
type Store struct {
	mu sync.RWMutex

	// stations slice
	stations []types.Station

	// scenarios slice
	pending          []types.Intervention
	active           []types.Intervention
	scenarios        []types.Scenario
	simulationResult *types.SimulationResult
	runState         RunState
	baselineRunning  bool

	// projects slice
	project       *types.Project
	baselineCosts *types.CostBreakdown

	// ui slice
	modalVisible  map[picking.ModalTag]bool
	notifications []Notification
	coordinator   *picking.Coordinator

	// auth slice
	user  *types.User
	token string

	listeners    map[int]func(Event)
	nextListener int
}

// New creates an empty store with an idle picking coordinator.
func New() *Store {
	s := &Store{
		modalVisible: make(map[picking.ModalTag]bool),
		runState:     RunState{Phase: RunIdle},
	}
	s.coordinator = picking.NewCoordinator(s)
	return s
}

// Picking returns the store's location-picking coordinator. The coordinator
// lives inside the UI slice: its only side effects are the modal visibility
// flags held here.
func (s *Store) Picking() *picking.Coordinator {
	return s.coordinator
}

// Subscribe registers a callback invoked after every applied action. The
// returned func unsubscribes it; transient observers such as WebSocket
// connections must call it when they go away.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(Event))
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify delivers an event to subscribers. Called without the lock held so
// subscribers may read the store.
func (s *Store) notify(e Event) {
	s.mu.RLock()
	listeners := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(e)
	}
}
