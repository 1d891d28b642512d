package store

import "github.com/gridswap/swapdash/internal/types"

// AddPendingIntervention appends an intervention to the pending sequence.
// Order is preserved: the sequence is sent verbatim to the simulation
// service, and application order can affect results for overlapping time
// windows.
func (s *Store) AddPendingIntervention(item types.Intervention) {
	s.mu.Lock()
	s.pending = append(s.pending, item)
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "addPending"})
}

// RemovePendingIntervention removes the intervention at the given position.
// An out-of-range index is a silent no-op.
func (s *Store) RemovePendingIntervention(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.pending) {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "removePending"})
}

// PromotePending atomically moves the entire pending sequence into active,
// clearing pending. An empty pending sequence leaves active untouched, so
// re-running a scenario without new edits replays the active set.
func (s *Store) PromotePending() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	s.active = s.pending
	s.pending = nil
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "promotePending"})
}

// PendingInterventions returns a copy of the pending sequence.
func (s *Store) PendingInterventions() []types.Intervention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Intervention, len(s.pending))
	copy(out, s.pending)
	return out
}

// ActiveInterventions returns a copy of the active sequence: the set that
// produced the currently displayed result.
func (s *Store) ActiveInterventions() []types.Intervention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Intervention, len(s.active))
	copy(out, s.active)
	return out
}

// AddScenario records a created scenario.
func (s *Store) AddScenario(sc types.Scenario) {
	s.mu.Lock()
	s.scenarios = append(s.scenarios, sc)
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "addScenario"})
}

// SetScenarioStatus updates a recorded scenario's lifecycle status.
func (s *Store) SetScenarioStatus(scenarioID string, status types.ScenarioStatus) {
	s.mu.Lock()
	for i := range s.scenarios {
		if s.scenarios[i].ID == scenarioID {
			s.scenarios[i].Status = status
			break
		}
	}
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setScenarioStatus"})
}

// Scenarios returns a copy of the recorded scenarios.
func (s *Store) Scenarios() []types.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Scenario, len(s.scenarios))
	copy(out, s.scenarios)
	return out
}

// SetSimulationResult replaces the displayed simulation result wholesale.
// Results are immutable once received.
func (s *Store) SetSimulationResult(result *types.SimulationResult) {
	s.mu.Lock()
	s.simulationResult = result
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setResult"})
}

// SimulationResult returns the currently displayed result, or nil when no
// run has completed yet.
func (s *Store) SimulationResult() *types.SimulationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simulationResult
}

// SetRunState transitions the simulation run state machine.
func (s *Store) SetRunState(phase RunPhase, message string) {
	s.mu.Lock()
	s.runState = RunState{Phase: phase, Message: message}
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setRunState"})
}

// RunState returns the current run state.
func (s *Store) RunState() RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runState
}

// TryBeginRun transitions the run state machine to running, or returns
// false when a run is already in flight. Check and transition happen under
// one lock acquisition so concurrent callers cannot both enter.
func (s *Store) TryBeginRun() bool {
	s.mu.Lock()
	if s.runState.Phase == RunRunning {
		s.mu.Unlock()
		return false
	}
	s.runState = RunState{Phase: RunRunning}
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setRunState"})
	return true
}

// TryBeginBaseline sets the baseline-run guard, or returns false when a
// baseline run is already in flight. Same single-acquisition contract as
// TryBeginRun.
func (s *Store) TryBeginBaseline() bool {
	s.mu.Lock()
	if s.baselineRunning {
		s.mu.Unlock()
		return false
	}
	s.baselineRunning = true
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setBaselineRunning"})
	return true
}

// SetBaselineRunning flips the independent baseline-run guard.
func (s *Store) SetBaselineRunning(running bool) {
	s.mu.Lock()
	s.baselineRunning = running
	s.mu.Unlock()

	s.notify(Event{Slice: SliceScenarios, Action: "setBaselineRunning"})
}

// BaselineRunning reports whether a baseline run is in flight.
func (s *Store) BaselineRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baselineRunning
}
