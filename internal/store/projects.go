package store

import "github.com/gridswap/swapdash/internal/types"

// SetProject makes the given project the session's current project.
func (s *Store) SetProject(p *types.Project) {
	s.mu.Lock()
	s.project = p
	s.mu.Unlock()

	s.notify(Event{Slice: SliceProjects, Action: "setProject"})
}

// Project returns the current project, or nil when none is loaded.
func (s *Store) Project() *types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// SetBaselineKPIs stores baseline KPIs on the current project record.
// Baseline results live on the project, not on any scenario: they are a
// project-level reference point reused across many scenario runs.
func (s *Store) SetBaselineKPIs(kpis *types.KPISummary) {
	s.mu.Lock()
	if s.project != nil {
		s.project.BaselineKPIs = kpis
		s.project.BaselineValid = kpis != nil
	}
	s.mu.Unlock()

	s.notify(Event{Slice: SliceProjects, Action: "setBaselineKPIs"})
}

// BaselineKPIs returns the current project's stored baseline KPIs, if any.
func (s *Store) BaselineKPIs() *types.KPISummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	return s.project.BaselineKPIs
}

// SetBaselineCosts stores the baseline run's cost breakdown, the reference
// side of the cost comparison panel.
func (s *Store) SetBaselineCosts(costs *types.CostBreakdown) {
	s.mu.Lock()
	s.baselineCosts = costs
	s.mu.Unlock()

	s.notify(Event{Slice: SliceProjects, Action: "setBaselineCosts"})
}

// BaselineCosts returns the baseline run's cost breakdown, if any.
func (s *Store) BaselineCosts() *types.CostBreakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baselineCosts
}
