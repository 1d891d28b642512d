// Package scenario owns the intervention and simulation-run lifecycle:
// assembling pending interventions, submitting them as a scenario to the
// remote service, promoting them to active on success, and keeping the
// baseline reference point up to date.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gridswap/swapdash/internal/store"
	"github.com/gridswap/swapdash/internal/types"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// ErrRunInProgress guards against re-entrant simulation runs.
var ErrRunInProgress = errors.New("a simulation run is already in progress")

// ErrNoProject is returned when no project has been loaded into the session.
var ErrNoProject = errors.New("no project loaded")

// ErrNoBaseline is returned for operations that need baseline KPIs before
// any baseline run has completed.
var ErrNoBaseline = errors.New("no baseline KPIs available; run the baseline first")

// SimulationFailedError is a structurally successful run whose payload
// reports failure. Distinguished from transport failures because pending
// interventions are explicitly preserved in this path.
type SimulationFailedError struct {
	Message string
}

func (e *SimulationFailedError) Error() string {
	if e.Message == "" {
		return "simulation reported failure"
	}
	return "simulation reported failure: " + e.Message
}

// SimService is the slice of the simulation client the manager depends on.
type SimService interface {
	CreateScenario(ctx context.Context, projectID string, sc types.Scenario) (*types.Scenario, error)
	RunScenario(ctx context.Context, projectID, scenarioID string) (*types.SimulationResult, error)
	RunBaseline(ctx context.Context, projectID string) (*types.KPISummary, *types.CostBreakdown, error)
	Optimize(ctx context.Context, baseline types.KPISummary) ([]types.OptimizationSuggestion, error)
}

// Manager coordinates scenario runs for one dashboard session.
type Manager struct {
	store   *store.Store
	client  SimService
	logger  *zap.SugaredLogger
	archive chan<- types.RunRecord
}

// NewManager creates a manager. archive may be nil when no run-history
// archive is configured.
func NewManager(st *store.Store, client SimService, archive chan<- types.RunRecord, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		store:   st,
		client:  client,
		logger:  logger,
		archive: archive,
	}
}

// AddPending appends an intervention to the pending sequence.
func (m *Manager) AddPending(item types.Intervention) {
	m.store.AddPendingIntervention(item)
}

// RemovePending removes a pending intervention by position.
func (m *Manager) RemovePending(index int) {
	m.store.RemovePendingIntervention(index)
}

// RunSimulation creates a scenario from the current interventions and
// executes it remotely. On success the result replaces the displayed one and
// a non-empty pending sequence is promoted to active. On any failure the
// pending sequence is left untouched so in-progress edits are never lost.
func (m *Manager) RunSimulation(ctx context.Context, name string, durationHours int) (*types.SimulationResult, error) {
	if !m.store.TryBeginRun() {
		return nil, ErrRunInProgress
	}
	project := m.store.Project()
	if project == nil {
		m.store.SetRunState(store.RunIdle, "")
		return nil, ErrNoProject
	}

	pending := m.store.PendingInterventions()
	interventions := pending
	if len(interventions) == 0 {
		// Replay: an empty pending list re-runs whatever is active
		// without the user re-entering parameters.
		interventions = m.store.ActiveInterventions()
	}

	if name == "" {
		name = fmt.Sprintf("Scenario %s", time.Now().Format("2006-01-02 15:04:05"))
	}
	if durationHours <= 0 {
		durationHours = 24
	}

	created, err := m.client.CreateScenario(ctx, project.ID, types.Scenario{
		ID:            uuid.New().String(),
		ProjectID:     project.ID,
		Name:          name,
		Status:        types.ScenarioDraft,
		DurationHours: durationHours,
		Interventions: interventions,
	})
	if err != nil {
		m.failRun(fmt.Sprintf("could not create scenario: %v", err))
		return nil, err
	}
	m.store.AddScenario(*created)
	m.store.SetScenarioStatus(created.ID, types.ScenarioRunning)

	result, err := m.client.RunScenario(ctx, project.ID, created.ID)
	if err != nil {
		m.store.SetScenarioStatus(created.ID, types.ScenarioFailed)
		m.failRun(fmt.Sprintf("simulation run failed: %v", err))
		return nil, err
	}

	if result.Status == "failed" {
		// Structurally fine, semantically failed. Pending is preserved.
		m.store.SetScenarioStatus(created.ID, types.ScenarioFailed)
		m.failRun(result.Error)
		m.archiveRun(project.ID, created, result)
		return nil, &SimulationFailedError{Message: result.Error}
	}

	m.store.SetSimulationResult(result)
	if len(pending) > 0 {
		m.store.PromotePending()
	}
	m.store.SetScenarioStatus(created.ID, types.ScenarioCompleted)
	m.store.SetRunState(store.RunCompleted, "")
	m.archiveRun(project.ID, created, result)
	return result, nil
}

// failRun records a failed run: the state machine returns control to idle
// territory (a new run may start) while surfacing the message, and the
// prior result is never discarded.
func (m *Manager) failRun(message string) {
	m.store.SetRunState(store.RunFailed, message)
	m.store.PushNotification("error", message)
}

// RunBaseline runs the baseline-only simulation and stores the KPIs on the
// project record. It is guarded independently of RunSimulation: the two may
// be in flight concurrently and write to disjoint state.
func (m *Manager) RunBaseline(ctx context.Context) (*types.KPISummary, error) {
	if !m.store.TryBeginBaseline() {
		return nil, ErrRunInProgress
	}
	defer m.store.SetBaselineRunning(false)

	project := m.store.Project()
	if project == nil {
		return nil, ErrNoProject
	}

	kpis, costs, err := m.client.RunBaseline(ctx, project.ID)
	if err != nil {
		m.store.PushNotification("error", fmt.Sprintf("baseline run failed: %v", err))
		return nil, err
	}

	m.store.SetBaselineKPIs(kpis)
	m.store.SetBaselineCosts(costs)
	return kpis, nil
}

// FetchSuggestions asks the optimizer for suggestions against the stored
// baseline KPIs.
func (m *Manager) FetchSuggestions(ctx context.Context) ([]types.OptimizationSuggestion, error) {
	baseline := m.store.BaselineKPIs()
	if baseline == nil {
		return nil, ErrNoBaseline
	}
	return m.client.Optimize(ctx, *baseline)
}

// ApplySuggestion converts an optimizer suggestion into a pending
// modify_station intervention. The action payload carries relative changes
// (e.g. add_chargers: 2) applied against the station's current value.
func (m *Manager) ApplySuggestion(sug types.OptimizationSuggestion) error {
	if sug.StationID == "" {
		return fmt.Errorf("suggestion %q has no target station", sug.Type)
	}
	station, ok := m.store.Station(sug.StationID)
	if !ok {
		return fmt.Errorf("suggestion targets unknown station %s", sug.StationID)
	}

	params := map[string]interface{}{"station_id": sug.StationID}
	applied := false
	if delta, ok := intPayload(sug.ActionPayload, "add_chargers"); ok {
		params["chargers"] = station.Chargers + delta
		applied = true
	}
	if delta, ok := intPayload(sug.ActionPayload, "remove_chargers"); ok {
		chargers := station.Chargers - delta
		if chargers < 1 {
			chargers = 1
		}
		params["chargers"] = chargers
		applied = true
	}
	if delta, ok := intPayload(sug.ActionPayload, "add_bays"); ok {
		params["bays"] = station.Bays + delta
		applied = true
	}
	if !applied {
		return fmt.Errorf("suggestion %q carries no applicable action", sug.Type)
	}

	m.store.AddPendingIntervention(types.Intervention{
		Kind:   types.InterventionModifyStation,
		Params: params,
	})
	return nil
}

// archiveRun writes a completed or failed run to the run-history archive,
// when one is configured. The archive channel is never allowed to stall a
// run.
func (m *Manager) archiveRun(projectID string, sc *types.Scenario, result *types.SimulationResult) {
	if m.archive == nil {
		return
	}

	rec := types.RunRecord{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		ScenarioID:    sc.ID,
		ScenarioName:  sc.Name,
		Status:        result.Status,
		DurationHours: sc.DurationHours,
		CompletedAt:   time.Now(),
	}
	rec.Interventions, _ = json.Marshal(sc.Interventions)
	if result.KPIs != nil {
		rec.KPIs, _ = json.Marshal(result.KPIs)
	}
	if result.Costs != nil {
		rec.Costs, _ = json.Marshal(result.Costs)
	}
	if len(result.Timeline) > 0 {
		blob, err := msgpack.Marshal(result.Timeline)
		if err != nil {
			m.logger.Warnf("could not encode timeline for archive: %v", err)
		} else {
			rec.Timeline = blob
		}
	}

	select {
	case m.archive <- rec:
	default:
		m.logger.Warnf("run archive is backed up; dropping record for scenario %s", sc.ID)
	}
}

func intPayload(payload map[string]interface{}, key string) (int, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		// JSON decoding produces float64 for numbers.
		return int(n), true
	default:
		return 0, false
	}
}
