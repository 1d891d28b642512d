package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gridswap/swapdash/internal/picking"
	"github.com/gridswap/swapdash/internal/scenario"
	"github.com/gridswap/swapdash/internal/simclient"
	"github.com/gridswap/swapdash/internal/store"
	"github.com/gridswap/swapdash/internal/types"
	"github.com/gridswap/swapdash/internal/validate"
	"github.com/gridswap/swapdash/internal/view"
	"github.com/gridswap/swapdash/pkg/responseformat"
)

// Handlers contains the HTTP handlers for the dashboard API
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new Handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// writeSimError maps a simulation service failure onto an HTTP status: 504
// for timeouts, 502 for anything else remote.
func (h *Handlers) writeSimError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if simclient.IsTimedOut(err) {
		status = http.StatusGatewayTimeout
	}
	h.formatter.WriteError(w, status, "simulation service request failed", err)
}

// CreateSession creates a new dashboard session and loads the requested
// project and its baseline stations into it.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	if req.ProjectID == "" {
		h.formatter.WriteError(w, http.StatusBadRequest, "project_id is required", nil)
		return
	}

	project, err := h.controller.simClient.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		h.writeSimError(w, err)
		return
	}
	stations, err := h.controller.simClient.ListStations(r.Context(), req.ProjectID)
	if err != nil {
		h.writeSimError(w, err)
		return
	}

	session := h.controller.sessions.Create()
	session.Store.SetProject(project)
	session.Store.SyncBaselineStations(stations)

	h.controller.logger.Infof("created session %s for project %s (%d stations)",
		session.ID, project.ID, len(stations))
	h.formatter.WriteResponse(w, r, session.snapshot())
}

// Login authenticates against the simulation service and stores the session
// credentials.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}

	user, token, err := h.controller.simClient.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var se *simclient.Error
		if errors.As(err, &se) && se.Kind == simclient.KindRemoteStatus && se.StatusCode == http.StatusUnauthorized {
			h.formatter.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		h.writeSimError(w, err)
		return
	}

	session.Store.SetSession(user, token)
	h.formatter.WriteResponse(w, r, map[string]any{"user": user})
}

// Logout clears the session credentials. The remote logout is fire-and-
// forget; local state is cleared regardless.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	h.controller.simClient.Logout(r.Context())
	session.Store.ClearSession()
	h.formatter.WriteResponse(w, r, map[string]any{"success": true})
}

// GetState returns the full session state snapshot.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	h.formatter.WriteResponse(w, r, sessionFrom(r).snapshot())
}

// TakeNotifications drains and returns queued notifications.
func (h *Handlers) TakeNotifications(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	notes := session.Store.TakeNotifications()
	if notes == nil {
		notes = []store.Notification{}
	}
	h.formatter.WriteResponse(w, r, notes)
}

// GetStations returns the session's station list.
func (h *Handlers) GetStations(w http.ResponseWriter, r *http.Request) {
	h.formatter.WriteResponse(w, r, sessionFrom(r).Store.Stations())
}

// CreateStation creates a station through the simulation service and adds
// it to the session.
func (h *Handlers) CreateStation(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	project := session.Store.Project()
	if project == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		return
	}

	var station types.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	if station.StationID == "" {
		h.formatter.WriteError(w, http.StatusBadRequest, "station_id is required", nil)
		return
	}

	created, err := h.controller.simClient.CreateStation(r.Context(), project.ID, station)
	if err != nil {
		h.writeSimError(w, err)
		return
	}

	session.Store.AddStation(*created)
	h.formatter.WriteResponse(w, r, created)
}

// UpdateStation applies a partial update to a user-created station.
// Baseline stations are rejected before any network call.
func (h *Handlers) UpdateStation(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	project := session.Store.Project()
	if project == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		return
	}

	id := mux.Vars(r)["id"]
	existing, ok := session.Store.Station(id)
	if !ok {
		h.formatter.WriteError(w, http.StatusNotFound, "station not found", nil)
		return
	}
	if existing.IsBaseline {
		h.formatter.WriteError(w, http.StatusForbidden, "baseline stations are read-only", nil)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}

	updated, err := h.controller.simClient.UpdateStation(r.Context(), project.ID, existing.ID, fields)
	if err != nil {
		h.writeSimError(w, err)
		return
	}

	if err := session.Store.UpdateStation(id, *updated); err != nil {
		h.formatter.WriteError(w, http.StatusNotFound, "station not found", err)
		return
	}
	h.formatter.WriteResponse(w, r, updated)
}

// DeleteStation removes a user-created station. Baseline stations are
// rejected before any network call.
func (h *Handlers) DeleteStation(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	project := session.Store.Project()
	if project == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		return
	}

	id := mux.Vars(r)["id"]
	existing, ok := session.Store.Station(id)
	if !ok {
		h.formatter.WriteError(w, http.StatusNotFound, "station not found", nil)
		return
	}
	if existing.IsBaseline {
		h.formatter.WriteError(w, http.StatusForbidden, "baseline stations are read-only", nil)
		return
	}

	if err := h.controller.simClient.DeleteStation(r.Context(), project.ID, existing.ID); err != nil {
		h.writeSimError(w, err)
		return
	}
	if err := session.Store.RemoveStation(id); err != nil {
		h.formatter.WriteError(w, http.StatusNotFound, "station not found", err)
		return
	}
	h.formatter.WriteResponse(w, r, map[string]any{"success": true})
}

// GetPendingInterventions returns the staged intervention sequence.
func (h *Handlers) GetPendingInterventions(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	pending := session.Store.PendingInterventions()
	if pending == nil {
		pending = []types.Intervention{}
	}
	h.formatter.WriteResponse(w, r, pending)
}

// AddPendingIntervention stages an intervention for the next run.
func (h *Handlers) AddPendingIntervention(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var item types.Intervention
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	if item.Kind == "" {
		h.formatter.WriteError(w, http.StatusBadRequest, "intervention type is required", nil)
		return
	}
	session.Manager.AddPending(item)
	h.formatter.WriteResponse(w, r, session.Store.PendingInterventions())
}

// RemovePendingIntervention removes the pending intervention at the given
// index. An out-of-range index is a no-op.
func (h *Handlers) RemovePendingIntervention(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "index must be an integer", err)
		return
	}
	session.Manager.RemovePending(index)
	h.formatter.WriteResponse(w, r, session.Store.PendingInterventions())
}

// GetActiveInterventions returns the interventions from the last completed
// run.
func (h *Handlers) GetActiveInterventions(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	active := session.Store.ActiveInterventions()
	if active == nil {
		active = []types.Intervention{}
	}
	h.formatter.WriteResponse(w, r, active)
}

// RunSimulation creates a scenario from the pending interventions and runs
// it. A run the service reports as failed returns 200 with a failed status
// payload; the previous result and pending list are untouched.
func (h *Handlers) RunSimulation(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req struct {
		Name          string `json:"name"`
		DurationHours int    `json:"duration_hours"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
			return
		}
	}

	result, err := session.Manager.RunSimulation(r.Context(), req.Name, req.DurationHours)
	if err != nil {
		var failed *scenario.SimulationFailedError
		switch {
		case errors.As(err, &failed):
			h.formatter.WriteResponse(w, r, map[string]any{
				"status":  "failed",
				"message": failed.Message,
			})
		case errors.Is(err, scenario.ErrRunInProgress):
			h.formatter.WriteError(w, http.StatusConflict, "a run is already in progress", nil)
		case errors.Is(err, scenario.ErrNoProject):
			h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		default:
			h.writeSimError(w, err)
		}
		return
	}

	session.Playback.SetFrames(result.Timeline)
	h.formatter.WriteResponse(w, r, result)
}

// GetRunState returns the run state machine's current phase.
func (h *Handlers) GetRunState(w http.ResponseWriter, r *http.Request) {
	h.formatter.WriteResponse(w, r, sessionFrom(r).Store.RunState())
}

// RunBaseline runs the baseline-only simulation and stores the KPIs on the
// project record.
func (h *Handlers) RunBaseline(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	kpis, err := session.Manager.RunBaseline(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, scenario.ErrRunInProgress):
			h.formatter.WriteError(w, http.StatusConflict, "a baseline run is already in progress", nil)
		case errors.Is(err, scenario.ErrNoProject):
			h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		default:
			h.writeSimError(w, err)
		}
		return
	}
	h.formatter.WriteResponse(w, r, map[string]any{"baseline_kpis": kpis})
}

// GetSuggestions asks the optimizer for suggestions against the stored
// baseline.
func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	suggestions, err := session.Manager.FetchSuggestions(r.Context())
	if err != nil {
		if errors.Is(err, scenario.ErrNoBaseline) {
			h.formatter.WriteError(w, http.StatusConflict, "run the baseline before requesting suggestions", nil)
			return
		}
		h.writeSimError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []types.OptimizationSuggestion{}
	}
	h.formatter.WriteResponse(w, r, suggestions)
}

// ApplySuggestion converts an optimizer suggestion into a pending
// intervention.
func (h *Handlers) ApplySuggestion(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var sug types.OptimizationSuggestion
	if err := json.NewDecoder(r.Body).Decode(&sug); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	if err := session.Manager.ApplySuggestion(sug); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "could not apply suggestion", err)
		return
	}
	h.formatter.WriteResponse(w, r, session.Store.PendingInterventions())
}

// GetPicking returns the picking coordinator state.
func (h *Handlers) GetPicking(w http.ResponseWriter, r *http.Request) {
	h.formatter.WriteResponse(w, r, sessionFrom(r).Store.Picking().Snapshot())
}

// StartPicking begins a location-picking session for a modal.
func (h *Handlers) StartPicking(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req struct {
		Modal picking.ModalTag `json:"modal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	switch req.Modal {
	case picking.ModalAddStation, picking.ModalEditStation, picking.ModalEventLocation:
	default:
		h.formatter.WriteError(w, http.StatusBadRequest, "unknown modal", nil)
		return
	}
	session.Store.Picking().StartPicking(req.Modal)
	h.formatter.WriteResponse(w, r, session.Store.Picking().Snapshot())
}

// MapClicked reports a map click to the coordinator. Clicks outside a
// picking session are no-ops.
func (h *Handlers) MapClicked(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	session.Store.Picking().MapClicked(req.Latitude, req.Longitude)
	h.formatter.WriteResponse(w, r, session.Store.Picking().Snapshot())
}

// ConsumePicked hands the captured coordinate back to the requesting modal.
func (h *Handlers) ConsumePicked(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	coord, modal, ok := session.Store.Picking().ConsumePicked()
	h.formatter.WriteResponse(w, r, map[string]any{
		"ok":         ok,
		"coordinate": coord,
		"modal":      modal,
	})
}

// CancelPicking abandons the picking session, reopening the requesting
// modal without a coordinate.
func (h *Handlers) CancelPicking(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	session.Store.Picking().CancelPicking()
	h.formatter.WriteResponse(w, r, session.Store.Picking().Snapshot())
}

// GetPlayback returns the playback engine snapshot.
func (h *Handlers) GetPlayback(w http.ResponseWriter, r *http.Request) {
	h.formatter.WriteResponse(w, r, sessionFrom(r).Playback.Snapshot())
}

// PlaybackPlay starts timeline playback.
func (h *Handlers) PlaybackPlay(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	session.Playback.Play()
	h.formatter.WriteResponse(w, r, session.Playback.Snapshot())
}

// PlaybackPause pauses timeline playback.
func (h *Handlers) PlaybackPause(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	session.Playback.Pause()
	h.formatter.WriteResponse(w, r, session.Playback.Snapshot())
}

// PlaybackSeek jumps to a frame and pauses.
func (h *Handlers) PlaybackSeek(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.formatter.WriteError(w, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}
	session.Playback.Seek(req.Index)
	h.formatter.WriteResponse(w, r, session.Playback.Snapshot())
}

// PlaybackReset rewinds to frame zero and pauses.
func (h *Handlers) PlaybackReset(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	session.Playback.Reset()
	h.formatter.WriteResponse(w, r, session.Playback.Snapshot())
}

// PlaybackCycleSpeed advances to the next playback speed.
func (h *Handlers) PlaybackCycleSpeed(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	session.Playback.CycleSpeed()
	h.formatter.WriteResponse(w, r, session.Playback.Snapshot())
}

// comparisonInputs returns the stored baseline and the latest completed
// result, or writes an error when either is missing.
func (h *Handlers) comparisonInputs(w http.ResponseWriter, session *Session) (*types.KPISummary, *types.SimulationResult, bool) {
	baseline := session.Store.BaselineKPIs()
	if baseline == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no baseline KPIs; run the baseline first", nil)
		return nil, nil, false
	}
	result := session.Store.SimulationResult()
	if result == nil || result.KPIs == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no completed scenario run to compare", nil)
		return nil, nil, false
	}
	return baseline, result, true
}

// GetKPIComparison returns direction-tagged city KPI deltas between the
// baseline and the latest completed run.
func (h *Handlers) GetKPIComparison(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	baseline, result, ok := h.comparisonInputs(w, session)
	if !ok {
		return
	}
	h.formatter.WriteResponse(w, r, view.CompareKPIs(baseline.City, result.KPIs.City))
}

// GetCostComparison returns scenario-minus-baseline cost deltas.
func (h *Handlers) GetCostComparison(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	baselineCosts := session.Store.BaselineCosts()
	if baselineCosts == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no baseline costs; run the baseline first", nil)
		return
	}
	result := session.Store.SimulationResult()
	if result == nil || result.Costs == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no completed scenario run to compare", nil)
		return
	}
	h.formatter.WriteResponse(w, r, map[string]any{
		"baseline_costs": baselineCosts,
		"scenario_costs": result.Costs,
		"cost_deltas":    view.CompareCosts(*baselineCosts, *result.Costs),
	})
}

// GetStationComparison returns per-station baseline-vs-scenario rows.
func (h *Handlers) GetStationComparison(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	baseline, result, ok := h.comparisonInputs(w, session)
	if !ok {
		return
	}
	rows := view.CompareStations(baseline.Stations, result.KPIs.Stations)
	if rows == nil {
		rows = []view.StationComparison{}
	}
	h.formatter.WriteResponse(w, r, rows)
}

// GetStationMarkers classifies stations from the latest run and joins the
// current playback frame's activity for marker pulsing.
func (h *Handlers) GetStationMarkers(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	kpis := session.Store.BaselineKPIs()
	if result := session.Store.SimulationResult(); result != nil && result.KPIs != nil {
		kpis = result.KPIs
	}
	if kpis == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no run results to classify stations from", nil)
		return
	}

	snap := session.Playback.Snapshot()
	h.formatter.WriteResponse(w, r, view.ClassifyStations(kpis.Stations, snap.Activity))
}

// GetBaselineValidation compares the session's freshly run baseline against
// the reference KPIs stored on the project record in the simulation service.
func (h *Handlers) GetBaselineValidation(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	computed := session.Store.BaselineKPIs()
	if computed == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no baseline KPIs; run the baseline first", nil)
		return
	}
	project := session.Store.Project()
	if project == nil {
		h.formatter.WriteError(w, http.StatusConflict, "no project loaded", nil)
		return
	}

	reference, err := h.controller.simClient.GetProject(r.Context(), project.ID)
	if err != nil {
		h.writeSimError(w, err)
		return
	}
	if reference.BaselineKPIs == nil {
		h.formatter.WriteError(w, http.StatusConflict, "project has no reference baseline KPIs", nil)
		return
	}

	h.formatter.WriteResponse(w, r, validate.Validate(*computed, *reference.BaselineKPIs))
}
