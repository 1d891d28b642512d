// Package types contains the shared domain types for the swap-station
// simulation dashboard: stations, interventions, scenarios, simulation
// results and the timeline frames used for playback.
package types

import "time"

// StationTier buckets a station by its baseline demand level.
type StationTier string

const (
	TierHigh   StationTier = "high"
	TierMedium StationTier = "medium"
	TierLow    StationTier = "low"
)

// Station is a battery-swap station as known to the dashboard. StationID is
// the user-facing business key (e.g. "STATION_07"); ID is the record identity
// assigned by the simulation service.
type Station struct {
	ID           string      `json:"id"`
	StationID    string      `json:"station_id"`
	Name         string      `json:"name,omitempty"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	Chargers     int         `json:"chargers"`
	InventoryCap int         `json:"inventory_cap"`
	Bays         int         `json:"bays,omitempty"`
	Tier         StationTier `json:"tier,omitempty"`
	Active       bool        `json:"active"`

	// IsBaseline marks a station sourced from the project's baseline
	// configuration. Baseline stations are read-only: edit and delete
	// operations against them are rejected before any network call.
	IsBaseline bool `json:"is_baseline"`
}

// InterventionKind tags the variant of an intervention.
type InterventionKind string

const (
	InterventionWeatherDemand InterventionKind = "weather_demand"
	InterventionEventDemand   InterventionKind = "event_demand"
	InterventionReplenishment InterventionKind = "replenishment_policy"
	InterventionModifyStation InterventionKind = "modify_station"
	InterventionAddStation    InterventionKind = "add_station"
	InterventionRemoveStation InterventionKind = "remove_station"
)

// Intervention is one configuration edit in a scenario. Params carries the
// kind-specific parameter bag and is sent to the simulation service verbatim
// (e.g. weather_demand carries condition, multiplier, start_hour, end_hour;
// event_demand additionally carries latitude, longitude and radius_km).
type Intervention struct {
	Kind   InterventionKind       `json:"type"`
	Params map[string]interface{} `json:"params"`
}

// ScenarioStatus is the lifecycle state of a scenario.
type ScenarioStatus string

const (
	ScenarioDraft     ScenarioStatus = "draft"
	ScenarioRunning   ScenarioStatus = "running"
	ScenarioCompleted ScenarioStatus = "completed"
	ScenarioFailed    ScenarioStatus = "failed"
)

// Scenario is a named, persisted bundle of interventions plus a duration.
type Scenario struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        ScenarioStatus `json:"status"`
	DurationHours int            `json:"duration_hours"`
	Interventions []Intervention `json:"interventions"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// Project is the owning record for stations and scenarios. BaselineKPIs is
// the project-level reference point produced by a baseline run and reused
// across many scenario runs.
type Project struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	BaselineValid bool        `json:"baseline_valid"`
	BaselineKPIs  *KPISummary `json:"baseline_kpis,omitempty"`
	CreatedAt     time.Time   `json:"created_at,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at,omitempty"`
}

// SimulationResult is the outcome of one scenario run. It is produced only by
// the simulation service and treated as immutable once received; the next run
// replaces it wholesale.
type SimulationResult struct {
	ScenarioID string          `json:"scenario_id,omitempty"`
	Status     string          `json:"status"`
	KPIs       *KPISummary     `json:"kpis,omitempty"`
	Costs      *CostBreakdown  `json:"costs,omitempty"`
	Timeline   []TimelineFrame `json:"timeline,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// OptimizationSuggestion is one suggestion returned by the optimizer.
// ActionPayload carries a relative change to apply against the current
// baseline value of the target station (e.g. {"add_chargers": 2}).
type OptimizationSuggestion struct {
	StationID     string                 `json:"station_id,omitempty"`
	Type          string                 `json:"type"`
	Description   string                 `json:"description"`
	Priority      string                 `json:"priority"`
	ActionPayload map[string]interface{} `json:"action_payload"`
}

// User is the authenticated dashboard user.
type User struct {
	ID    string `json:"user_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
