package types

import "time"

// CityKPI holds the city-wide aggregated KPIs for one run.
type CityKPI struct {
	AvgWaitTime        float64 `json:"avg_wait_time"`
	LostSwapsPct       float64 `json:"lost_swaps_pct"`
	TotalLost          int     `json:"total_lost"`
	TotalArrivals      int     `json:"total_arrivals"`
	ChargerUtilization float64 `json:"charger_utilization"`
	IdleInventoryPct   float64 `json:"idle_inventory_pct"`
	Throughput         float64 `json:"throughput"`
	CostProxy          float64 `json:"cost_proxy"`
}

// StationKPI holds the per-station KPIs for one run.
type StationKPI struct {
	StationID           string  `json:"station_id"`
	Tier                string  `json:"tier"`
	TotalArrivals       int     `json:"total_arrivals"`
	SuccessfulSwaps     int     `json:"successful_swaps"`
	LostSwaps           int     `json:"lost_swaps"`
	LostSwapsPct        float64 `json:"lost_swaps_pct"`
	AvgWaitTime         float64 `json:"avg_wait_time"`
	ChargerUtilization  float64 `json:"charger_utilization"`
	AvgChargedInventory float64 `json:"avg_charged_inventory"`
}

// KPISummary combines city-level and per-station KPIs.
type KPISummary struct {
	City     CityKPI      `json:"city_kpis"`
	Stations []StationKPI `json:"stations"`
}

// CostBreakdown mirrors the simulation service's cost model output.
type CostBreakdown struct {
	Capital     CapitalCosts     `json:"capital"`
	Operational OperationalCosts `json:"operational_24hr"`
	Opportunity OpportunityCosts `json:"opportunity"`
	Revenue     RevenueSummary   `json:"revenue"`
	Summary     CostSummary      `json:"summary"`
}

type CapitalCosts struct {
	Chargers  float64 `json:"chargers"`
	Bays      float64 `json:"bays"`
	Inventory float64 `json:"inventory"`
	Total     float64 `json:"total"`
}

type OperationalCosts struct {
	SwapOperations float64 `json:"swap_operations"`
	Electricity    float64 `json:"electricity"`
	Labor          float64 `json:"labor"`
	Maintenance    float64 `json:"maintenance"`
	Replenishment  float64 `json:"replenishment"`
	Total          float64 `json:"total"`
}

type OpportunityCosts struct {
	LostRevenue float64 `json:"lost_revenue"`
}

type RevenueSummary struct {
	Total float64 `json:"total"`
}

type CostSummary struct {
	NetOperationalProfit float64 `json:"net_operational_profit"`
	TotalCost            float64 `json:"total_cost"`
}

// CostDeltas holds scenario-minus-baseline cost differences.
type CostDeltas struct {
	CapitalDelta     float64 `json:"capital_delta"`
	OperationalDelta float64 `json:"operational_delta"`
	LostRevenueDelta float64 `json:"lost_revenue_delta"`
	RevenueDelta     float64 `json:"revenue_delta"`
	ProfitDelta      float64 `json:"profit_delta"`
	TotalCostDelta   float64 `json:"total_cost_delta"`
}

// RunRecord is an archived simulation run, written to the run-history
// archive after a completed or failed run.
type RunRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	ProjectID     string    `json:"project_id" gorm:"index"`
	ScenarioID    string    `json:"scenario_id"`
	ScenarioName  string    `json:"scenario_name"`
	Status        string    `json:"status"`
	DurationHours int       `json:"duration_hours"`
	Interventions []byte    `json:"-"`        // JSON-encoded intervention list
	KPIs          []byte    `json:"-"`        // JSON-encoded KPISummary
	Costs         []byte    `json:"-"`        // JSON-encoded CostBreakdown
	Timeline      []byte    `json:"-" gorm:"type:bytea"` // msgpack-encoded timeline frames
	CompletedAt   time.Time `json:"completed_at" gorm:"index"`
}

// TableName customizes the archive table name for GORM backends.
func (RunRecord) TableName() string {
	return "run_history"
}
