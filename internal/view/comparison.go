// Package view derives presentation models from store state and the current
// playback frame: KPI deltas against the baseline, per-station comparison
// rows and map marker classification. Everything here is a pure function;
// the package owns no state and is recomputed on every access.
package view

import "github.com/gridswap/swapdash/internal/types"

// Direction tags whether a lower or higher value of a metric is an
// improvement. Improvement coloring is an inverted comparison for
// lower-is-better metrics, not a literal sign check.
type Direction string

const (
	LowerIsBetter  Direction = "lower_is_better"
	HigherIsBetter Direction = "higher_is_better"
)

// KPIDelta is one metric's baseline-vs-scenario comparison row.
type KPIDelta struct {
	Metric    string    `json:"metric"`
	Direction Direction `json:"direction"`
	Baseline  float64   `json:"baseline"`
	Scenario  float64   `json:"scenario"`
	DeltaPct  float64   `json:"delta_pct"`
	Improved  bool      `json:"improved"`
}

// cityMetrics defines the compared city KPIs and their directions.
var cityMetrics = []struct {
	name      string
	direction Direction
	value     func(k types.CityKPI) float64
}{
	{"avg_wait_time", LowerIsBetter, func(k types.CityKPI) float64 { return k.AvgWaitTime }},
	{"lost_swaps_pct", LowerIsBetter, func(k types.CityKPI) float64 { return k.LostSwapsPct }},
	{"idle_inventory_pct", LowerIsBetter, func(k types.CityKPI) float64 { return k.IdleInventoryPct }},
	{"cost_proxy", LowerIsBetter, func(k types.CityKPI) float64 { return k.CostProxy }},
	{"charger_utilization", HigherIsBetter, func(k types.CityKPI) float64 { return k.ChargerUtilization }},
	{"throughput", HigherIsBetter, func(k types.CityKPI) float64 { return k.Throughput }},
}

// CompareKPIs computes per-metric percentage deltas between the stored
// baseline and a scenario result.
func CompareKPIs(baseline, scenario types.CityKPI) []KPIDelta {
	deltas := make([]KPIDelta, 0, len(cityMetrics))
	for _, m := range cityMetrics {
		b := m.value(baseline)
		s := m.value(scenario)

		d := KPIDelta{
			Metric:    m.name,
			Direction: m.direction,
			Baseline:  b,
			Scenario:  s,
		}
		if b != 0 {
			d.DeltaPct = (s - b) / b * 100
		}
		if m.direction == LowerIsBetter {
			d.Improved = s < b
		} else {
			d.Improved = s > b
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// CompareCosts computes scenario-minus-baseline cost deltas, the shape used
// by the cost comparison panel.
func CompareCosts(baseline, scenario types.CostBreakdown) types.CostDeltas {
	return types.CostDeltas{
		CapitalDelta:     scenario.Capital.Total - baseline.Capital.Total,
		OperationalDelta: scenario.Operational.Total - baseline.Operational.Total,
		LostRevenueDelta: scenario.Opportunity.LostRevenue - baseline.Opportunity.LostRevenue,
		RevenueDelta:     scenario.Revenue.Total - baseline.Revenue.Total,
		ProfitDelta:      scenario.Summary.NetOperationalProfit - baseline.Summary.NetOperationalProfit,
		TotalCostDelta:   scenario.Summary.TotalCost - baseline.Summary.TotalCost,
	}
}

// StationComparison is one station's baseline-vs-scenario row.
type StationComparison struct {
	StationID        string  `json:"station_id"`
	BaselineWait     float64 `json:"baseline_wait"`
	ScenarioWait     float64 `json:"scenario_wait"`
	BaselineLostPct  float64 `json:"baseline_lost_pct"`
	ScenarioLostPct  float64 `json:"scenario_lost_pct"`
	WaitImproved     bool    `json:"wait_improved"`
	LostPctImproved  bool    `json:"lost_pct_improved"`
}

// CompareStations joins per-station KPIs by station ID. Stations present in
// only one of the two runs are skipped: there is nothing to compare.
func CompareStations(baseline, scenario []types.StationKPI) []StationComparison {
	base := make(map[string]types.StationKPI, len(baseline))
	for _, s := range baseline {
		base[s.StationID] = s
	}

	rows := make([]StationComparison, 0, len(scenario))
	for _, s := range scenario {
		b, ok := base[s.StationID]
		if !ok {
			continue
		}
		rows = append(rows, StationComparison{
			StationID:       s.StationID,
			BaselineWait:    b.AvgWaitTime,
			ScenarioWait:    s.AvgWaitTime,
			BaselineLostPct: b.LostSwapsPct,
			ScenarioLostPct: s.LostSwapsPct,
			WaitImproved:    s.AvgWaitTime < b.AvgWaitTime,
			LostPctImproved: s.LostSwapsPct < b.LostSwapsPct,
		})
	}
	return rows
}
