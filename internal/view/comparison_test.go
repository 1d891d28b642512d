package view

import (
	"testing"

	"github.com/gridswap/swapdash/internal/types"
)

func findDelta(t *testing.T, deltas []KPIDelta, metric string) KPIDelta {
	t.Helper()
	for _, d := range deltas {
		if d.Metric == metric {
			return d
		}
	}
	t.Fatalf("metric %s not found", metric)
	return KPIDelta{}
}

func TestCompareKPIsDirection(t *testing.T) {
	baseline := types.CityKPI{
		AvgWaitTime:        4.0,
		LostSwapsPct:       6.0,
		IdleInventoryPct:   20.0,
		CostProxy:          1000,
		ChargerUtilization: 0.6,
		Throughput:         120,
	}
	// Every metric decreases by the same relative amount.
	scenario := types.CityKPI{
		AvgWaitTime:        3.0,
		LostSwapsPct:       4.5,
		IdleInventoryPct:   15.0,
		CostProxy:          750,
		ChargerUtilization: 0.45,
		Throughput:         90,
	}

	deltas := CompareKPIs(baseline, scenario)

	// Lower-is-better: a decrease is an improvement.
	wait := findDelta(t, deltas, "avg_wait_time")
	if !wait.Improved {
		t.Error("decreased wait time should be improved")
	}
	if wait.DeltaPct != -25.0 {
		t.Errorf("wait delta = %v, want -25", wait.DeltaPct)
	}

	// Higher-is-better: the same relative decrease is a regression.
	util := findDelta(t, deltas, "charger_utilization")
	if util.Improved {
		t.Error("decreased utilization must not be improved")
	}
	throughput := findDelta(t, deltas, "throughput")
	if throughput.Improved {
		t.Error("decreased throughput must not be improved")
	}
}

func TestCompareKPIsZeroBaseline(t *testing.T) {
	deltas := CompareKPIs(types.CityKPI{}, types.CityKPI{AvgWaitTime: 2.0, Throughput: 10})

	wait := findDelta(t, deltas, "avg_wait_time")
	if wait.DeltaPct != 0 {
		t.Errorf("zero baseline should yield zero delta pct, got %v", wait.DeltaPct)
	}
	if wait.Improved {
		t.Error("wait time above a zero baseline is not an improvement")
	}
	if tp := findDelta(t, deltas, "throughput"); !tp.Improved {
		t.Error("throughput above a zero baseline is an improvement")
	}
}

func TestCompareCosts(t *testing.T) {
	baseline := types.CostBreakdown{
		Capital:     types.CapitalCosts{Total: 100000},
		Operational: types.OperationalCosts{Total: 5000},
		Opportunity: types.OpportunityCosts{LostRevenue: 1200},
		Revenue:     types.RevenueSummary{Total: 9000},
		Summary:     types.CostSummary{NetOperationalProfit: 4000, TotalCost: 106200},
	}
	scenario := types.CostBreakdown{
		Capital:     types.CapitalCosts{Total: 120000},
		Operational: types.OperationalCosts{Total: 5500},
		Opportunity: types.OpportunityCosts{LostRevenue: 600},
		Revenue:     types.RevenueSummary{Total: 9800},
		Summary:     types.CostSummary{NetOperationalProfit: 4300, TotalCost: 126100},
	}

	deltas := CompareCosts(baseline, scenario)
	if deltas.CapitalDelta != 20000 {
		t.Errorf("capital delta = %v", deltas.CapitalDelta)
	}
	if deltas.LostRevenueDelta != -600 {
		t.Errorf("lost revenue delta = %v", deltas.LostRevenueDelta)
	}
	if deltas.ProfitDelta != 300 {
		t.Errorf("profit delta = %v", deltas.ProfitDelta)
	}
}

func TestCompareStations(t *testing.T) {
	baseline := []types.StationKPI{
		{StationID: "A", AvgWaitTime: 5, LostSwapsPct: 8},
		{StationID: "B", AvgWaitTime: 2, LostSwapsPct: 1},
	}
	scenario := []types.StationKPI{
		{StationID: "A", AvgWaitTime: 3, LostSwapsPct: 9},
		{StationID: "C", AvgWaitTime: 1, LostSwapsPct: 0},
	}

	rows := CompareStations(baseline, scenario)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (only stations in both runs)", len(rows))
	}
	row := rows[0]
	if row.StationID != "A" || !row.WaitImproved || row.LostPctImproved {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestClassifyStation(t *testing.T) {
	tests := []struct {
		name   string
		kpi    types.StationKPI
		active bool
		level  string
	}{
		{"critical lost swaps", types.StationKPI{StationID: "A", LostSwapsPct: 7.2, ChargerUtilization: 0.4}, false, "critical"},
		{"congested", types.StationKPI{StationID: "B", ChargerUtilization: 0.85}, true, "congested"},
		{"busy", types.StationKPI{StationID: "C", ChargerUtilization: 0.6}, false, "busy"},
		{"healthy", types.StationKPI{StationID: "D", ChargerUtilization: 0.3, TotalArrivals: 50}, false, "healthy"},
		{"underutilized", types.StationKPI{StationID: "E", ChargerUtilization: 0.05, TotalArrivals: 3}, false, "underutilized"},
		{"no arrivals is not underutilized", types.StationKPI{StationID: "F", ChargerUtilization: 0.0}, false, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ClassifyStation(tt.kpi, tt.active)
			if m.Level != tt.level {
				t.Errorf("level = %s, want %s", m.Level, tt.level)
			}
			if m.Pulse != tt.active {
				t.Errorf("pulse = %v, want %v", m.Pulse, tt.active)
			}
			if m.Color == "" {
				t.Error("marker has no color")
			}
		})
	}
}
