package validate

import (
	"math"
	"testing"

	"github.com/gridswap/swapdash/internal/types"
)

func metric(t *testing.T, r Report, name string) MetricCheck {
	t.Helper()
	for _, m := range r.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s not in report", name)
	return MetricCheck{}
}

func TestValidateWithinTolerance(t *testing.T) {
	reference := types.KPISummary{
		City: types.CityKPI{AvgWaitTime: 4.0, LostSwapsPct: 2.0, ChargerUtilization: 0.60},
	}
	computed := types.KPISummary{
		City: types.CityKPI{AvgWaitTime: 4.4, LostSwapsPct: 2.2, ChargerUtilization: 0.63},
	}

	report := Validate(computed, reference)
	if !report.Passed {
		t.Fatalf("report should pass: %+v", report)
	}
	wait := metric(t, report, "avg_wait_time")
	if wait.VariancePct != 10.0 {
		t.Errorf("wait variance = %v, want 10", wait.VariancePct)
	}
}

func TestValidateUtilizationOutOfBand(t *testing.T) {
	reference := types.KPISummary{
		City: types.CityKPI{AvgWaitTime: 4.0, LostSwapsPct: 2.0, ChargerUtilization: 0.60},
	}
	// Utilization off by 20%, beyond its 10% band; the others within band.
	computed := types.KPISummary{
		City: types.CityKPI{AvgWaitTime: 4.0, LostSwapsPct: 2.0, ChargerUtilization: 0.72},
	}

	report := Validate(computed, reference)
	if report.Passed {
		t.Fatal("report should fail on utilization")
	}
	if metric(t, report, "charger_utilization").Passed {
		t.Error("utilization check should fail")
	}
	if !metric(t, report, "avg_wait_time").Passed {
		t.Error("wait time check should still pass")
	}
}

func TestValidateZeroReference(t *testing.T) {
	reference := types.KPISummary{City: types.CityKPI{AvgWaitTime: 1.0}}

	near := Validate(types.KPISummary{City: types.CityKPI{AvgWaitTime: 1.0, LostSwapsPct: 0.005}}, reference)
	if !metric(t, near, "lost_swaps_pct").Passed {
		t.Error("near-zero computed against zero reference should pass")
	}

	far := Validate(types.KPISummary{City: types.CityKPI{AvgWaitTime: 1.0, LostSwapsPct: 0.5}}, reference)
	if metric(t, far, "lost_swaps_pct").Passed {
		t.Error("nonzero computed against zero reference should fail")
	}
}

func TestStationFit(t *testing.T) {
	reference := types.KPISummary{
		City: types.CityKPI{AvgWaitTime: 3.0, LostSwapsPct: 1.0, ChargerUtilization: 0.5},
		Stations: []types.StationKPI{
			{StationID: "A", AvgWaitTime: 2.0},
			{StationID: "B", AvgWaitTime: 4.0},
			{StationID: "C", AvgWaitTime: 6.0},
		},
	}
	// Perfect reproduction.
	report := Validate(reference, reference)
	if report.Fit == nil {
		t.Fatal("fit missing")
	}
	if report.Fit.Stations != 3 {
		t.Errorf("stations = %d", report.Fit.Stations)
	}
	if math.Abs(report.Fit.RSquared-1.0) > 1e-9 {
		t.Errorf("r^2 = %v, want 1", report.Fit.RSquared)
	}
	if report.Fit.RMSE != 0 || report.Fit.MAPE != 0 {
		t.Errorf("perfect fit should have zero error, got %+v", report.Fit)
	}
}

func TestStationFitSkipsUnmatched(t *testing.T) {
	reference := types.KPISummary{
		Stations: []types.StationKPI{{StationID: "A", AvgWaitTime: 2.0}},
	}
	computed := types.KPISummary{
		Stations: []types.StationKPI{
			{StationID: "A", AvgWaitTime: 2.0},
			{StationID: "X", AvgWaitTime: 9.0},
		},
	}
	report := Validate(computed, reference)
	if report.Fit != nil {
		t.Errorf("one matched station cannot produce a fit, got %+v", report.Fit)
	}
}
