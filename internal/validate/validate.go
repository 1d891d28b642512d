// Package validate checks a computed baseline run against reference KPIs.
// A project's scenario comparisons are only meaningful when the baseline
// reproduces the reference within tolerance, so the dashboard surfaces this
// report next to the baseline KPIs.
package validate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gridswap/swapdash/internal/types"
)

// Error band tolerances, as fractions of the reference value.
const (
	WaitTimeTolerance    = 0.15
	UtilizationTolerance = 0.10
	LostSwapsTolerance   = 0.15

	// Absolute pass threshold when the reference value is zero.
	nearZeroThreshold = 0.01
)

// MetricCheck is one city-level metric's tolerance check.
type MetricCheck struct {
	Name         string  `json:"name"`
	Computed     float64 `json:"computed"`
	Reference    float64 `json:"reference"`
	VariancePct  float64 `json:"variance_pct"`
	TolerancePct float64 `json:"tolerance_pct"`
	Passed       bool    `json:"passed"`
}

// StationFit summarizes how closely the per-station wait times of a computed
// run track the reference run.
type StationFit struct {
	Stations int     `json:"stations"`
	RSquared float64 `json:"r_squared"`
	MAPE     float64 `json:"mape"`
	RMSE     float64 `json:"rmse"`
}

// Report is the full baseline validation result.
type Report struct {
	Passed  bool          `json:"passed"`
	Metrics []MetricCheck `json:"metrics"`
	Fit     *StationFit   `json:"station_fit,omitempty"`
}

// Validate compares a computed baseline against the reference summary.
func Validate(computed, reference types.KPISummary) Report {
	report := Report{Passed: true}

	checks := []struct {
		name      string
		computed  float64
		reference float64
		tolerance float64
	}{
		{"avg_wait_time", computed.City.AvgWaitTime, reference.City.AvgWaitTime, WaitTimeTolerance},
		{"lost_swaps_pct", computed.City.LostSwapsPct, reference.City.LostSwapsPct, LostSwapsTolerance},
		{"charger_utilization", computed.City.ChargerUtilization, reference.City.ChargerUtilization, UtilizationTolerance},
	}

	for _, c := range checks {
		check := validateMetric(c.name, c.computed, c.reference, c.tolerance)
		report.Metrics = append(report.Metrics, check)
		report.Passed = report.Passed && check.Passed
	}

	if fit := fitStations(computed.Stations, reference.Stations); fit != nil {
		report.Fit = fit
	}

	return report
}

func validateMetric(name string, computed, reference, tolerance float64) MetricCheck {
	check := MetricCheck{
		Name:         name,
		Computed:     round3(computed),
		Reference:    round3(reference),
		TolerancePct: round1(tolerance * 100),
	}

	if reference == 0 {
		// Reference of zero gives no relative band, so require the computed
		// value to also be near zero.
		check.VariancePct = round2(math.Abs(computed) * 100)
		check.Passed = computed < nearZeroThreshold
		return check
	}

	variance := math.Abs(computed-reference) / reference
	check.VariancePct = round2(variance * 100)
	check.Passed = variance <= tolerance
	return check
}

// fitStations regresses computed per-station wait times against the
// reference. Returns nil when fewer than two stations match, where the fit
// statistics are undefined.
func fitStations(computed, reference []types.StationKPI) *StationFit {
	ref := make(map[string]float64, len(reference))
	for _, s := range reference {
		ref[s.StationID] = s.AvgWaitTime
	}

	var xs, ys []float64
	for _, s := range computed {
		r, ok := ref[s.StationID]
		if !ok {
			continue
		}
		xs = append(xs, r)
		ys = append(ys, s.AvgWaitTime)
	}
	if len(xs) < 2 {
		return nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	var sumSq, sumAbsPct float64
	estimates := make([]float64, len(xs))
	pctSamples := 0
	for i, x := range xs {
		estimates[i] = alpha + beta*x
		resid := ys[i] - x
		sumSq += resid * resid
		if x != 0 {
			sumAbsPct += math.Abs(resid) / x
			pctSamples++
		}
	}

	fit := &StationFit{
		Stations: len(xs),
		RSquared: stat.RSquaredFrom(estimates, ys, nil),
		RMSE:     math.Sqrt(sumSq / float64(len(xs))),
	}
	if pctSamples > 0 {
		fit.MAPE = sumAbsPct / float64(pctSamples) * 100
	}
	return fit
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
