package view

import "github.com/gridswap/swapdash/internal/types"

// Status thresholds, matching the optimizer's congestion heuristics.
const (
	criticalLostPct   = 5.0
	congestedUtil     = 0.7
	busyUtil          = 0.5
	underutilizedUtil = 0.1
)

// StationMarker drives a station's map rendering: a status color and a
// transient pulse flag for frames with activity.
type StationMarker struct {
	StationID string `json:"station_id"`
	Level     string `json:"level"`
	Color     string `json:"color"`
	Pulse     bool   `json:"pulse"`
}

var levelColors = map[string]string{
	"critical":      "#dc2626",
	"congested":     "#ea580c",
	"busy":          "#eab308",
	"healthy":       "#16a34a",
	"underutilized": "#64748b",
}

// ClassifyStation buckets a station by its run KPIs. active comes from the
// current playback frame's activity derivation and drives the pulse.
func ClassifyStation(kpi types.StationKPI, active bool) StationMarker {
	level := "healthy"
	switch {
	case kpi.LostSwapsPct > criticalLostPct:
		level = "critical"
	case kpi.ChargerUtilization > congestedUtil:
		level = "congested"
	case kpi.ChargerUtilization > busyUtil:
		level = "busy"
	case kpi.ChargerUtilization < underutilizedUtil && kpi.TotalArrivals > 0:
		level = "underutilized"
	}

	return StationMarker{
		StationID: kpi.StationID,
		Level:     level,
		Color:     levelColors[level],
		Pulse:     active,
	}
}

// ClassifyStations classifies every station from a run, joining the
// per-station activity map derived from the current playback frame.
func ClassifyStations(kpis []types.StationKPI, activity map[string]bool) []StationMarker {
	markers := make([]StationMarker, 0, len(kpis))
	for _, kpi := range kpis {
		markers = append(markers, ClassifyStation(kpi, activity[kpi.StationID]))
	}
	return markers
}
