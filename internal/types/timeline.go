package types

// StationSnapshot is one station's state at a single timeline instant.
// Swap counters are cumulative since the start of the run.
type StationSnapshot struct {
	StationID          string `json:"station_id"`
	QueueLength        int    `json:"queue_length"`
	BatteriesAvailable int    `json:"batteries_available"`
	ChargersInUse      int    `json:"chargers_in_use"`
	SwapsCompleted     int    `json:"swaps_completed"`
	SwapsLost          int    `json:"swaps_lost"`
}

// TimelineFrame is one instant's snapshot of every station. Frames form an
// ordered, append-only sequence fixed once a SimulationResult is received;
// individual frames are never mutated.
type TimelineFrame struct {
	TimestampMin float64           `json:"timestamp_min"`
	Stations     []StationSnapshot `json:"stations"`
}

// Station returns the snapshot for the given station ID, or nil if the
// frame has no entry for it.
func (f *TimelineFrame) Station(stationID string) *StationSnapshot {
	for i := range f.Stations {
		if f.Stations[i].StationID == stationID {
			return &f.Stations[i]
		}
	}
	return nil
}
