package playback

import "github.com/gridswap/swapdash/internal/types"

// FrameStats are the derived statistics for one frame, recomputed from the
// raw frames on every access rather than cached alongside them.
type FrameStats struct {
	TotalQueue     int `json:"total_queue"`
	TotalCompleted int `json:"total_completed"`
	TotalLost      int `json:"total_lost"`
	// Arrivals is reconstructed as the positive delta of
	// (swaps completed + swaps lost) against the previous frame; it is
	// not stored by the simulation. Clamped to zero at frame 0 and when
	// upstream counters are non-monotonic.
	Arrivals int `json:"arrivals"`
}

// DeriveFrameStats computes the aggregate statistics for frame, given the
// previous frame in the sequence (nil at frame 0).
func DeriveFrameStats(frame, prev *types.TimelineFrame) FrameStats {
	var stats FrameStats
	if frame == nil {
		return stats
	}
	for _, st := range frame.Stations {
		stats.TotalQueue += st.QueueLength
		stats.TotalCompleted += st.SwapsCompleted
		stats.TotalLost += st.SwapsLost
	}
	if prev != nil {
		prevTotal := 0
		for _, st := range prev.Stations {
			prevTotal += st.SwapsCompleted + st.SwapsLost
		}
		delta := (stats.TotalCompleted + stats.TotalLost) - prevTotal
		if delta > 0 {
			stats.Arrivals = delta
		}
	}
	return stats
}

// StationActivity reports, per station, whether anything happened since the
// previous frame: a completed-swaps increase or a queue length change. Used
// for transient visual emphasis, never stored.
func StationActivity(frame, prev *types.TimelineFrame) map[string]bool {
	if frame == nil {
		return nil
	}
	activity := make(map[string]bool, len(frame.Stations))
	for _, st := range frame.Stations {
		if prev == nil {
			activity[st.StationID] = false
			continue
		}
		p := prev.Station(st.StationID)
		if p == nil {
			activity[st.StationID] = false
			continue
		}
		activity[st.StationID] = st.SwapsCompleted > p.SwapsCompleted || st.QueueLength != p.QueueLength
	}
	return activity
}
