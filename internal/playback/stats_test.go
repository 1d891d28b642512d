package playback

import (
	"testing"

	"github.com/gridswap/swapdash/internal/types"
)

func TestDeriveFrameStats(t *testing.T) {
	frame0 := &types.TimelineFrame{
		TimestampMin: 0,
		Stations: []types.StationSnapshot{
			{StationID: "A", QueueLength: 2, SwapsCompleted: 5, SwapsLost: 1},
		},
	}
	frame1 := &types.TimelineFrame{
		TimestampMin: 60,
		Stations: []types.StationSnapshot{
			{StationID: "A", QueueLength: 3, SwapsCompleted: 8, SwapsLost: 2},
		},
	}

	tests := []struct {
		name  string
		frame *types.TimelineFrame
		prev  *types.TimelineFrame
		want  FrameStats
	}{
		{
			name:  "first frame has no arrivals",
			frame: frame0,
			prev:  nil,
			want:  FrameStats{TotalQueue: 2, TotalCompleted: 5, TotalLost: 1, Arrivals: 0},
		},
		{
			name:  "arrivals reconstructed from cumulative deltas",
			frame: frame1,
			prev:  frame0,
			want:  FrameStats{TotalQueue: 3, TotalCompleted: 8, TotalLost: 2, Arrivals: 4},
		},
		{
			name:  "non-monotonic counters clamp to zero",
			frame: frame0,
			prev:  frame1,
			want:  FrameStats{TotalQueue: 2, TotalCompleted: 5, TotalLost: 1, Arrivals: 0},
		},
		{
			name:  "nil frame",
			frame: nil,
			prev:  frame0,
			want:  FrameStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveFrameStats(tt.frame, tt.prev); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveFrameStatsSumsStations(t *testing.T) {
	frame := &types.TimelineFrame{
		Stations: []types.StationSnapshot{
			{StationID: "A", QueueLength: 1, SwapsCompleted: 10, SwapsLost: 0},
			{StationID: "B", QueueLength: 4, SwapsCompleted: 7, SwapsLost: 3},
			{StationID: "C", QueueLength: 0, SwapsCompleted: 2, SwapsLost: 1},
		},
	}
	got := DeriveFrameStats(frame, nil)
	want := FrameStats{TotalQueue: 5, TotalCompleted: 19, TotalLost: 4}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStationActivity(t *testing.T) {
	prev := &types.TimelineFrame{
		Stations: []types.StationSnapshot{
			{StationID: "A", QueueLength: 2, SwapsCompleted: 5},
			{StationID: "B", QueueLength: 1, SwapsCompleted: 3},
			{StationID: "C", QueueLength: 0, SwapsCompleted: 9},
		},
	}
	frame := &types.TimelineFrame{
		Stations: []types.StationSnapshot{
			{StationID: "A", QueueLength: 2, SwapsCompleted: 6}, // swaps increased
			{StationID: "B", QueueLength: 4, SwapsCompleted: 3}, // queue changed
			{StationID: "C", QueueLength: 0, SwapsCompleted: 9}, // unchanged
			{StationID: "D", QueueLength: 1, SwapsCompleted: 1}, // new station
		},
	}

	activity := StationActivity(frame, prev)
	if !activity["A"] {
		t.Error("A should be active (completed swaps increased)")
	}
	if !activity["B"] {
		t.Error("B should be active (queue length changed)")
	}
	if activity["C"] {
		t.Error("C should be inactive")
	}
	if activity["D"] {
		t.Error("a station with no previous snapshot has no activity")
	}

	for id, active := range StationActivity(frame, nil) {
		if active {
			t.Errorf("station %s active at frame 0", id)
		}
	}
}
