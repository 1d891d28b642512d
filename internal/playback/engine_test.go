package playback

import (
	"testing"
	"time"

	"github.com/gridswap/swapdash/internal/types"
)

func makeFrames(n int) []types.TimelineFrame {
	frames := make([]types.TimelineFrame, n)
	for i := range frames {
		frames[i] = types.TimelineFrame{
			TimestampMin: float64(i * 60),
			Stations: []types.StationSnapshot{
				{StationID: "STATION_01", QueueLength: i % 3, SwapsCompleted: i * 2, SwapsLost: i / 4},
			},
		}
	}
	return frames
}

func TestPlayWithNoFramesIsNoOp(t *testing.T) {
	e := NewEngine(time.Millisecond)
	e.Play()
	defer e.Close()

	snap := e.Snapshot()
	if snap.IsPlaying {
		t.Error("engine should not play with an empty frame sequence")
	}
	if snap.Frame != nil || snap.FrameCount != 0 {
		t.Errorf("empty engine should render nothing: %+v", snap)
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	e := NewEngine(time.Millisecond)
	e.SetFrames(makeFrames(24))

	e.Seek(23)
	if got := e.Snapshot().FrameIndex; got != 23 {
		t.Fatalf("frame index = %d after seek, want 23", got)
	}

	e.Advance()
	if got := e.Snapshot().FrameIndex; got != 0 {
		t.Errorf("frame index = %d after wrap, want 0", got)
	}
}

func TestSeekClampsAndPauses(t *testing.T) {
	e := NewEngine(time.Hour) // interval long enough to never tick in the test
	e.SetFrames(makeFrames(10))

	e.Play()
	if !e.Snapshot().IsPlaying {
		t.Fatal("engine should be playing")
	}

	e.Seek(100)
	snap := e.Snapshot()
	if snap.FrameIndex != 9 {
		t.Errorf("seek past end: index = %d, want 9", snap.FrameIndex)
	}
	if snap.IsPlaying {
		t.Error("seek must pause playback")
	}

	e.Seek(-5)
	if got := e.Snapshot().FrameIndex; got != 0 {
		t.Errorf("seek before start: index = %d, want 0", got)
	}
}

func TestReset(t *testing.T) {
	e := NewEngine(time.Hour)
	e.SetFrames(makeFrames(5))
	e.Seek(3)
	e.Play()
	e.Reset()

	snap := e.Snapshot()
	if snap.FrameIndex != 0 || snap.IsPlaying {
		t.Errorf("reset: %+v, want index 0 and paused", snap)
	}
}

func TestCycleSpeed(t *testing.T) {
	e := NewEngine(time.Hour)
	if got := e.Speed(); got != 1 {
		t.Fatalf("initial speed = %v, want 1", got)
	}

	want := []float64{2, 4, 0.5, 1, 2}
	for i, w := range want {
		if got := e.CycleSpeed(); got != w {
			t.Errorf("cycle %d: speed = %v, want %v", i, got, w)
		}
	}
}

func TestTimerAdvancesWhilePlaying(t *testing.T) {
	e := NewEngine(2 * time.Millisecond)
	e.SetFrames(makeFrames(1000))

	advanced := make(chan Snapshot, 64)
	e.AddListener(func(s Snapshot) {
		select {
		case advanced <- s:
		default:
		}
	})

	e.Play()
	select {
	case <-advanced:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never advanced the frame index")
	}
	e.Pause()

	if e.Snapshot().IsPlaying {
		t.Error("engine still playing after pause")
	}

	// No ticks after pause: the index must stay put.
	idx := e.Snapshot().FrameIndex
	time.Sleep(20 * time.Millisecond)
	if got := e.Snapshot().FrameIndex; got != idx {
		t.Errorf("frame index moved after pause: %d -> %d", idx, got)
	}
}

func TestSetFramesRewindsAndPauses(t *testing.T) {
	e := NewEngine(time.Hour)
	e.SetFrames(makeFrames(10))
	e.Seek(7)
	e.Play()

	e.SetFrames(makeFrames(3))
	snap := e.Snapshot()
	if snap.FrameIndex != 0 || snap.IsPlaying || snap.FrameCount != 3 {
		t.Errorf("SetFrames: %+v, want rewound and paused with 3 frames", snap)
	}
}

func TestRemovedListenerStopsReceiving(t *testing.T) {
	e := NewEngine(time.Hour)
	e.SetFrames(makeFrames(10))

	var first, second int
	remove := e.AddListener(func(Snapshot) { first++ })
	e.AddListener(func(Snapshot) { second++ })

	e.Advance()
	if first != 1 || second != 1 {
		t.Fatalf("before removal: first=%d second=%d, want 1 and 1", first, second)
	}

	remove()
	e.Advance()
	e.Advance()
	if first != 1 {
		t.Errorf("removed listener still called: %d notifications", first)
	}
	if second != 3 {
		t.Errorf("remaining listener: %d notifications, want 3", second)
	}

	// Removing twice is harmless.
	remove()
	e.Advance()
	if first != 1 {
		t.Errorf("listener resurrected by double removal: %d notifications", first)
	}
}
