// Package playback animates a fixed, ordered sequence of simulation
// timeline frames with play/pause/seek/speed controls. The engine owns the
// only recurring timer in the dashboard; pausing or closing stops it
// deterministically, leaving no orphaned callbacks.
package playback

import (
	"sync"
	"time"

	"github.com/gridswap/swapdash/internal/types"
)

// Speeds is the fixed set of playback multipliers, cycled in order.
var Speeds = []float64{0.5, 1, 2, 4}

// DefaultBaseInterval is the tick interval at 1x speed when the
// configuration does not specify one.
const DefaultBaseInterval = 500 * time.Millisecond

// Snapshot is the engine state plus derived statistics for the current
// frame, delivered to listeners on every advance or seek.
type Snapshot struct {
	FrameIndex int             `json:"frame_index"`
	FrameCount int             `json:"frame_count"`
	IsPlaying  bool            `json:"is_playing"`
	Speed      float64         `json:"speed"`
	Frame      *types.TimelineFrame `json:"frame,omitempty"`
	Stats      FrameStats      `json:"stats"`
	Activity   map[string]bool `json:"activity,omitempty"`
}

// Engine drives a frame index forward on a timer.
type Engine struct {
	mu           sync.Mutex
	frames       []types.TimelineFrame
	frameIndex   int
	playing      bool
	speedIdx     int
	baseInterval time.Duration
	stopCh       chan struct{}
	listeners    map[int]func(Snapshot)
	nextListener int
}

// NewEngine creates a paused engine with no frames at 1x speed. A
// non-positive baseInterval selects DefaultBaseInterval.
func NewEngine(baseInterval time.Duration) *Engine {
	if baseInterval <= 0 {
		baseInterval = DefaultBaseInterval
	}
	return &Engine{
		baseInterval: baseInterval,
		speedIdx:     1, // 1x
	}
}

// AddListener registers a callback invoked on every frame change. The
// returned func removes the listener; callers that outlive their interest
// must call it or the engine keeps fanning out to them.
func (e *Engine) AddListener(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[int]func(Snapshot))
	}
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// SetFrames replaces the frame sequence, rewinding to frame 0 and pausing.
// Frames are fixed once set; the next completed run replaces them wholesale.
func (e *Engine) SetFrames(frames []types.TimelineFrame) {
	e.mu.Lock()
	e.stopLocked()
	e.frames = frames
	e.frameIndex = 0
	e.mu.Unlock()
}

// Play starts the playback timer. A no-op when already playing or when the
// frame sequence is empty.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || len(e.frames) == 0 {
		return
	}
	e.playing = true
	e.startLocked()
}

// Pause stops the playback timer deterministically.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
}

// Close releases the engine's timer. Equivalent to Pause.
func (e *Engine) Close() {
	e.Pause()
}

// Seek jumps to the given frame, clamping to the valid range. Seeking
// always pauses: scrubbing is a manual control takeover.
func (e *Engine) Seek(index int) {
	e.mu.Lock()
	e.stopLocked()
	if len(e.frames) == 0 {
		e.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(e.frames)-1 {
		index = len(e.frames) - 1
	}
	e.frameIndex = index
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
}

// Reset rewinds to frame 0 and pauses.
func (e *Engine) Reset() {
	e.Seek(0)
}

// CycleSpeed advances to the next multiplier in the fixed speed set,
// wrapping after the last. A running timer is restarted at the new rate.
func (e *Engine) CycleSpeed() float64 {
	e.mu.Lock()
	e.speedIdx = (e.speedIdx + 1) % len(Speeds)
	speed := Speeds[e.speedIdx]
	if e.playing {
		// Restart the ticker at the new interval.
		close(e.stopCh)
		e.startLocked()
	}
	e.mu.Unlock()
	return speed
}

// Speed returns the current playback multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Speeds[e.speedIdx]
}

// Snapshot returns the current engine state and derived frame statistics.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Advance moves one frame forward, wrapping to 0 after the last frame so
// playback loops for continuous replay. Exposed for single-step controls;
// the timer calls it on every tick.
func (e *Engine) Advance() {
	e.mu.Lock()
	if len(e.frames) == 0 {
		e.mu.Unlock()
		return
	}
	e.frameIndex = (e.frameIndex + 1) % len(e.frames)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
}

// startLocked launches the timer goroutine. Caller must hold the lock and
// have set playing.
func (e *Engine) startLocked() {
	stop := make(chan struct{})
	e.stopCh = stop
	interval := time.Duration(float64(e.baseInterval) / Speeds[e.speedIdx])

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tickAdvance(stop)
			}
		}
	}()
}

// tickAdvance advances on a timer tick. A tick that raced a pause or speed
// change is discarded: the stop channel identifies the ticker generation.
func (e *Engine) tickAdvance(stop chan struct{}) {
	e.mu.Lock()
	if !e.playing || e.stopCh != stop || len(e.frames) == 0 {
		e.mu.Unlock()
		return
	}
	e.frameIndex = (e.frameIndex + 1) % len(e.frames)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
}

// stopLocked halts the timer goroutine if one is running. Caller must hold
// the lock.
func (e *Engine) stopLocked() {
	if !e.playing {
		return
	}
	e.playing = false
	close(e.stopCh)
	e.stopCh = nil
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		FrameIndex: e.frameIndex,
		FrameCount: len(e.frames),
		IsPlaying:  e.playing,
		Speed:      Speeds[e.speedIdx],
	}
	if len(e.frames) == 0 {
		return snap
	}
	frame := e.frames[e.frameIndex]
	snap.Frame = &frame

	var prev *types.TimelineFrame
	if e.frameIndex > 0 {
		prev = &e.frames[e.frameIndex-1]
	}
	snap.Stats = DeriveFrameStats(&frame, prev)
	snap.Activity = StationActivity(&frame, prev)
	return snap
}

func (e *Engine) publish(snap Snapshot) {
	e.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
