package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gridswap/swapdash/internal/types"
)

func weatherIntervention(multiplier float64) types.Intervention {
	return types.Intervention{
		Kind: types.InterventionWeatherDemand,
		Params: map[string]interface{}{
			"condition":  "rain",
			"multiplier": multiplier,
			"start_hour": 8,
			"end_hour":   11,
		},
	}
}

func TestPendingActiveDisjoint(t *testing.T) {
	s := New()

	s.AddPendingIntervention(weatherIntervention(1.2))
	s.AddPendingIntervention(weatherIntervention(1.5))
	s.AddPendingIntervention(weatherIntervention(0.8))

	if got := len(s.PendingInterventions()); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}
	if got := len(s.ActiveInterventions()); got != 0 {
		t.Fatalf("active = %d, want 0", got)
	}

	s.PromotePending()

	pending := s.PendingInterventions()
	active := s.ActiveInterventions()
	if len(pending) != 0 {
		t.Errorf("pending not cleared after promotion: %d items", len(pending))
	}
	if len(active) != 3 {
		t.Fatalf("active = %d, want 3", len(active))
	}
	// Original order preserved.
	for i, want := range []float64{1.2, 1.5, 0.8} {
		if got := active[i].Params["multiplier"]; got != want {
			t.Errorf("active[%d].multiplier = %v, want %v", i, got, want)
		}
	}
}

func TestPromoteEmptyPendingKeepsActive(t *testing.T) {
	s := New()
	s.AddPendingIntervention(weatherIntervention(2.0))
	s.PromotePending()

	before := s.ActiveInterventions()
	s.PromotePending()
	after := s.ActiveInterventions()

	if len(after) != len(before) {
		t.Errorf("active changed on empty promotion: %d -> %d", len(before), len(after))
	}
}

func TestRemovePendingIntervention(t *testing.T) {
	s := New()
	s.AddPendingIntervention(weatherIntervention(1.0))
	s.AddPendingIntervention(weatherIntervention(2.0))

	s.RemovePendingIntervention(0)
	if got := s.PendingInterventions(); len(got) != 1 || got[0].Params["multiplier"] != 2.0 {
		t.Errorf("unexpected pending after removal: %+v", got)
	}

	// Out-of-range indexes are silent no-ops.
	s.RemovePendingIntervention(5)
	s.RemovePendingIntervention(-1)
	if got := len(s.PendingInterventions()); got != 1 {
		t.Errorf("pending = %d after no-op removals, want 1", got)
	}
}

func TestBaselineStationProtection(t *testing.T) {
	s := New()
	s.SyncBaselineStations([]types.Station{
		{StationID: "STATION_01", Latitude: 12.97, Longitude: 77.59, Chargers: 5, Tier: types.TierHigh},
	})
	s.AddStation(types.Station{StationID: "STATION_99", Latitude: 13.0, Longitude: 77.6, Chargers: 3})

	if err := s.RemoveStation("STATION_01"); !errors.Is(err, ErrBaselineProtected) {
		t.Errorf("remove baseline station: got %v, want ErrBaselineProtected", err)
	}
	if err := s.UpdateStation("STATION_01", types.Station{Chargers: 10}); !errors.Is(err, ErrBaselineProtected) {
		t.Errorf("edit baseline station: got %v, want ErrBaselineProtected", err)
	}
	if got := len(s.Stations()); got != 2 {
		t.Errorf("station list modified by rejected operations: %d stations", got)
	}

	// User-created stations remain editable.
	if err := s.UpdateStation("STATION_99", types.Station{Chargers: 4, Latitude: 13.0, Longitude: 77.6}); err != nil {
		t.Errorf("edit user station: %v", err)
	}
	if err := s.RemoveStation("STATION_99"); err != nil {
		t.Errorf("remove user station: %v", err)
	}

	if err := s.RemoveStation("NOPE"); !errors.Is(err, ErrStationNotFound) {
		t.Errorf("remove unknown station: got %v, want ErrStationNotFound", err)
	}
}

func TestSyncBaselinePreservesUserStations(t *testing.T) {
	s := New()
	s.AddStation(types.Station{StationID: "USER_01"})
	s.SyncBaselineStations([]types.Station{{StationID: "BASE_01"}, {StationID: "BASE_02"}})

	stations := s.Stations()
	if len(stations) != 3 {
		t.Fatalf("stations = %d, want 3", len(stations))
	}
	baseline := 0
	for _, st := range stations {
		if st.IsBaseline {
			baseline++
		}
	}
	if baseline != 2 {
		t.Errorf("baseline-flagged = %d, want 2", baseline)
	}

	// A re-sync replaces baseline entries, not user entries.
	s.SyncBaselineStations([]types.Station{{StationID: "BASE_03"}})
	stations = s.Stations()
	if len(stations) != 2 {
		t.Errorf("stations after re-sync = %d, want 2", len(stations))
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := New()
	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	s.AddPendingIntervention(weatherIntervention(1.0))
	s.SetRunState(RunRunning, "")
	s.SetRunState(RunCompleted, "")

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Slice != SliceScenarios || events[0].Action != "addPending" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
}

func TestRunStateMachine(t *testing.T) {
	s := New()
	if got := s.RunState(); got.Phase != RunIdle {
		t.Fatalf("initial phase = %s, want idle", got.Phase)
	}
	s.SetRunState(RunRunning, "")
	s.SetRunState(RunFailed, "simulation exploded")
	got := s.RunState()
	if got.Phase != RunFailed || got.Message != "simulation exploded" {
		t.Errorf("failed state = %+v", got)
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	s := New()
	var gone, kept int
	unsubscribe := s.Subscribe(func(Event) { gone++ })
	s.Subscribe(func(Event) { kept++ })

	s.AddPendingIntervention(weatherIntervention(1.0))
	if gone != 1 || kept != 1 {
		t.Fatalf("before unsubscribe: gone=%d kept=%d, want 1 and 1", gone, kept)
	}

	unsubscribe()
	s.AddPendingIntervention(weatherIntervention(2.0))
	if gone != 1 {
		t.Errorf("unsubscribed listener still called: %d events", gone)
	}
	if kept != 2 {
		t.Errorf("remaining listener: %d events, want 2", kept)
	}
}

func TestTryBeginRun(t *testing.T) {
	s := New()
	if !s.TryBeginRun() {
		t.Fatal("first TryBeginRun should succeed")
	}
	if s.TryBeginRun() {
		t.Error("TryBeginRun entered twice")
	}
	s.SetRunState(RunCompleted, "")
	if !s.TryBeginRun() {
		t.Error("TryBeginRun should succeed after the run completed")
	}
}

func TestTryBeginBaseline(t *testing.T) {
	s := New()
	if !s.TryBeginBaseline() {
		t.Fatal("first TryBeginBaseline should succeed")
	}
	if s.TryBeginBaseline() {
		t.Error("TryBeginBaseline entered twice")
	}
	s.SetBaselineRunning(false)
	if !s.TryBeginBaseline() {
		t.Error("TryBeginBaseline should succeed after the guard cleared")
	}
}

func TestTryBeginRunConcurrent(t *testing.T) {
	s := New()
	const workers = 16
	var wg sync.WaitGroup
	var entered int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBeginRun() {
				atomic.AddInt32(&entered, 1)
			}
		}()
	}
	wg.Wait()
	if entered != 1 {
		t.Errorf("%d goroutines passed the run guard, want 1", entered)
	}
}
