package managers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gridswap/swapdash/internal/types"
)

// A backend that stops draining its channel must not stall the distributor:
// records headed for it are dropped, and the distributor keeps accepting.
func TestRunDistributorSurvivesStalledEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	stalled := make(chan types.RunRecord) // never read
	m := ArchiveManager{
		RunDistributor: make(chan types.RunRecord, 1),
		Engines:        []ArchiveEngine{{C: stalled}},
	}
	go m.startRunDistributor(ctx, &wg)

	for i := 0; i < 10; i++ {
		select {
		case m.RunDistributor <- types.RunRecord{ID: "run", ScenarioID: "sc"}:
		case <-time.After(time.Second):
			t.Fatalf("distributor stalled behind a blocked engine on record %d", i)
		}
	}
}

func TestRunDistributorDeliversToEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sink := make(chan types.RunRecord, 1)
	m := ArchiveManager{
		RunDistributor: make(chan types.RunRecord, 1),
		Engines:        []ArchiveEngine{{C: sink}},
	}
	go m.startRunDistributor(ctx, &wg)

	m.RunDistributor <- types.RunRecord{ID: "run-1"}
	select {
	case rec := <-sink:
		if rec.ID != "run-1" {
			t.Errorf("delivered record ID = %s, want run-1", rec.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("record never reached the engine channel")
	}
}
