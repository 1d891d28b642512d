package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/internal/storage"
	"github.com/gridswap/swapdash/internal/storage/postgres"
	"github.com/gridswap/swapdash/internal/storage/sqlite"
	"github.com/gridswap/swapdash/internal/types"
	"github.com/gridswap/swapdash/pkg/config"
)

// ArchiveManager holds our active run-history archive backends
type ArchiveManager struct {
	Engines        []ArchiveEngine
	RunDistributor chan types.RunRecord
}

// ArchiveEngine holds a backend archive engine's interface as well as
// a channel for passing run records to the engine
type ArchiveEngine struct {
	Engine storage.ArchiveEngineInterface
	C      chan<- types.RunRecord
}

// NewArchiveManager creates an ArchiveManager object, populated with all
// configured archive backends
func NewArchiveManager(ctx context.Context, wg *sync.WaitGroup, cfg *config.ArchiveData) (*ArchiveManager, error) {
	m := ArchiveManager{}

	m.RunDistributor = make(chan types.RunRecord, 20)

	go m.startRunDistributor(ctx, wg)

	if cfg == nil {
		return &m, nil
	}

	if cfg.SQLite != nil && cfg.SQLite.Path != "" {
		if err := m.AddEngine(ctx, wg, "sqlite", cfg); err != nil {
			return &m, fmt.Errorf("could not add SQLite archive backend: %v", err)
		}
	}

	if cfg.Postgres != nil && cfg.Postgres.ConnectionString != "" {
		if err := m.AddEngine(ctx, wg, "postgres", cfg); err != nil {
			return &m, fmt.Errorf("could not add PostgreSQL archive backend: %v", err)
		}
	}

	return &m, nil
}

// GetRunDistributor returns the run distributor channel
func (m *ArchiveManager) GetRunDistributor() chan types.RunRecord {
	return m.RunDistributor
}

// Reader returns the first archive backend that can serve run history back
// out, or nil when none is configured.
func (m *ArchiveManager) Reader() storage.ArchiveReader {
	for _, e := range m.Engines {
		if r, ok := e.Engine.(storage.ArchiveReader); ok {
			return r
		}
	}
	return nil
}

// AddEngine adds a new ArchiveEngine of name engineName to our manager
func (m *ArchiveManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engineName string, cfg *config.ArchiveData) error {
	switch engineName {
	case "sqlite":
		e := ArchiveEngine{}
		engine, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		e.Engine = engine
		e.C = e.Engine.StartArchiveEngine(ctx, wg)
		m.Engines = append(m.Engines, e)
	case "postgres":
		e := ArchiveEngine{}
		engine, err := postgres.New(ctx, cfg.Postgres.ConnectionString)
		if err != nil {
			return err
		}
		e.Engine = engine
		e.C = e.Engine.StartArchiveEngine(ctx, wg)
		m.Engines = append(m.Engines, e)
	default:
		return fmt.Errorf("unknown archive engine: %s", engineName)
	}

	return nil
}

// startRunDistributor receives run records from scenario managers and fans
// them out to the configured archive backends
func (m *ArchiveManager) startRunDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-m.RunDistributor:
			for _, e := range m.Engines {
				// A stalled backend drops records rather than blocking the
				// distributor and, behind it, every simulation run.
				select {
				case e.C <- r:
				default:
					log.Warnf("archive engine is backed up; dropping run record %s", r.ID)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
