// Package postgres provides a run-history archive backed by PostgreSQL, for
// deployments where multiple dashboard instances share one archive.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/internal/types"
)

// Storage holds the connection for a PostgreSQL archive backend
type Storage struct {
	db *gorm.DB
}

// New sets up a new PostgreSQL archive backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	log.Info("connecting to PostgreSQL run archive...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("could not connect to PostgreSQL archive: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&types.RunRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate run archive table: %w", err)
	}

	return &Storage{db: db}, nil
}

// StartArchiveEngine creates a goroutine loop to receive run records and
// write them to the archive
func (s *Storage) StartArchiveEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RunRecord {
	log.Info("starting PostgreSQL archive engine...")
	recordChan := make(chan types.RunRecord, 10)
	go s.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (s *Storage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.RunRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := s.StoreRun(ctx, r); err != nil {
				log.Error("could not archive run:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling PostgreSQL archive engine.")
			return
		}
	}
}

// StoreRun stores a run record in the archive
func (s *Storage) StoreRun(ctx context.Context, r types.RunRecord) error {
	return s.db.WithContext(ctx).Create(&r).Error
}

// RecentRuns returns the most recent archived runs for a project, newest
// first, without the timeline blob.
func (s *Storage) RecentRuns(ctx context.Context, projectID string, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []types.RunRecord
	err := s.db.WithContext(ctx).
		Select("id", "project_id", "scenario_id", "scenario_name", "status",
			"duration_hours", "interventions", "kpis", "costs", "completed_at").
		Where("project_id = ?", projectID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
