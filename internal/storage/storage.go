// Package storage defines interfaces and implementations for run-history
// archive backends.
package storage

import (
	"context"
	"sync"

	"github.com/gridswap/swapdash/internal/types"
)

// ArchiveEngineInterface is an interface that provides a few standardized
// methods for various archive backends
type ArchiveEngineInterface interface {
	StartArchiveEngine(context.Context, *sync.WaitGroup) chan<- types.RunRecord
}

// ArchiveReader is implemented by backends that can also serve run history
// back to the management API.
type ArchiveReader interface {
	RecentRuns(ctx context.Context, projectID string, limit int) ([]types.RunRecord, error)
}
