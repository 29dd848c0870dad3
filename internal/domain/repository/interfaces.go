package repository

import (
	"context"
	"time"

	"AstroCarto/internal/domain/models"
)

// RunSummary is one archived computation, as stored and queried.
type RunSummary struct {
	Fingerprint string
	JD          float64
	Bodies      []string
	Features    int
	Parans      int
	Warnings    int
	Partial     bool
	DurationMS  int64
	ComputedAt  time.Time
}

// Archive persists completed computations for offline analytics.
type Archive interface {
	Init(ctx context.Context) error // ensure tables
	StoreResult(ctx context.Context, res *models.CalculationResult) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits completed result summaries to downstream consumers.
type Publisher interface {
	PublishResult(ctx context.Context, res *models.CalculationResult) error
	Close() error
}

// Metrics records operational measurements for the compute pipeline.
type Metrics interface {
	RecordComputation(outcome string, seconds float64)
	RecordFeatures(kind string, n int)
	RecordWarning(kind string)
	RecordSolverIterations(op string, n int)
	RecordCacheHit()
	RecordCacheMiss()
}
