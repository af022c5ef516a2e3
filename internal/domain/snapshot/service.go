package snapshot

import (
	"context"
	"time"
)

// Service is the boundary the HTTP layer consumes: snapshot reads plus the
// import pipeline that produces them.
type Service interface {
	GetSnapshot(ctx context.Context, establishmentID string, period time.Time) (MonthlySnapshot, error)
	ListSnapshots(ctx context.Context, establishmentID string, from, to time.Time) ([]MonthlySnapshot, error)

	// RunImport executes an import job synchronously and returns its tally.
	RunImport(ctx context.Context, req ImportRequest) (ImportResult, error)

	// JobStatus returns the tally of a finished or in-flight job.
	JobStatus(ctx context.Context, jobID string) (ImportResult, error)
}
