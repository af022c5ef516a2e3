package record

import (
	"context"
	"time"
)

type Repository interface {
	// GetPeriodRecords returns the three record sets for one establishment and
	// period. A period with no rows at all returns ErrPeriodNotFound.
	GetPeriodRecords(ctx context.Context, establishmentID string, period time.Time) (PeriodRecords, error)

	// ReplacePeriodRecords upserts recs wholesale: same natural key overwrites,
	// never duplicates. Implementations chunk large row sets into batches.
	ReplacePeriodRecords(ctx context.Context, recs PeriodRecords) error

	// ListPeriods returns the distinct reporting periods stored for an
	// establishment, ascending.
	ListPeriods(ctx context.Context, establishmentID string) ([]time.Time, error)
}
