package snapshot

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, establishmentID string, period time.Time) (MonthlySnapshot, error)

	// List returns snapshots for an establishment within [from, to], ascending
	// by period. Zero times mean unbounded.
	List(ctx context.Context, establishmentID string, from, to time.Time) ([]MonthlySnapshot, error)

	// Delete removes the snapshot for (establishment, period) if present.
	// Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, establishmentID string, period time.Time) error

	Insert(ctx context.Context, snap MonthlySnapshot) error
}
