package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/database"
)

type snapshotRepository struct {
	db *database.DB
}

func NewSnapshotRepository(db *database.DB) snapshot.Repository {
	return &snapshotRepository{db: db}
}

// Metric blocks are stored as JSONB: listing and retrieval always return the
// whole snapshot, so per-field columns would only add migration churn.
func (r *snapshotRepository) Get(ctx context.Context, establishmentID string, period time.Time) (snapshot.MonthlySnapshot, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRow(ctx, `
		SELECT establishment_id, period, import_batch_id, calculated_at,
			   data_quality_score, workforce, absence, payroll
		FROM monthly_snapshots
		WHERE establishment_id = $1 AND period = $2
	`, establishmentID, period)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot.MonthlySnapshot{}, snapshot.ErrSnapshotNotFound
		}
		return snapshot.MonthlySnapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepository) List(ctx context.Context, establishmentID string, from, to time.Time) ([]snapshot.MonthlySnapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT establishment_id, period, import_batch_id, calculated_at,
			   data_quality_score, workforce, absence, payroll
		FROM monthly_snapshots
		WHERE establishment_id = $1
	`
	args := []interface{}{establishmentID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND period >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND period <= $%d", len(args))
	}
	query += " ORDER BY period"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []snapshot.MonthlySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (r *snapshotRepository) Delete(ctx context.Context, establishmentID string, period time.Time) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `
		DELETE FROM monthly_snapshots WHERE establishment_id = $1 AND period = $2
	`, establishmentID, period); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Insert(ctx context.Context, snap snapshot.MonthlySnapshot) error {
	q := GetQuerier(ctx, r.db)

	workforce, err := json.Marshal(snap.Workforce)
	if err != nil {
		return fmt.Errorf("failed to marshal workforce metrics: %w", err)
	}
	absence, err := json.Marshal(snap.Absence)
	if err != nil {
		return fmt.Errorf("failed to marshal absence metrics: %w", err)
	}
	payroll, err := json.Marshal(snap.Payroll)
	if err != nil {
		return fmt.Errorf("failed to marshal payroll metrics: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO monthly_snapshots (
			establishment_id, period, import_batch_id, calculated_at,
			data_quality_score, workforce, absence, payroll
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (establishment_id, period) DO UPDATE SET
			import_batch_id = EXCLUDED.import_batch_id,
			calculated_at = EXCLUDED.calculated_at,
			data_quality_score = EXCLUDED.data_quality_score,
			workforce = EXCLUDED.workforce,
			absence = EXCLUDED.absence,
			payroll = EXCLUDED.payroll
	`, snap.EstablishmentID, snap.Period, snap.ImportBatchID, snap.CalculatedAt,
		snap.DataQualityScore, workforce, absence, payroll); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (snapshot.MonthlySnapshot, error) {
	var (
		snap      snapshot.MonthlySnapshot
		workforce []byte
		absence   []byte
		payroll   []byte
	)
	if err := row.Scan(
		&snap.EstablishmentID, &snap.Period, &snap.ImportBatchID, &snap.CalculatedAt,
		&snap.DataQualityScore, &workforce, &absence, &payroll,
	); err != nil {
		return snapshot.MonthlySnapshot{}, err
	}

	if err := json.Unmarshal(workforce, &snap.Workforce); err != nil {
		return snapshot.MonthlySnapshot{}, fmt.Errorf("failed to unmarshal workforce metrics: %w", err)
	}
	if err := json.Unmarshal(absence, &snap.Absence); err != nil {
		return snapshot.MonthlySnapshot{}, fmt.Errorf("failed to unmarshal absence metrics: %w", err)
	}
	if err := json.Unmarshal(payroll, &snap.Payroll); err != nil {
		return snapshot.MonthlySnapshot{}, fmt.Errorf("failed to unmarshal payroll metrics: %w", err)
	}
	return snap, nil
}
