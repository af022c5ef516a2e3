// Package snapshot orchestrates the import pipeline: workbook rows are
// normalized, sliced by reporting period, aggregated and stored as one
// monthly snapshot per (establishment, period).
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/normalize"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/clock"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/absence"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/importer"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/payroll"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/workforce"
)

const (
	// Storage writes are retried before a period degrades.
	maxStoreAttempts = 3
	retryBackoff     = 100 * time.Millisecond

	// Periods are independent, so snapshot builds fan out to a small
	// bounded pool.
	maxParallelPeriods = 4
)

// WorkbookReader is the importer boundary, kept as an interface so tests can
// feed rows without touching the filesystem.
type WorkbookReader interface {
	Read(path string) (importer.Workbook, error)
}

type SnapshotServiceImpl struct {
	recordRepo   record.Repository
	snapshotRepo snapshot.Repository
	reader       WorkbookReader
	clk          clock.Clock
	logger       *slog.Logger

	workforce *workforce.Calculator
	absence   *absence.Calculator
	payroll   *payroll.Calculator

	mu   sync.RWMutex
	jobs map[string]snapshot.ImportResult
}

func NewSnapshotService(
	recordRepo record.Repository,
	snapshotRepo snapshot.Repository,
	reader WorkbookReader,
	clk clock.Clock,
	logger *slog.Logger,
) snapshot.Service {
	return &SnapshotServiceImpl{
		recordRepo:   recordRepo,
		snapshotRepo: snapshotRepo,
		reader:       reader,
		clk:          clk,
		logger:       logger,
		workforce:    workforce.NewCalculator(),
		absence:      absence.NewCalculator(),
		payroll:      payroll.NewCalculator(),
		jobs:         make(map[string]snapshot.ImportResult),
	}
}

func (s *SnapshotServiceImpl) GetSnapshot(ctx context.Context, establishmentID string, period time.Time) (snapshot.MonthlySnapshot, error) {
	if period.Day() != 1 {
		return snapshot.MonthlySnapshot{}, snapshot.ErrInvalidPeriod
	}
	return s.snapshotRepo.Get(ctx, establishmentID, period)
}

func (s *SnapshotServiceImpl) ListSnapshots(ctx context.Context, establishmentID string, from, to time.Time) ([]snapshot.MonthlySnapshot, error) {
	return s.snapshotRepo.List(ctx, establishmentID, from, to)
}

func (s *SnapshotServiceImpl) JobStatus(_ context.Context, jobID string) (snapshot.ImportResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.jobs[jobID]
	if !ok {
		return snapshot.ImportResult{}, snapshot.ErrJobNotFound
	}
	return res, nil
}

func (s *SnapshotServiceImpl) saveJob(res snapshot.ImportResult) {
	s.mu.Lock()
	s.jobs[res.JobID] = res
	s.mu.Unlock()
}

// RunImport executes one import job: validating → processing → effects
// calculation → completion, with error as the absorbing failure state. One
// period failing never aborts the others; the job only errors as a whole
// when no period produced a snapshot.
func (s *SnapshotServiceImpl) RunImport(ctx context.Context, req snapshot.ImportRequest) (snapshot.ImportResult, error) {
	if err := req.Validate(); err != nil {
		return snapshot.ImportResult{}, err
	}

	res := snapshot.ImportResult{
		JobID:           uuid.NewString(),
		EstablishmentID: req.EstablishmentID,
		State:           snapshot.JobStateValidating,
	}
	s.saveJob(res)

	wb, err := s.reader.Read(req.WorkbookPath)
	if err != nil {
		res.State = snapshot.JobStateError
		s.saveJob(res)
		return res, fmt.Errorf("failed to read workbook: %w", err)
	}

	periods, quality := s.normalizeWorkbook(wb, req)
	if len(periods) == 0 {
		res.State = snapshot.JobStateError
		s.saveJob(res)
		return res, snapshot.ErrNoPeriodsBuilt
	}

	keys := make([]time.Time, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	res.State = snapshot.JobStateProcessing
	res.PeriodsTotal = len(keys)
	s.saveJob(res)

	outcomes := s.processPeriods(ctx, keys, periods, res.JobID, quality)

	res.State = snapshot.JobStateEffects
	s.saveJob(res)
	s.applyEffects(ctx, keys, periods, outcomes)

	res.Periods = make([]snapshot.PeriodOutcome, 0, len(keys))
	for _, p := range keys {
		o := outcomes[p.Format("2006-01-02")]
		res.Periods = append(res.Periods, o)
		if o.Status == snapshot.PeriodStatusFailed {
			res.PeriodsFailed++
		} else {
			res.PeriodsSucceeded++
		}
	}
	res.SuccessRatio = snapshot.Round2(float64(res.PeriodsSucceeded) / float64(res.PeriodsTotal) * 100)

	if res.PeriodsSucceeded == 0 {
		res.State = snapshot.JobStateError
		s.saveJob(res)
		return res, snapshot.ErrNoPeriodsBuilt
	}

	res.State = snapshot.JobStateCompleted
	s.saveJob(res)
	s.logger.Info("import completed",
		slog.String("job_id", res.JobID),
		slog.String("establishment_id", res.EstablishmentID),
		slog.Int("periods_succeeded", res.PeriodsSucceeded),
		slog.Int("periods_failed", res.PeriodsFailed),
	)
	return res, nil
}

// normalizeWorkbook turns raw rows into typed records bucketed by period and
// computes the data-quality score (share of rows that survived
// normalization). Rejected rows are logged, never fatal.
func (s *SnapshotServiceImpl) normalizeWorkbook(wb importer.Workbook, req snapshot.ImportRequest) (map[time.Time]*record.PeriodRecords, float64) {
	wanted := map[string]bool{}
	for _, p := range req.Periods {
		wanted[p] = true
	}

	periods := map[time.Time]*record.PeriodRecords{}
	bucket := func(p time.Time) *record.PeriodRecords {
		if recs, ok := periods[p]; ok {
			return recs
		}
		recs := &record.PeriodRecords{EstablishmentID: req.EstablishmentID, Period: p}
		periods[p] = recs
		return recs
	}

	var accepted, rejected float64

	seen := map[string]bool{}
	for _, raw := range wb.Employees {
		rec, err := normalize.EmployeeRow(raw, s.clk)
		if err != nil {
			rejected++
			s.logger.Warn("employee row rejected", slog.String("reason", err.Error()))
			continue
		}
		// One record per (matricule, periode): later duplicates are dropped.
		key := rec.Periode.Format("2006-01-02") + "|" + rec.Matricule
		if seen[key] {
			rejected++
			s.logger.Warn("duplicate employee row rejected", slog.String("matricule", rec.Matricule))
			continue
		}
		seen[key] = true
		accepted++
		b := bucket(rec.Periode)
		b.Employees = append(b.Employees, rec)
	}
	for _, raw := range wb.Remunerations {
		rec, err := normalize.RemunerationRow(raw, s.clk)
		if err != nil {
			rejected++
			s.logger.Warn("remuneration row rejected", slog.String("reason", err.Error()))
			continue
		}
		accepted++
		b := bucket(rec.MoisPaie)
		b.Remunerations = append(b.Remunerations, rec)
	}
	for _, raw := range wb.Absences {
		rec, err := normalize.AbsenceRow(raw)
		if err != nil {
			rejected++
			s.logger.Warn("absence row rejected", slog.String("reason", err.Error()))
			continue
		}
		accepted++
		p := time.Date(rec.DateDebut.Year(), rec.DateDebut.Month(), 1, 0, 0, 0, 0, time.UTC)
		b := bucket(p)
		b.Absences = append(b.Absences, rec)
	}

	if len(wanted) > 0 {
		for p := range periods {
			if !wanted[p.Format("2006-01-02")] {
				delete(periods, p)
			}
		}
	}

	quality := 100.0
	if accepted+rejected > 0 {
		quality = snapshot.Round2(accepted / (accepted + rejected) * 100)
	}
	return periods, quality
}

// processPeriods persists records and builds snapshots with a bounded worker
// pool. Progress moves through an atomic counter; cancellation is checked
// between periods, in-flight builds run to completion.
func (s *SnapshotServiceImpl) processPeriods(
	ctx context.Context,
	keys []time.Time,
	periods map[time.Time]*record.PeriodRecords,
	batchID string,
	quality float64,
) map[string]snapshot.PeriodOutcome {
	var (
		mu       sync.Mutex
		outcomes = make(map[string]snapshot.PeriodOutcome, len(keys))
		progress atomic.Int64
		wg       sync.WaitGroup
	)

	work := make(chan time.Time)
	for i := 0; i < maxParallelPeriods; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				var outcome snapshot.PeriodOutcome
				if ctx.Err() != nil {
					outcome = snapshot.PeriodOutcome{
						Period: p.Format("2006-01-02"),
						Status: snapshot.PeriodStatusFailed,
						Error:  "import cancelled",
					}
				} else {
					prev := s.resolvePrior(ctx, periods, p)
					outcome = s.buildPeriod(ctx, *periods[p], prev, batchID, quality)
				}
				mu.Lock()
				outcomes[outcome.Period] = outcome
				mu.Unlock()
				s.logger.Debug("period processed",
					slog.String("period", outcome.Period),
					slog.String("status", string(outcome.Status)),
					slog.Int64("done", progress.Add(1)),
					slog.Int("total", len(keys)),
				)
			}
		}()
	}
	for _, p := range keys {
		work <- p
	}
	close(work)
	wg.Wait()

	return outcomes
}

// buildPeriod stores the period's records, aggregates them and replaces the
// stored snapshot. Transient storage failures are retried; once retries are
// exhausted the period falls back to a reduced-fidelity snapshot (cold-start
// baselines, no cross-period data) before being declared failed.
func (s *SnapshotServiceImpl) buildPeriod(ctx context.Context, recs record.PeriodRecords, prev *record.PeriodRecords, batchID string, quality float64) snapshot.PeriodOutcome {
	outcome := snapshot.PeriodOutcome{
		Period: recs.Period.Format("2006-01-02"),
		Status: snapshot.PeriodStatusOK,
	}

	if err := s.withRetry(ctx, func() error {
		return s.recordRepo.ReplacePeriodRecords(ctx, recs)
	}); err != nil {
		outcome.Status = snapshot.PeriodStatusFailed
		outcome.Error = fmt.Sprintf("failed to store records: %v", err)
		return outcome
	}

	snap := s.buildSnapshot(recs, prev, batchID, quality)
	outcome.Warnings = append(outcome.Warnings, snap.Absence.Warnings...)
	outcome.Warnings = append(outcome.Warnings, snap.Payroll.Warnings...)

	if err := s.replaceSnapshot(ctx, snap); err == nil {
		return outcome
	}

	// Reduced-fidelity fallback: recompute without prior-period baselines and
	// try the store once more rather than failing the whole period.
	degraded := s.buildSnapshot(recs, nil, batchID, quality)
	if err := s.replaceSnapshot(ctx, degraded); err != nil {
		outcome.Status = snapshot.PeriodStatusFailed
		outcome.Error = fmt.Sprintf("failed to store snapshot: %v", err)
		return outcome
	}
	outcome.Status = snapshot.PeriodStatusDegraded
	outcome.Warnings = append(outcome.Warnings, "snapshot stored in degraded mode without prior-period baselines")
	return outcome
}

func (s *SnapshotServiceImpl) buildSnapshot(recs record.PeriodRecords, prev *record.PeriodRecords, batchID string, quality float64) snapshot.MonthlySnapshot {
	var prevEmployees []record.EmployeeRecord
	if prev != nil {
		prevEmployees = prev.Employees
	}

	wf := s.workforce.Compute(recs.Employees, prevEmployees, recs.Period)
	ab := s.absence.Compute(recs.Absences, recs.Employees, recs.Period)
	// Effects need the prior pay month and belong to the dedicated stage;
	// here payroll runs without decomposition.
	pay := s.payroll.Compute(recs.Remunerations, nil, recs.Employees, wf.ETPFinMois, 0)

	return snapshot.MonthlySnapshot{
		EstablishmentID:  recs.EstablishmentID,
		Period:           recs.Period,
		ImportBatchID:    batchID,
		CalculatedAt:     s.clk.Now().UTC(),
		DataQualityScore: quality,
		Workforce:        wf,
		Absence:          ab,
		Payroll:          pay,
	}
}

// applyEffects is the effects-calculation stage: for every successfully
// built period with a known predecessor, the payroll block is recomputed
// with the decomposition and the stored snapshot replaced. A failure here
// only downgrades the period, the snapshot itself is already in place.
func (s *SnapshotServiceImpl) applyEffects(ctx context.Context, keys []time.Time, periods map[time.Time]*record.PeriodRecords, outcomes map[string]snapshot.PeriodOutcome) {
	for _, p := range keys {
		key := p.Format("2006-01-02")
		outcome, ok := outcomes[key]
		if !ok || outcome.Status != snapshot.PeriodStatusOK {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		recs := periods[p]
		prev := s.resolvePrior(ctx, periods, p)
		if prev == nil || len(prev.Remunerations) == 0 {
			continue
		}

		snap := s.buildSnapshot(*recs, prev, "", 0)
		// Carry over the batch id and quality score of the stored snapshot.
		stored, err := s.snapshotRepo.Get(ctx, recs.EstablishmentID, p)
		if err == nil {
			snap.ImportBatchID = stored.ImportBatchID
			snap.DataQualityScore = stored.DataQualityScore
		}
		snap.Payroll = s.payroll.Compute(
			recs.Remunerations,
			prev.Remunerations,
			recs.Employees,
			snap.Workforce.ETPFinMois,
			workforce.ETPTotal(prev.Employees),
		)

		if err := s.replaceSnapshot(ctx, snap); err != nil {
			outcome.Status = snapshot.PeriodStatusDegraded
			outcome.Warnings = append(outcome.Warnings, "effects calculation could not be stored")
			outcomes[key] = outcome
			s.logger.Warn("effects stage failed",
				slog.String("period", key), slog.String("error", err.Error()))
		}
	}
}

// resolvePrior finds the immediately preceding period's records, preferring
// the current import's own data over storage so parallel builds stay
// deterministic. Absence of a prior period is a cold start, not an error.
func (s *SnapshotServiceImpl) resolvePrior(ctx context.Context, periods map[time.Time]*record.PeriodRecords, period time.Time) *record.PeriodRecords {
	prevPeriod := period.AddDate(0, -1, 0)
	if recs, ok := periods[prevPeriod]; ok {
		return recs
	}

	var establishmentID string
	if recs, ok := periods[period]; ok {
		establishmentID = recs.EstablishmentID
	}
	prev, err := s.recordRepo.GetPeriodRecords(ctx, establishmentID, prevPeriod)
	if err != nil {
		return nil
	}
	return &prev
}

func (s *SnapshotServiceImpl) replaceSnapshot(ctx context.Context, snap snapshot.MonthlySnapshot) error {
	return s.withRetry(ctx, func() error {
		if err := s.snapshotRepo.Delete(ctx, snap.EstablishmentID, snap.Period); err != nil {
			return err
		}
		return s.snapshotRepo.Insert(ctx, snap)
	})
}

func (s *SnapshotServiceImpl) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxStoreAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < maxStoreAttempts {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
	}
	return err
}
