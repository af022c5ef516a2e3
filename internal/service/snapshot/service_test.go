package snapshot

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/clock"
	"github.com/pilotage-rh/analytics-backend-go/internal/repository/memory"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	wb  importer.Workbook
	err error
}

func (f fakeReader) Read(string) (importer.Workbook, error) { return f.wb, f.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func empRow(matricule, periode, contrat, sortie string) map[string]any {
	row := map[string]any{
		"matricule":     matricule,
		"periode":       periode,
		"type_contrat":  contrat,
		"statut_emploi": "Actif",
	}
	if sortie != "" {
		row["date_sortie"] = sortie
	}
	return row
}

func payRowRaw(matricule, mois, base string) map[string]any {
	return map[string]any{
		"matricule":            matricule,
		"mois_paie":            mois,
		"salaire_de_base":      base,
		"cotisations_sociales": "1 000,00",
	}
}

// marchWorkbook reproduces the reference scenario: 3 active employees
// (2 CDI, 1 CDD), one exit on 2024-03-20 and one 5-day sickness spell.
func marchWorkbook() importer.Workbook {
	return importer.Workbook{
		Employees: []map[string]any{
			empRow("1", "2024-03-01", "CDI", ""),
			empRow("2", "2024-03-01", "CDI", ""),
			empRow("3", "2024-03-01", "CDD", "2024-03-20"),
		},
		Remunerations: []map[string]any{
			payRowRaw("1", "2024-03-01", "2500,00"),
			payRowRaw("2", "2024-03-01", "2600,00"),
			payRowRaw("3", "2024-03-01", "2200,00"),
		},
		Absences: []map[string]any{
			{
				"matricule":    "1",
				"type_absence": "Maladie",
				"date_debut":   "2024-03-01",
				"date_fin":     "2024-03-05",
			},
		},
	}
}

func newTestService(wb importer.Workbook) (snapshot.Service, *memory.RecordStore, *memory.SnapshotStore) {
	records := memory.NewRecordStore()
	snapshots := memory.NewSnapshotStore()
	clk := clock.Fixed(time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC))
	svc := NewSnapshotService(records, snapshots, fakeReader{wb: wb}, clk, testLogger())
	return svc, records, snapshots
}

func TestRunImport_ReferenceScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(marchWorkbook())

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{
		EstablishmentID: "etab-1",
		WorkbookPath:    "import.xlsx",
	})
	require.NoError(t, err)

	assert.Equal(t, snapshot.JobStateCompleted, res.State)
	assert.Equal(t, 1, res.PeriodsTotal)
	assert.Equal(t, 1, res.PeriodsSucceeded)
	assert.InDelta(t, 100.0, res.SuccessRatio, 1e-9)

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snap, err := svc.GetSnapshot(ctx, "etab-1", march)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Workforce.EffectifFinMois)
	assert.Equal(t, 1, snap.Workforce.NbSorties)
	assert.InDelta(t, 66.67, snap.Workforce.PctCDI, 1e-9)
	assert.InDelta(t, 5, snap.Absence.NbJoursMaladie, 1e-9)
	// 5 days over 3 active employees × 21 working days in March 2024.
	assert.InDelta(t, 7.94, snap.Absence.TauxAbsenteismeMaladie, 1e-9)
	assert.InDelta(t, 7300, snap.Payroll.MasseSalarialeBrute, 1e-9)
	assert.Equal(t, res.JobID, snap.ImportBatchID)
	assert.Equal(t, time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC), snap.CalculatedAt)
}

func TestRunImport_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(marchWorkbook())

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	require.NoError(t, err)
	first, err := svc.GetSnapshot(ctx, "etab-1", march)
	require.NoError(t, err)

	_, err = svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	require.NoError(t, err)
	second, err := svc.GetSnapshot(ctx, "etab-1", march)
	require.NoError(t, err)

	// The batch id changes per job; everything computed must not.
	first.ImportBatchID = second.ImportBatchID
	assert.Equal(t, first, second)
}

func TestRunImport_EffectsAcrossPeriods(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wb := importer.Workbook{
		Employees: []map[string]any{
			empRow("1", "2024-02-01", "CDI", ""),
			empRow("2", "2024-02-01", "CDI", ""),
			empRow("1", "2024-03-01", "CDI", ""),
			empRow("2", "2024-03-01", "CDI", ""),
			empRow("3", "2024-03-01", "CDD", ""),
		},
		Remunerations: []map[string]any{
			payRowRaw("1", "2024-02-01", "2500,00"),
			payRowRaw("2", "2024-02-01", "2600,00"),
			payRowRaw("1", "2024-03-01", "2550,00"),
			payRowRaw("2", "2024-03-01", "2650,00"),
			payRowRaw("3", "2024-03-01", "2200,00"),
		},
	}
	svc, _, _ := newTestService(wb)

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	require.NoError(t, err)
	require.Equal(t, 2, res.PeriodsSucceeded)

	february, err := svc.GetSnapshot(ctx, "etab-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, february.Payroll.Effets) // no prior period stored

	march, err := svc.GetSnapshot(ctx, "etab-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, march.Payroll.Effets)

	e := march.Payroll.Effets
	assert.InDelta(t, e.VariationTotale, e.EffetPrix+e.EffetVolume+e.EffetMix, 0.01)
	assert.InDelta(t, 2300, e.VariationTotale, 1e-9) // 7400 − 5100
	assert.Greater(t, e.EffetVolume, 0.0)            // headcount grew
}

func TestRunImport_DegradedAfterRetriesExhausted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, snapshots := newTestService(marchWorkbook())

	// Three injected failures exhaust the primary write's retries; the
	// reduced-fidelity fallback then lands.
	snapshots.FailNextInserts(3)

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	require.NoError(t, err)

	assert.Equal(t, snapshot.JobStateCompleted, res.State)
	require.Len(t, res.Periods, 1)
	assert.Equal(t, snapshot.PeriodStatusDegraded, res.Periods[0].Status)
	assert.Equal(t, 1, res.PeriodsSucceeded)
}

func TestRunImport_FatalOnlyWhenNothingBuilt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, snapshots := newTestService(marchWorkbook())

	snapshots.FailNextInserts(100)

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	assert.ErrorIs(t, err, snapshot.ErrNoPeriodsBuilt)
	assert.Equal(t, snapshot.JobStateError, res.State)
	assert.Equal(t, 0, res.PeriodsSucceeded)
}

func TestRunImport_RejectsBadRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(marchWorkbook())

	_, err := svc.RunImport(ctx, snapshot.ImportRequest{WorkbookPath: "a.xlsx"})
	assert.Error(t, err)

	_, err = svc.RunImport(ctx, snapshot.ImportRequest{
		EstablishmentID: "etab-1",
		WorkbookPath:    "a.xlsx",
		Periods:         []string{"2024-03-15"}, // not a first-of-month
	})
	assert.Error(t, err)
}

func TestRunImport_PeriodFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wb := importer.Workbook{
		Employees: []map[string]any{
			empRow("1", "2024-02-01", "CDI", ""),
			empRow("1", "2024-03-01", "CDI", ""),
		},
	}
	svc, _, _ := newTestService(wb)

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{
		EstablishmentID: "etab-1",
		WorkbookPath:    "a.xlsx",
		Periods:         []string{"2024-03-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PeriodsTotal)

	_, err = svc.GetSnapshot(ctx, "etab-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
}

func TestJobStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(marchWorkbook())

	res, err := svc.RunImport(ctx, snapshot.ImportRequest{EstablishmentID: "etab-1", WorkbookPath: "a.xlsx"})
	require.NoError(t, err)

	status, err := svc.JobStatus(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.JobStateCompleted, status.State)
	assert.Equal(t, res.PeriodsSucceeded, status.PeriodsSucceeded)

	_, err = svc.JobStatus(ctx, "unknown")
	assert.ErrorIs(t, err, snapshot.ErrJobNotFound)
}

func TestGetSnapshot_RejectsMidMonthPeriod(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(marchWorkbook())

	_, err := svc.GetSnapshot(ctx, "etab-1", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, snapshot.ErrInvalidPeriod)
}
