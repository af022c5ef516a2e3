package absence

import (
	"testing"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march2024 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func activeEmp(matricule string) record.EmployeeRecord {
	return record.EmployeeRecord{
		Matricule:    matricule,
		Periode:      march2024,
		TempsTravail: 1.0,
		StatutEmploi: record.StatutActif,
	}
}

func spell(matricule, typeAbsence string, debut time.Time, days int) record.AbsenceRecord {
	rec := record.AbsenceRecord{
		Matricule:   matricule,
		TypeAbsence: typeAbsence,
		DateDebut:   debut,
	}
	if days > 1 {
		fin := debut.AddDate(0, 0, days-1)
		rec.DateFin = &fin
	}
	return rec
}

func TestWorkingDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 21, WorkingDays(march2024))
	assert.Equal(t, 22, WorkingDays(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 21, WorkingDays(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))) // leap February
}

func TestCompute_NoActiveEmployees(t *testing.T) {
	t.Parallel()

	absences := []record.AbsenceRecord{spell("1", "Maladie", march2024, 3)}
	inactive := []record.EmployeeRecord{{Matricule: "1", StatutEmploi: "Sorti"}}

	assert.Equal(t, snapshot.AbsenceMetrics{}, NewCalculator().Compute(absences, inactive, march2024))
	assert.Equal(t, snapshot.AbsenceMetrics{}, NewCalculator().Compute(nil, nil, march2024))
}

func TestCompute_SicknessScenario(t *testing.T) {
	t.Parallel()

	employees := []record.EmployeeRecord{activeEmp("1"), activeEmp("2"), activeEmp("3")}
	absences := []record.AbsenceRecord{
		spell("1", "Maladie", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 5),
	}

	m := NewCalculator().Compute(absences, employees, march2024)

	assert.Equal(t, 21, m.JoursOuvrables)
	assert.InDelta(t, 5, m.NbJoursMaladie, 1e-9)
	assert.InDelta(t, 5, m.NbJoursAbsenceTotal, 1e-9)
	// 5 / (3 × 21) × 100
	assert.InDelta(t, 7.94, m.TauxAbsenteisme, 1e-9)
	assert.InDelta(t, 7.94, m.TauxAbsenteismeMaladie, 1e-9)
	assert.Equal(t, 1, m.NbSalariesAbsents)
	assert.InDelta(t, 5.0, m.DureeMoyenneAbsence, 1e-9)
	assert.InDelta(t, 0.33, m.FrequenceAbsence, 1e-9)
}

func TestCompute_CategoryBucketing(t *testing.T) {
	t.Parallel()

	employees := []record.EmployeeRecord{activeEmp("1"), activeEmp("2")}
	absences := []record.AbsenceRecord{
		spell("1", "Maladie ordinaire", march2024, 3),
		spell("1", "Accident du travail", march2024.AddDate(0, 0, 5), 2),
		spell("2", "Congés payés", march2024.AddDate(0, 0, 10), 5),
		spell("2", "Formation sécurité", march2024.AddDate(0, 0, 18), 1),
		spell("2", "Grève", march2024.AddDate(0, 0, 20), 1),
	}

	m := NewCalculator().Compute(absences, employees, march2024)

	assert.InDelta(t, 3, m.NbJoursMaladie, 1e-9)
	assert.InDelta(t, 2, m.NbJoursAccidentTravail, 1e-9)
	assert.InDelta(t, 5, m.NbJoursConges, 1e-9)
	assert.InDelta(t, 1, m.NbJoursFormation, 1e-9)
	assert.InDelta(t, 1, m.NbJoursAutres, 1e-9)
	assert.Equal(t, 5, m.NbAbsencesTotal)
	assert.Equal(t, 2, m.NbSalariesAbsents)
	// Sickness rate counts maladie + accident du travail only.
	assert.InDelta(t, (3.0+2.0)/(2.0*21.0)*100, m.TauxAbsenteismeMaladie, 0.01)
}

func TestCompute_OutOfRangeSpellsDropped(t *testing.T) {
	t.Parallel()

	employees := []record.EmployeeRecord{activeEmp("1")}
	tooLong := spell("1", "Maladie", march2024, 400)
	inverted := record.AbsenceRecord{
		Matricule:   "1",
		TypeAbsence: "Maladie",
		DateDebut:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	fin := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	inverted.DateFin = &fin

	m := NewCalculator().Compute([]record.AbsenceRecord{tooLong, inverted}, employees, march2024)

	assert.Zero(t, m.NbJoursAbsenceTotal)
	assert.Zero(t, m.NbAbsencesTotal)
	require.Len(t, m.Warnings, 2)
	assert.Contains(t, m.Warnings[0], "hors limites")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		m     snapshot.AbsenceMetrics
		level Level
	}{
		{"quiet month", snapshot.AbsenceMetrics{TauxAbsenteisme: 2.1}, LevelFaible},
		{"moderate", snapshot.AbsenceMetrics{TauxAbsenteisme: 5.0}, LevelModere},
		{"high", snapshot.AbsenceMetrics{TauxAbsenteisme: 9.2}, LevelEleve},
		{"critical", snapshot.AbsenceMetrics{TauxAbsenteisme: 12.5}, LevelCritique},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.level, Classify(tt.m).Level)
		})
	}
}

func TestClassify_AlertsAndInsights(t *testing.T) {
	t.Parallel()

	a := Classify(snapshot.AbsenceMetrics{
		TauxAbsenteisme:        12.5,
		TauxAbsenteismeMaladie: 6.2,
		DureeMoyenneAbsence:    14.0,
		FrequenceAbsence:       1.8,
	})

	assert.Equal(t, LevelCritique, a.Level)
	require.Len(t, a.Alerts, 2)
	assert.Contains(t, a.Alerts[0], "critique")
	assert.Contains(t, a.Alerts[1], "maladie")
	assert.Len(t, a.Insights, 3)

	// Pure function: same input, same output.
	assert.Equal(t, a, Classify(snapshot.AbsenceMetrics{
		TauxAbsenteisme:        12.5,
		TauxAbsenteismeMaladie: 6.2,
		DureeMoyenneAbsence:    14.0,
		FrequenceAbsence:       1.8,
	}))
}
