package workforce

import (
	"testing"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march2024 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func emp(matricule, contrat string, opts ...func(*record.EmployeeRecord)) record.EmployeeRecord {
	e := record.EmployeeRecord{
		Matricule:    matricule,
		Periode:      march2024,
		TypeContrat:  contrat,
		TempsTravail: 1.0,
		StatutEmploi: record.StatutActif,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func TestCompute_EmptyInputIsTotal(t *testing.T) {
	t.Parallel()

	m := NewCalculator().Compute(nil, nil, march2024)
	assert.Zero(t, m.EffectifFinMois)
	assert.Zero(t, m.TauxTurnover)
	assert.Zero(t, m.PctCDI)
}

func TestCompute_HeadcountAndColdStart(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{emp("1", "CDI"), emp("2", "CDI"), emp("3", "CDD")}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.Equal(t, 3, m.EffectifFinMois)
	// Cold start: no prior period means the start-of-month figures mirror
	// the end-of-month ones.
	assert.Equal(t, 3, m.EffectifDebutMois)
	assert.InDelta(t, 3.0, m.EffectifMoyen, 1e-9)
}

func TestCompute_PriorPeriodBaseline(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{emp("1", "CDI"), emp("2", "CDI"), emp("3", "CDD")}
	previous := []record.EmployeeRecord{emp("1", "CDI"), emp("2", "CDI"), emp("3", "CDD"), emp("4", "CDD"), emp("5", "CDI")}
	m := NewCalculator().Compute(current, previous, march2024)

	assert.Equal(t, 5, m.EffectifDebutMois)
	assert.Equal(t, 3, m.EffectifFinMois)
	assert.InDelta(t, 4.0, m.EffectifMoyen, 1e-9)
}

func TestCompute_ETPUsesTempsTravail(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{
		emp("1", "CDI", func(e *record.EmployeeRecord) { e.TempsTravail = 0.5 }),
		emp("2", "CDI", func(e *record.EmployeeRecord) { e.TempsTravail = 0 }), // missing fraction counts as full time
		emp("3", "CDD", func(e *record.EmployeeRecord) { e.TempsTravail = 0.8 }),
	}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.InDelta(t, 2.3, m.ETPFinMois, 1e-9)
	assert.InDelta(t, 2.3, m.ETPMoyen, 1e-9)
}

func TestCompute_EntriesAndExits(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{
		emp("1", "CDI", func(e *record.EmployeeRecord) { e.DateEntree = datePtr(2024, 3, 4) }),
		emp("2", "CDI", func(e *record.EmployeeRecord) { e.DateEntree = datePtr(2023, 11, 2) }),
		emp("3", "CDD", func(e *record.EmployeeRecord) { e.DateSortie = datePtr(2024, 3, 20) }),
		emp("4", "CDD", func(e *record.EmployeeRecord) { e.DateSortie = datePtr(2024, 4, 1) }), // next month, not counted
	}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.Equal(t, 1, m.NbEntrees)
	assert.Equal(t, 1, m.NbSorties)
}

func TestCompute_VoluntarySplit(t *testing.T) {
	t.Parallel()

	var current []record.EmployeeRecord
	for i := 0; i < 10; i++ {
		e := emp(string(rune('a'+i)), "CDI")
		if i < 5 {
			e.DateSortie = datePtr(2024, 3, 10+i)
		}
		current = append(current, e)
	}
	m := NewCalculator().Compute(current, nil, march2024)

	require.Equal(t, 5, m.NbSorties)
	assert.Equal(t, 3, m.NbSortiesVolontaires) // floor(5 * 0.6)
	assert.Equal(t, 2, m.NbSortiesInvolontaires)
}

func TestCompute_TurnoverIdentity(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{
		emp("1", "CDI"),
		emp("2", "CDI"),
		emp("3", "CDD", func(e *record.EmployeeRecord) { e.DateSortie = datePtr(2024, 3, 20) }),
	}
	m := NewCalculator().Compute(current, nil, march2024)

	// 1 exit over an average headcount of 3.
	assert.InDelta(t, 33.33, m.TauxTurnoverMensuel, 1e-9)
	assert.Equal(t, m.TauxTurnoverMensuel, m.TauxTurnover)
	assert.InDelta(t, m.TauxTurnoverMensuel*12, m.TauxTurnoverAnnualise, 1e-9)
	assert.InDelta(t, m.TauxTurnoverVolontaireMensuel*12, m.TauxTurnoverVolontaireAnnualise, 1e-9)
}

func TestCompute_ContractMix(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{
		emp("1", "CDI"),
		emp("2", "cdi"),
		emp("3", "CDD"),
		emp("4", "Contrat d'apprentissage"),
		emp("5", "Stagiaire"),
		emp("6", "Intérim"),
		emp("7", "Freelance"), // unknown label: total headcount only
	}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.Equal(t, 2, m.NbCDI)
	assert.Equal(t, 1, m.NbCDD)
	assert.Equal(t, 1, m.NbAlternance)
	assert.Equal(t, 1, m.NbStage)
	assert.Equal(t, 1, m.NbInterim)
	assert.Equal(t, 7, m.EffectifFinMois)
	assert.InDelta(t, 100.0, m.PctCDI+m.PctPrecarite, 1e-9)
}

func TestCompute_ContractPercentageBound(t *testing.T) {
	t.Parallel()

	// The complement identity must hold even when the CDI share has a
	// repeating decimal expansion.
	current := []record.EmployeeRecord{emp("1", "CDI"), emp("2", "CDD"), emp("3", "CDD")}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.InDelta(t, 33.33, m.PctCDI, 1e-9)
	assert.InDelta(t, 66.67, m.PctPrecarite, 1e-9)
	assert.InDelta(t, 100.0, m.PctCDI+m.PctPrecarite, 1e-9)
}

func TestCompute_Demographics(t *testing.T) {
	t.Parallel()

	current := []record.EmployeeRecord{
		emp("1", "CDI", func(e *record.EmployeeRecord) {
			e.Sexe = record.SexeMasculin
			e.DateNaissance = datePtr(1990, 6, 15) // 34 in 2024
			e.DateEntree = datePtr(2020, 1, 10)    // 50 months in March 2024
		}),
		emp("2", "CDI", func(e *record.EmployeeRecord) {
			e.Sexe = record.SexeFeminin
			e.DateNaissance = datePtr(1967, 2, 1) // 57
			e.DateEntree = datePtr(2023, 9, 1)    // 6 months
		}),
		emp("3", "CDD"), // no dates, no sexe
	}
	m := NewCalculator().Compute(current, nil, march2024)

	assert.Equal(t, 1, m.NbHommes)
	assert.Equal(t, 1, m.NbFemmes)
	assert.InDelta(t, 33.33, m.PctHommes, 1e-9)

	assert.Equal(t, 1, m.PyramideAges.De25a35)
	assert.Equal(t, 1, m.PyramideAges.Plus55)
	assert.Equal(t, 1, m.PyramideAges.Inconnus)
	assert.InDelta(t, 45.5, m.AgeMoyen, 1e-9) // (34+57)/2

	assert.Equal(t, 1, m.PyramideAnciennete.De3a5Ans)
	assert.Equal(t, 1, m.PyramideAnciennete.MoinsUnAn)
	assert.Equal(t, 1, m.PyramideAnciennete.Inconnus)
	assert.InDelta(t, 28.0, m.AncienneteMoyenneMois, 1e-9) // (50+6)/2
}
