package absence

import (
	"fmt"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
)

// Severity thresholds in percentage points of absenteeism.
const (
	ModerateAbsenteeismRate = 4.0
	HighAbsenteeismRate     = 8.0
	CriticalAbsenteeismRate = 10.0

	// CriticalSicknessRate flags sickness-driven absenteeism specifically.
	CriticalSicknessRate = 5.0

	// BenchmarkTauxNational is the French all-sector average absenteeism rate
	// used as a comparison point in insights.
	BenchmarkTauxNational = 5.5

	// LongSpellDays marks a mean spell duration suggesting long-term illness
	// rather than scattered short absences.
	LongSpellDays = 10.0

	// HighFrequency marks an unusually high spell count per active employee
	// for a single month.
	HighFrequency = 1.5
)

type Level string

const (
	LevelFaible   Level = "faible"
	LevelModere   Level = "modere"
	LevelEleve    Level = "eleve"
	LevelCritique Level = "critique"
)

// Assessment is the qualitative reading of one period's absence metrics.
// It is advisory only: alerts call for action, insights add context.
type Assessment struct {
	Level    Level    `json:"level"`
	Alerts   []string `json:"alerts,omitempty"`
	Insights []string `json:"insights,omitempty"`
}

// Classify derives an assessment from computed metrics. Pure function of its
// input: thresholds are fixed, nothing is read from the environment.
func Classify(m snapshot.AbsenceMetrics) Assessment {
	a := Assessment{Level: LevelFaible}

	switch {
	case m.TauxAbsenteisme > CriticalAbsenteeismRate:
		a.Level = LevelCritique
		a.Alerts = append(a.Alerts, fmt.Sprintf(
			"taux d'absenteisme critique (%.2f%%), au-dela du seuil de %.0f%%",
			m.TauxAbsenteisme, CriticalAbsenteeismRate))
	case m.TauxAbsenteisme > HighAbsenteeismRate:
		a.Level = LevelEleve
		a.Alerts = append(a.Alerts, fmt.Sprintf(
			"taux d'absenteisme eleve (%.2f%%)", m.TauxAbsenteisme))
	case m.TauxAbsenteisme > ModerateAbsenteeismRate:
		a.Level = LevelModere
	}

	if m.TauxAbsenteismeMaladie > CriticalSicknessRate {
		a.Alerts = append(a.Alerts, fmt.Sprintf(
			"absenteisme maladie a %.2f%%: verifier les conditions de travail",
			m.TauxAbsenteismeMaladie))
	}

	if m.TauxAbsenteisme > 0 {
		if m.TauxAbsenteisme > BenchmarkTauxNational {
			a.Insights = append(a.Insights, fmt.Sprintf(
				"taux superieur a la moyenne nationale (%.1f%%)", BenchmarkTauxNational))
		} else {
			a.Insights = append(a.Insights, fmt.Sprintf(
				"taux inferieur a la moyenne nationale (%.1f%%)", BenchmarkTauxNational))
		}
	}

	if m.DureeMoyenneAbsence > LongSpellDays {
		a.Insights = append(a.Insights, fmt.Sprintf(
			"duree moyenne de %.1f jours: profil d'absences longues", m.DureeMoyenneAbsence))
	}
	if m.FrequenceAbsence > HighFrequency {
		a.Insights = append(a.Insights, fmt.Sprintf(
			"frequence de %.2f absences par salarie: profil d'absences repetees", m.FrequenceAbsence))
	}

	return a
}
