// Package absence computes the absenteeism block of a monthly snapshot and
// the advisory assessment layered on top of it.
package absence

import (
	"fmt"
	"strings"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/normalize"
)

// Spells outside this range are considered data-entry noise and dropped with
// a warning rather than poisoning the rates.
const (
	MinSpellDays = 1
	MaxSpellDays = 365
)

type category int

const (
	categoryAutres category = iota
	categoryMaladie
	categoryAccidentTravail
	categoryConges
	categoryFormation
)

// Free-text absence types are bucketed by keyword containment on the folded
// label. Anything unmatched lands in autres.
var categoryKeywords = []struct {
	cat      category
	keywords []string
}{
	{categoryAccidentTravail, []string{"accident", "trajet"}},
	{categoryMaladie, []string{"maladie", "malade"}},
	{categoryConges, []string{"conge", "cp", "rtt", "vacance"}},
	{categoryFormation, []string{"formation", "stage interne"}},
}

func classifyAbsence(typeAbsence string) category {
	label := normalize.Fold(typeAbsence)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(label, kw) {
				return c.cat
			}
		}
	}
	return categoryAutres
}

type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute aggregates one period's absence spells against the active headcount
// of the same period. Zero active employees yields the zero-valued metrics:
// the function is total and never errors.
func (c *Calculator) Compute(absences []record.AbsenceRecord, employees []record.EmployeeRecord, period time.Time) snapshot.AbsenceMetrics {
	effectifActif := 0
	for _, e := range employees {
		if e.StatutEmploi == record.StatutActif {
			effectifActif++
		}
	}
	if effectifActif == 0 {
		return snapshot.AbsenceMetrics{}
	}

	m := snapshot.AbsenceMetrics{
		JoursOuvrables: WorkingDays(period),
	}

	var (
		durationSum float64
		absentees   = map[string]bool{}
	)

	for _, a := range absences {
		days := a.DurationDays()
		if days < MinSpellDays || days > MaxSpellDays {
			m.Warnings = append(m.Warnings, fmt.Sprintf(
				"absence ignoree (matricule %s, debut %s): duree %d jours hors limites",
				a.Matricule, a.DateDebut.Format("2006-01-02"), days))
			continue
		}

		d := float64(days)
		m.NbJoursAbsenceTotal += d
		switch classifyAbsence(a.TypeAbsence) {
		case categoryMaladie:
			m.NbJoursMaladie += d
		case categoryAccidentTravail:
			m.NbJoursAccidentTravail += d
		case categoryConges:
			m.NbJoursConges += d
		case categoryFormation:
			m.NbJoursFormation += d
		default:
			m.NbJoursAutres += d
		}

		m.NbAbsencesTotal++
		durationSum += d
		absentees[a.Matricule] = true
	}

	m.NbSalariesAbsents = len(absentees)

	// Working days, not calendar days, in the denominator. Public holidays
	// are not subtracted.
	denominator := float64(effectifActif) * float64(m.JoursOuvrables)
	if denominator > 0 {
		m.TauxAbsenteisme = snapshot.Round2(m.NbJoursAbsenceTotal / denominator * 100)
		m.TauxAbsenteismeMaladie = snapshot.Round2((m.NbJoursMaladie + m.NbJoursAccidentTravail) / denominator * 100)
	}
	if m.NbAbsencesTotal > 0 {
		m.DureeMoyenneAbsence = snapshot.Round1(durationSum / float64(m.NbAbsencesTotal))
	}
	m.FrequenceAbsence = snapshot.Round2(float64(m.NbAbsencesTotal) / float64(effectifActif))

	return m
}

// WorkingDays counts the Monday-to-Friday days of the period's month.
func WorkingDays(period time.Time) int {
	first := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	days := 0
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}
