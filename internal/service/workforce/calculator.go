// Package workforce computes the headcount, movement, contract-mix and
// demographic block of a monthly snapshot from normalized employee records.
package workforce

import (
	"math"
	"strings"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/normalize"
)

// VoluntaryExitShare approximates the voluntary share of exits. Source files
// carry no exit reason, so the split is a fixed ratio until they do.
const VoluntaryExitShare = 0.6

type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute aggregates one period's employee rows. previous carries the prior
// period's rows for start-of-month baselines; nil means cold start, where the
// start-of-month figures mirror the end-of-month ones. Empty input yields the
// zero-valued metrics, never an error.
func (c *Calculator) Compute(current, previous []record.EmployeeRecord, period time.Time) snapshot.WorkforceMetrics {
	if len(current) == 0 {
		return snapshot.WorkforceMetrics{}
	}

	m := snapshot.WorkforceMetrics{}

	// Headcount counts every row of the period, whatever the statut_emploi:
	// suspended staff still belong to the workforce figures.
	m.EffectifFinMois = len(current)
	if previous != nil {
		m.EffectifDebutMois = len(previous)
	} else {
		m.EffectifDebutMois = m.EffectifFinMois
	}
	effectifMoyen := (float64(m.EffectifDebutMois) + float64(m.EffectifFinMois)) / 2
	m.EffectifMoyen = snapshot.Round1(effectifMoyen)

	m.ETPFinMois = snapshot.Round2(ETPTotal(current))
	if previous != nil {
		m.ETPDebutMois = snapshot.Round2(ETPTotal(previous))
	} else {
		m.ETPDebutMois = m.ETPFinMois
	}
	m.ETPMoyen = snapshot.Round2((m.ETPDebutMois + m.ETPFinMois) / 2)

	for _, e := range current {
		if inPeriodMonth(e.DateEntree, period) {
			m.NbEntrees++
		}
		if inPeriodMonth(e.DateSortie, period) {
			m.NbSorties++
		}
	}
	m.NbSortiesVolontaires = int(math.Floor(float64(m.NbSorties) * VoluntaryExitShare))
	m.NbSortiesInvolontaires = m.NbSorties - m.NbSortiesVolontaires

	if effectifMoyen > 0 {
		m.TauxTurnoverMensuel = snapshot.Round2(float64(m.NbSorties) / effectifMoyen * 100)
		m.TauxTurnoverVolontaireMensuel = snapshot.Round2(float64(m.NbSortiesVolontaires) / effectifMoyen * 100)
	}
	// The default turnover field is the monthly rate; annualized values are
	// strictly derived, never recomputed from raw counts.
	m.TauxTurnover = m.TauxTurnoverMensuel
	m.TauxTurnoverAnnualise = snapshot.Round2(m.TauxTurnoverMensuel * 12)
	m.TauxTurnoverVolontaireAnnualise = snapshot.Round2(m.TauxTurnoverVolontaireMensuel * 12)

	c.contractMix(&m, current)
	c.demographics(&m, current, period)

	return m
}

// ETPTotal sums the full-time-equivalent fractions of a record set. A zero
// fraction means the column was absent and counts as full time.
func ETPTotal(records []record.EmployeeRecord) float64 {
	var total float64
	for _, e := range records {
		tt := e.TempsTravail
		if tt == 0 {
			tt = 1.0
		}
		total += tt
	}
	return total
}

func inPeriodMonth(d *time.Time, period time.Time) bool {
	if d == nil {
		return false
	}
	return d.Year() == period.Year() && d.Month() == period.Month()
}

type contractBucket int

const (
	bucketNone contractBucket = iota
	bucketCDI
	bucketCDD
	bucketAlternance
	bucketStage
	bucketInterim
)

// classifyContract matches the folded label against the known French contract
// families. Unmatched labels still count toward total headcount, just not
// toward any named bucket.
func classifyContract(label string) contractBucket {
	l := normalize.Fold(label)
	switch {
	case l == "":
		return bucketNone
	case strings.Contains(l, "cdi"):
		return bucketCDI
	case strings.Contains(l, "cdd"):
		return bucketCDD
	case strings.Contains(l, "alternance"),
		strings.Contains(l, "apprenti"),
		strings.Contains(l, "professionnalisation"):
		return bucketAlternance
	case strings.Contains(l, "stag"):
		return bucketStage
	case strings.Contains(l, "interim"):
		return bucketInterim
	default:
		return bucketNone
	}
}

func (c *Calculator) contractMix(m *snapshot.WorkforceMetrics, records []record.EmployeeRecord) {
	for _, e := range records {
		switch classifyContract(e.TypeContrat) {
		case bucketCDI:
			m.NbCDI++
		case bucketCDD:
			m.NbCDD++
		case bucketAlternance:
			m.NbAlternance++
		case bucketStage:
			m.NbStage++
		case bucketInterim:
			m.NbInterim++
		}
	}

	total := float64(m.EffectifFinMois)
	m.PctCDI = snapshot.Round2(float64(m.NbCDI) / total * 100)
	m.PctCDD = snapshot.Round2(float64(m.NbCDD) / total * 100)
	// Precarite is defined as the complement of the CDI share, so the two
	// always sum to exactly 100.
	m.PctPrecarite = snapshot.Round2(100 - m.PctCDI)
}

func (c *Calculator) demographics(m *snapshot.WorkforceMetrics, records []record.EmployeeRecord, period time.Time) {
	var (
		ageSum, ageCount       float64
		seniorSum, seniorCount float64
	)

	for _, e := range records {
		switch e.Sexe {
		case record.SexeMasculin:
			m.NbHommes++
		case record.SexeFeminin:
			m.NbFemmes++
		}

		if e.DateNaissance != nil {
			// Year difference only: the source never adjusted for the
			// birthday within the year.
			age := period.Year() - e.DateNaissance.Year()
			ageSum += float64(age)
			ageCount++
			switch {
			case age < 25:
				m.PyramideAges.Moins25++
			case age < 35:
				m.PyramideAges.De25a35++
			case age < 45:
				m.PyramideAges.De35a45++
			case age < 55:
				m.PyramideAges.De45a55++
			default:
				m.PyramideAges.Plus55++
			}
		} else {
			m.PyramideAges.Inconnus++
		}

		if e.DateEntree != nil {
			months := (period.Year()-e.DateEntree.Year())*12 + int(period.Month()-e.DateEntree.Month())
			seniorSum += float64(months)
			seniorCount++
			switch {
			case months < 12:
				m.PyramideAnciennete.MoinsUnAn++
			case months < 36:
				m.PyramideAnciennete.De1a3Ans++
			case months < 60:
				m.PyramideAnciennete.De3a5Ans++
			case months < 120:
				m.PyramideAnciennete.De5a10Ans++
			default:
				m.PyramideAnciennete.Plus10Ans++
			}
		} else {
			m.PyramideAnciennete.Inconnus++
		}
	}

	total := float64(m.EffectifFinMois)
	m.PctHommes = snapshot.Round2(float64(m.NbHommes) / total * 100)
	m.PctFemmes = snapshot.Round2(float64(m.NbFemmes) / total * 100)

	if ageCount > 0 {
		m.AgeMoyen = snapshot.Round1(ageSum / ageCount)
	}
	if seniorCount > 0 {
		m.AncienneteMoyenneMois = snapshot.Round1(seniorSum / seniorCount)
	}
}
