// Package payroll computes the payroll-mass block of a monthly snapshot,
// including the price/volume/mix decomposition of month-over-month variation.
package payroll

import (
	"fmt"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/shopspring/decimal"
)

type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute aggregates one period's pay rows. previous carries the prior pay
// month for the effects decomposition; nil means no decomposition. employees
// is the same period's employee set, used only to flag orphan matricules.
// etpFinMois / etpFinMoisPrecedent come from the workforce aggregation of the
// matching periods. Empty input yields the zero-valued metrics.
func (c *Calculator) Compute(
	current, previous []record.RemunerationRecord,
	employees []record.EmployeeRecord,
	etpFinMois, etpFinMoisPrecedent float64,
) snapshot.PayrollMetrics {
	if len(current) == 0 {
		return snapshot.PayrollMetrics{}
	}

	m := snapshot.PayrollMetrics{NbBulletins: len(current)}

	totals := sumRows(current)

	m.MasseSalarialeBrute = snapshot.RoundDecimal2(totals.brute)
	m.CotisationsSocialesTotal = snapshot.RoundDecimal2(totals.cotisations)
	m.TaxesSurSalaireTotal = snapshot.RoundDecimal2(totals.taxes)
	m.AutresChargesTotal = snapshot.RoundDecimal2(totals.autresCharges)
	m.CoutTotalEmployeur = snapshot.RoundDecimal2(
		totals.brute.Add(totals.cotisations).Add(totals.taxes).Add(totals.autresCharges))

	m.SalaireBaseTotal = snapshot.RoundDecimal2(totals.salaireBase)
	m.PrimesVariablesTotal = snapshot.RoundDecimal2(totals.primesVariables)
	m.PrimesExceptionnellesTotal = snapshot.RoundDecimal2(totals.primesExceptionnelles)

	// Average cost per FTE is based on gross mass, not employer cost.
	if etpFinMois > 0 {
		m.CoutMoyenParETP = snapshot.RoundDecimal2(
			totals.brute.Div(decimal.NewFromFloat(etpFinMois)))
	}
	// The variable-pay ratio is measured against base salary, not gross mass.
	if totals.salaireBase.IsPositive() {
		m.PartVariable = snapshot.RoundDecimal2(
			totals.primesVariables.Add(totals.primesExceptionnelles).
				Div(totals.salaireBase).Mul(decimal.NewFromInt(100)))
	}
	if totals.brute.IsPositive() {
		m.TauxCharges = snapshot.RoundDecimal2(
			totals.cotisations.Div(totals.brute).Mul(decimal.NewFromInt(100)))
	}

	c.flagOrphans(&m, current, employees)

	if previous != nil {
		m.Effets = c.decompose(totals.brute, sumRows(previous).brute, etpFinMois, etpFinMoisPrecedent)
		if m.Effets == nil {
			m.Warnings = append(m.Warnings,
				"decomposition prix/volume/mix impossible: ETP nul sur l'une des periodes")
		}
	}

	return m
}

type rowTotals struct {
	brute                 decimal.Decimal
	salaireBase           decimal.Decimal
	primesVariables       decimal.Decimal
	primesExceptionnelles decimal.Decimal
	cotisations           decimal.Decimal
	taxes                 decimal.Decimal
	autresCharges         decimal.Decimal
}

// sumRows totals the monetary columns. Gross mass covers the seven earnings
// fields; employer charges are tracked separately and never enter "brute".
func sumRows(rows []record.RemunerationRecord) rowTotals {
	var t rowTotals
	for _, r := range rows {
		t.brute = t.brute.
			Add(r.SalaireDeBase).
			Add(r.PrimesFixes).
			Add(r.PrimesVariables).
			Add(r.PrimesExceptionnelles).
			Add(r.HeuresSuppPayees).
			Add(r.AvantagesNature).
			Add(r.Indemnites)

		t.salaireBase = t.salaireBase.Add(r.SalaireDeBase)
		t.primesVariables = t.primesVariables.Add(r.PrimesVariables)
		t.primesExceptionnelles = t.primesExceptionnelles.Add(r.PrimesExceptionnelles)

		t.cotisations = t.cotisations.Add(r.CotisationsSociales)
		t.taxes = t.taxes.Add(r.TaxesSurSalaire)
		t.autresCharges = t.autresCharges.Add(r.AutresCharges)
	}
	return t
}

// decompose splits the mass variation by chained substitution with M-1 as the
// base period: the volume effect prices the headcount change at the prior
// average cost, the price effect applies the average-cost change to the prior
// headcount, and the mix effect absorbs the residual composition shift. The
// three always sum to the rounded total variation.
func (c *Calculator) decompose(masse, massePrecedente decimal.Decimal, etp, etpPrecedent float64) *snapshot.EffetsMasseSalariale {
	if etp <= 0 || etpPrecedent <= 0 {
		return nil
	}

	dETP := decimal.NewFromFloat(etp)
	dETPPrev := decimal.NewFromFloat(etpPrecedent)

	coutMoyen := masse.Div(dETP)
	coutMoyenPrecedent := massePrecedente.Div(dETPPrev)

	variation := snapshot.RoundDecimal2(masse.Sub(massePrecedente))
	volume := snapshot.RoundDecimal2(dETP.Sub(dETPPrev).Mul(coutMoyenPrecedent))
	prix := snapshot.RoundDecimal2(dETPPrev.Mul(coutMoyen.Sub(coutMoyenPrecedent)))

	return &snapshot.EffetsMasseSalariale{
		EffetPrix:       prix,
		EffetVolume:     volume,
		EffetMix:        snapshot.Round2(variation - prix - volume),
		VariationTotale: variation,
	}
}

func (c *Calculator) flagOrphans(m *snapshot.PayrollMetrics, rows []record.RemunerationRecord, employees []record.EmployeeRecord) {
	known := make(map[string]bool, len(employees))
	for _, e := range employees {
		known[e.Matricule] = true
	}
	for _, r := range rows {
		if !known[r.Matricule] {
			m.Warnings = append(m.Warnings, fmt.Sprintf(
				"remuneration orpheline: matricule %s absent des effectifs de la periode", r.Matricule))
		}
	}
}
