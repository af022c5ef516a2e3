package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeRecord is one employee row for one reporting period, already
// normalized: dates parsed, numbers coerced, enums matched. Aggregators never
// see raw spreadsheet values.
type EmployeeRecord struct {
	Matricule     string
	Periode       time.Time // always first of month
	Sexe          Sexe
	DateNaissance *time.Time
	DateEntree    *time.Time
	DateSortie    *time.Time
	TypeContrat   string // raw label, classified at aggregation time
	TempsTravail  float64
	StatutEmploi  StatutEmploi
}

type Sexe string

const (
	SexeMasculin Sexe = "M"
	SexeFeminin  Sexe = "F"
	SexeInconnu  Sexe = ""
)

type StatutEmploi string

const (
	StatutActif StatutEmploi = "Actif"
)

// RemunerationRecord is one pay line for one employee and one pay month.
// It may reference a matricule absent from the employee rows of the same
// period (orphan): the row still counts toward payroll mass and is surfaced
// as a warning.
type RemunerationRecord struct {
	Matricule string
	MoisPaie  time.Time

	SalaireDeBase         decimal.Decimal
	PrimesFixes           decimal.Decimal
	PrimesVariables       decimal.Decimal
	PrimesExceptionnelles decimal.Decimal
	HeuresSuppPayees      decimal.Decimal
	AvantagesNature       decimal.Decimal
	Indemnites            decimal.Decimal

	CotisationsSociales decimal.Decimal
	TaxesSurSalaire     decimal.Decimal
	AutresCharges       decimal.Decimal
}

// AbsenceRecord is one absence spell. Matricule + DateDebut + TypeAbsence
// forms the natural key.
type AbsenceRecord struct {
	Matricule          string
	TypeAbsence        string
	DateDebut          time.Time
	DateFin            *time.Time // nil means same-day spell
	Motif              string
	JustificatifFourni bool
	ValidationStatus   string
}

// DurationDays returns the inclusive spell length in days.
func (a AbsenceRecord) DurationDays() int {
	end := a.DateDebut
	if a.DateFin != nil {
		end = *a.DateFin
	}
	return int(end.Sub(a.DateDebut).Hours()/24) + 1
}

// Validate checks the intra-record invariants that survive normalization.
func (e EmployeeRecord) Validate() error {
	if e.DateEntree != nil && e.DateSortie != nil && e.DateSortie.Before(*e.DateEntree) {
		return ErrExitBeforeEntry
	}
	return nil
}

// PeriodRecords bundles the three record sets of one establishment and one
// reporting period.
type PeriodRecords struct {
	EstablishmentID string
	Period          time.Time
	Employees       []EmployeeRecord
	Remunerations   []RemunerationRecord
	Absences        []AbsenceRecord
}
