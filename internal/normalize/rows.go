package normalize

import (
	"errors"
	"strings"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingMatricule = errors.New("row has no matricule")
	ErrMissingDateDebut = errors.New("absence row has no date_debut")
)

// Field lookup is alias-based: customer files name the same column in many
// ways ("Date de naissance", "date_naissance", "DATE NAISSANCE"). Keys are
// folded and stripped of separators before comparison.
func cell(raw map[string]any, aliases ...string) any {
	for k, v := range raw {
		key := foldKey(k)
		for _, a := range aliases {
			if key == foldKey(a) {
				return v
			}
		}
	}
	return nil
}

func foldKey(s string) string {
	s = Fold(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// EmployeeRow maps one raw employee row into a typed record. The period cell
// falls back to the clock's current month per the never-block rule.
func EmployeeRow(raw map[string]any, clk clock.Clock) (record.EmployeeRecord, error) {
	matricule := String(cell(raw, "matricule", "matr", "employee_id"), 50)
	if matricule == "" {
		return record.EmployeeRecord{}, ErrMissingMatricule
	}

	rec := record.EmployeeRecord{
		Matricule:     matricule,
		Periode:       Period(cell(raw, "periode", "mois", "period"), clk),
		Sexe:          sexe(cell(raw, "sexe", "genre", "gender")),
		DateNaissance: Date(cell(raw, "date_naissance", "naissance", "date de naissance")),
		DateEntree:    Date(cell(raw, "date_entree", "entree", "date d'entree", "date_embauche")),
		DateSortie:    Date(cell(raw, "date_sortie", "sortie", "date de sortie")),
		TypeContrat:   String(cell(raw, "type_contrat", "contrat", "type de contrat"), 50),
		TempsTravail:  Number(cell(raw, "temps_travail", "etp", "quotite"), 1.0),
		StatutEmploi:  statut(cell(raw, "statut_emploi", "statut", "status")),
	}
	if err := rec.Validate(); err != nil {
		return record.EmployeeRecord{}, err
	}
	return rec, nil
}

func sexe(v any) record.Sexe {
	switch Fold(String(v, 10)) {
	case "m", "h", "homme", "masculin", "male":
		return record.SexeMasculin
	case "f", "femme", "feminin", "female":
		return record.SexeFeminin
	default:
		return record.SexeInconnu
	}
}

func statut(v any) record.StatutEmploi {
	s := String(v, 50)
	if Fold(s) == "actif" || s == "" {
		// Missing status is treated as active: source files only fill the
		// column for suspended or departed staff.
		return record.StatutActif
	}
	return record.StatutEmploi(s)
}

// RemunerationRow maps one raw pay row. Monetary cells default to zero.
func RemunerationRow(raw map[string]any, clk clock.Clock) (record.RemunerationRecord, error) {
	matricule := String(cell(raw, "matricule", "matr", "employee_id"), 50)
	if matricule == "" {
		return record.RemunerationRecord{}, ErrMissingMatricule
	}

	money := func(aliases ...string) decimal.Decimal {
		return decimal.NewFromFloat(Number(cell(raw, aliases...), 0))
	}

	return record.RemunerationRecord{
		Matricule: matricule,
		MoisPaie:  Period(cell(raw, "mois_paie", "periode", "mois"), clk),

		SalaireDeBase:         money("salaire_de_base", "salaire_base", "salaire"),
		PrimesFixes:           money("primes_fixes"),
		PrimesVariables:       money("primes_variables"),
		PrimesExceptionnelles: money("primes_exceptionnelles"),
		HeuresSuppPayees:      money("heures_supp_payees", "heures_supplementaires"),
		AvantagesNature:       money("avantages_nature", "avantages_en_nature"),
		Indemnites:            money("indemnites"),

		CotisationsSociales: money("cotisations_sociales", "cotisations", "charges_sociales"),
		TaxesSurSalaire:     money("taxes_sur_salaire", "taxes"),
		AutresCharges:       money("autres_charges"),
	}, nil
}

// AbsenceRow maps one raw absence row. DateDebut is the only hard requirement
// besides the matricule; a missing DateFin means a same-day spell.
func AbsenceRow(raw map[string]any) (record.AbsenceRecord, error) {
	matricule := String(cell(raw, "matricule", "matr", "employee_id"), 50)
	if matricule == "" {
		return record.AbsenceRecord{}, ErrMissingMatricule
	}
	debut := Date(cell(raw, "date_debut", "debut", "date de debut"))
	if debut == nil {
		return record.AbsenceRecord{}, ErrMissingDateDebut
	}

	return record.AbsenceRecord{
		Matricule:          matricule,
		TypeAbsence:        String(cell(raw, "type_absence", "type", "type d'absence"), 100),
		DateDebut:          *debut,
		DateFin:            Date(cell(raw, "date_fin", "fin", "date de fin")),
		Motif:              String(cell(raw, "motif"), 255),
		JustificatifFourni: Bool(cell(raw, "justificatif_fourni", "justificatif")),
		ValidationStatus:   String(cell(raw, "validation_status", "statut_validation"), 50),
	}, nil
}
