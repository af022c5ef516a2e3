package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/database"
)

// insertChunkSize bounds one batch of row inserts. Imports routinely carry a
// few thousand rows per sheet; chunking keeps batches small and retryable.
const insertChunkSize = 500

type recordRepository struct {
	db *database.DB
}

func NewRecordRepository(db *database.DB) record.Repository {
	return &recordRepository{db: db}
}

func (r *recordRepository) GetPeriodRecords(ctx context.Context, establishmentID string, period time.Time) (record.PeriodRecords, error) {
	recs := record.PeriodRecords{EstablishmentID: establishmentID, Period: period}

	employees, err := r.employees(ctx, establishmentID, period)
	if err != nil {
		return record.PeriodRecords{}, fmt.Errorf("failed to get employee records: %w", err)
	}
	remunerations, err := r.remunerations(ctx, establishmentID, period)
	if err != nil {
		return record.PeriodRecords{}, fmt.Errorf("failed to get remuneration records: %w", err)
	}
	absences, err := r.absences(ctx, establishmentID, period)
	if err != nil {
		return record.PeriodRecords{}, fmt.Errorf("failed to get absence records: %w", err)
	}

	if len(employees) == 0 && len(remunerations) == 0 && len(absences) == 0 {
		return record.PeriodRecords{}, record.ErrPeriodNotFound
	}

	recs.Employees = employees
	recs.Remunerations = remunerations
	recs.Absences = absences
	return recs, nil
}

func (r *recordRepository) employees(ctx context.Context, establishmentID string, period time.Time) ([]record.EmployeeRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT matricule, periode, sexe, date_naissance, date_entree, date_sortie,
			   type_contrat, temps_travail, statut_emploi
		FROM employee_records
		WHERE establishment_id = $1 AND periode = $2
		ORDER BY matricule
	`, establishmentID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.EmployeeRecord
	for rows.Next() {
		var e record.EmployeeRecord
		if err := rows.Scan(
			&e.Matricule, &e.Periode, &e.Sexe, &e.DateNaissance, &e.DateEntree,
			&e.DateSortie, &e.TypeContrat, &e.TempsTravail, &e.StatutEmploi,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *recordRepository) remunerations(ctx context.Context, establishmentID string, period time.Time) ([]record.RemunerationRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT matricule, mois_paie, salaire_de_base, primes_fixes, primes_variables,
			   primes_exceptionnelles, heures_supp_payees, avantages_nature, indemnites,
			   cotisations_sociales, taxes_sur_salaire, autres_charges
		FROM remuneration_records
		WHERE establishment_id = $1 AND mois_paie = $2
		ORDER BY matricule
	`, establishmentID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.RemunerationRecord
	for rows.Next() {
		var m record.RemunerationRecord
		if err := rows.Scan(
			&m.Matricule, &m.MoisPaie, &m.SalaireDeBase, &m.PrimesFixes,
			&m.PrimesVariables, &m.PrimesExceptionnelles, &m.HeuresSuppPayees,
			&m.AvantagesNature, &m.Indemnites, &m.CotisationsSociales,
			&m.TaxesSurSalaire, &m.AutresCharges,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *recordRepository) absences(ctx context.Context, establishmentID string, period time.Time) ([]record.AbsenceRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT matricule, type_absence, date_debut, date_fin, motif,
			   justificatif_fourni, validation_status
		FROM absence_records
		WHERE establishment_id = $1 AND periode = $2
		ORDER BY matricule, date_debut
	`, establishmentID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.AbsenceRecord
	for rows.Next() {
		var a record.AbsenceRecord
		if err := rows.Scan(
			&a.Matricule, &a.TypeAbsence, &a.DateDebut, &a.DateFin, &a.Motif,
			&a.JustificatifFourni, &a.ValidationStatus,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplacePeriodRecords swaps a period's rows wholesale inside one
// transaction: delete by (establishment, period), then chunked inserts.
// Natural-key conflicts overwrite so a concurrent reimport never duplicates.
func (r *recordRepository) ReplacePeriodRecords(ctx context.Context, recs record.PeriodRecords) error {
	if recs.EstablishmentID == "" {
		return record.ErrInvalidEstablishment
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		for _, del := range []string{
			`DELETE FROM employee_records WHERE establishment_id = $1 AND periode = $2`,
			`DELETE FROM remuneration_records WHERE establishment_id = $1 AND mois_paie = $2`,
			`DELETE FROM absence_records WHERE establishment_id = $1 AND periode = $2`,
		} {
			if _, err := q.Exec(ctx, del, recs.EstablishmentID, recs.Period); err != nil {
				return fmt.Errorf("failed to clear period records: %w", err)
			}
		}

		if err := r.insertEmployees(ctx, recs); err != nil {
			return err
		}
		if err := r.insertRemunerations(ctx, recs); err != nil {
			return err
		}
		return r.insertAbsences(ctx, recs)
	})
}

func (r *recordRepository) insertEmployees(ctx context.Context, recs record.PeriodRecords) error {
	q := GetQuerier(ctx, r.db)

	for start := 0; start < len(recs.Employees); start += insertChunkSize {
		chunk := recs.Employees[start:min(start+insertChunkSize, len(recs.Employees))]
		batch := &pgx.Batch{}
		for _, e := range chunk {
			batch.Queue(`
				INSERT INTO employee_records (
					establishment_id, matricule, periode, sexe, date_naissance,
					date_entree, date_sortie, type_contrat, temps_travail, statut_emploi
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (establishment_id, matricule, periode) DO UPDATE SET
					sexe = EXCLUDED.sexe,
					date_naissance = EXCLUDED.date_naissance,
					date_entree = EXCLUDED.date_entree,
					date_sortie = EXCLUDED.date_sortie,
					type_contrat = EXCLUDED.type_contrat,
					temps_travail = EXCLUDED.temps_travail,
					statut_emploi = EXCLUDED.statut_emploi
			`, recs.EstablishmentID, e.Matricule, e.Periode, e.Sexe, e.DateNaissance,
				e.DateEntree, e.DateSortie, e.TypeContrat, e.TempsTravail, e.StatutEmploi)
		}
		if err := sendBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert employee records: %w", err)
		}
	}
	return nil
}

func (r *recordRepository) insertRemunerations(ctx context.Context, recs record.PeriodRecords) error {
	q := GetQuerier(ctx, r.db)

	for start := 0; start < len(recs.Remunerations); start += insertChunkSize {
		chunk := recs.Remunerations[start:min(start+insertChunkSize, len(recs.Remunerations))]
		batch := &pgx.Batch{}
		for _, m := range chunk {
			batch.Queue(`
				INSERT INTO remuneration_records (
					establishment_id, matricule, mois_paie, salaire_de_base, primes_fixes,
					primes_variables, primes_exceptionnelles, heures_supp_payees,
					avantages_nature, indemnites, cotisations_sociales, taxes_sur_salaire,
					autres_charges
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				ON CONFLICT (establishment_id, matricule, mois_paie) DO UPDATE SET
					salaire_de_base = EXCLUDED.salaire_de_base,
					primes_fixes = EXCLUDED.primes_fixes,
					primes_variables = EXCLUDED.primes_variables,
					primes_exceptionnelles = EXCLUDED.primes_exceptionnelles,
					heures_supp_payees = EXCLUDED.heures_supp_payees,
					avantages_nature = EXCLUDED.avantages_nature,
					indemnites = EXCLUDED.indemnites,
					cotisations_sociales = EXCLUDED.cotisations_sociales,
					taxes_sur_salaire = EXCLUDED.taxes_sur_salaire,
					autres_charges = EXCLUDED.autres_charges
			`, recs.EstablishmentID, m.Matricule, m.MoisPaie, m.SalaireDeBase, m.PrimesFixes,
				m.PrimesVariables, m.PrimesExceptionnelles, m.HeuresSuppPayees,
				m.AvantagesNature, m.Indemnites, m.CotisationsSociales, m.TaxesSurSalaire,
				m.AutresCharges)
		}
		if err := sendBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert remuneration records: %w", err)
		}
	}
	return nil
}

func (r *recordRepository) insertAbsences(ctx context.Context, recs record.PeriodRecords) error {
	q := GetQuerier(ctx, r.db)

	for start := 0; start < len(recs.Absences); start += insertChunkSize {
		chunk := recs.Absences[start:min(start+insertChunkSize, len(recs.Absences))]
		batch := &pgx.Batch{}
		for _, a := range chunk {
			batch.Queue(`
				INSERT INTO absence_records (
					establishment_id, periode, matricule, type_absence, date_debut,
					date_fin, motif, justificatif_fourni, validation_status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (establishment_id, matricule, date_debut, type_absence) DO UPDATE SET
					periode = EXCLUDED.periode,
					date_fin = EXCLUDED.date_fin,
					motif = EXCLUDED.motif,
					justificatif_fourni = EXCLUDED.justificatif_fourni,
					validation_status = EXCLUDED.validation_status
			`, recs.EstablishmentID, recs.Period, a.Matricule, a.TypeAbsence, a.DateDebut,
				a.DateFin, a.Motif, a.JustificatifFourni, a.ValidationStatus)
		}
		if err := sendBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert absence records: %w", err)
		}
	}
	return nil
}

func (r *recordRepository) ListPeriods(ctx context.Context, establishmentID string) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT periode FROM employee_records
		WHERE establishment_id = $1
		ORDER BY periode
	`, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []time.Time
	for rows.Next() {
		var p time.Time
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
