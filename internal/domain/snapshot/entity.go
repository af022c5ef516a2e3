package snapshot

import "time"

// MonthlySnapshot is the single computed aggregate for one establishment and
// one calendar month. It is created wholesale by the snapshot builder,
// superseded on reimport, and never patched in place.
type MonthlySnapshot struct {
	EstablishmentID  string           `json:"establishment_id"`
	Period           time.Time        `json:"period"`
	ImportBatchID    string           `json:"import_batch_id"`
	CalculatedAt     time.Time        `json:"calculated_at"`
	DataQualityScore float64          `json:"data_quality_score"`
	Workforce        WorkforceMetrics `json:"workforce"`
	Absence          AbsenceMetrics   `json:"absence"`
	Payroll          PayrollMetrics   `json:"payroll"`
}

// WorkforceMetrics holds headcount, movement, contract-mix and demographic
// aggregates for one period. Counts are plain ints, rates are percentages
// rounded to 2 decimals, averages to 1 decimal.
type WorkforceMetrics struct {
	EffectifDebutMois int     `json:"effectif_debut_mois"`
	EffectifFinMois   int     `json:"effectif_fin_mois"`
	EffectifMoyen     float64 `json:"effectif_moyen"`

	ETPDebutMois float64 `json:"etp_debut_mois"`
	ETPFinMois   float64 `json:"etp_fin_mois"`
	ETPMoyen     float64 `json:"etp_moyen"`

	NbEntrees              int `json:"nb_entrees"`
	NbSorties              int `json:"nb_sorties"`
	NbSortiesVolontaires   int `json:"nb_sorties_volontaires"`
	NbSortiesInvolontaires int `json:"nb_sorties_involontaires"`

	// TauxTurnover is always the monthly rate. The annualized variant is
	// derived from it, never computed independently.
	TauxTurnover                    float64 `json:"taux_turnover"`
	TauxTurnoverMensuel             float64 `json:"taux_turnover_mensuel"`
	TauxTurnoverAnnualise           float64 `json:"taux_turnover_annualise"`
	TauxTurnoverVolontaireMensuel   float64 `json:"taux_turnover_volontaire_mensuel"`
	TauxTurnoverVolontaireAnnualise float64 `json:"taux_turnover_volontaire_annualise"`

	NbCDI        int     `json:"nb_cdi"`
	NbCDD        int     `json:"nb_cdd"`
	NbAlternance int     `json:"nb_alternance"`
	NbStage      int     `json:"nb_stage"`
	NbInterim    int     `json:"nb_interim"`
	PctCDI       float64 `json:"pct_cdi"`
	PctCDD       float64 `json:"pct_cdd"`
	PctPrecarite float64 `json:"pct_precarite"`

	NbHommes  int     `json:"nb_hommes"`
	NbFemmes  int     `json:"nb_femmes"`
	PctHommes float64 `json:"pct_hommes"`
	PctFemmes float64 `json:"pct_femmes"`

	AgeMoyen              float64 `json:"age_moyen"`
	AncienneteMoyenneMois float64 `json:"anciennete_moyenne_mois"`

	PyramideAges       PyramideAges       `json:"pyramide_ages"`
	PyramideAnciennete PyramideAnciennete `json:"pyramide_anciennete"`
}

// PyramideAges buckets headcount by age band, in years at period year.
type PyramideAges struct {
	Moins25  int `json:"moins_25"`
	De25a35  int `json:"de_25_a_35"`
	De35a45  int `json:"de_35_a_45"`
	De45a55  int `json:"de_45_a_55"`
	Plus55   int `json:"plus_55"`
	Inconnus int `json:"inconnus"`
}

// PyramideAnciennete buckets headcount by seniority band, in years.
type PyramideAnciennete struct {
	MoinsUnAn int `json:"moins_1_an"`
	De1a3Ans  int `json:"de_1_a_3_ans"`
	De3a5Ans  int `json:"de_3_a_5_ans"`
	De5a10Ans int `json:"de_5_a_10_ans"`
	Plus10Ans int `json:"plus_10_ans"`
	Inconnus  int `json:"inconnus"`
}

// AbsenceMetrics holds absenteeism aggregates for one period. Warnings carry
// non-fatal data-quality findings (dropped spells, unknown categories).
type AbsenceMetrics struct {
	NbJoursAbsenceTotal    float64 `json:"nb_jours_absence_total"`
	NbJoursMaladie         float64 `json:"nb_jours_maladie"`
	NbJoursAccidentTravail float64 `json:"nb_jours_accident_travail"`
	NbJoursConges          float64 `json:"nb_jours_conges"`
	NbJoursFormation       float64 `json:"nb_jours_formation"`
	NbJoursAutres          float64 `json:"nb_jours_autres"`

	TauxAbsenteisme        float64 `json:"taux_absenteisme"`
	TauxAbsenteismeMaladie float64 `json:"taux_absenteisme_maladie"`

	NbAbsencesTotal     int     `json:"nb_absences_total"`
	NbSalariesAbsents   int     `json:"nb_salaries_absents"`
	DureeMoyenneAbsence float64 `json:"duree_moyenne_absence"`
	FrequenceAbsence    float64 `json:"frequence_absence"`

	JoursOuvrables int `json:"jours_ouvrables"`

	Warnings []string `json:"warnings,omitempty"`
}

// PayrollMetrics holds payroll-mass aggregates for one period. Effets is only
// present when a prior period was available for the decomposition.
type PayrollMetrics struct {
	MasseSalarialeBrute      float64 `json:"masse_salariale_brute"`
	CotisationsSocialesTotal float64 `json:"cotisations_sociales_total"`
	TaxesSurSalaireTotal     float64 `json:"taxes_sur_salaire_total"`
	AutresChargesTotal       float64 `json:"autres_charges_total"`
	CoutTotalEmployeur       float64 `json:"cout_total_employeur"`

	SalaireBaseTotal           float64 `json:"salaire_base_total"`
	PrimesVariablesTotal       float64 `json:"primes_variables_total"`
	PrimesExceptionnellesTotal float64 `json:"primes_exceptionnelles_total"`

	CoutMoyenParETP float64 `json:"cout_moyen_par_etp"`
	PartVariable    float64 `json:"part_variable"`
	TauxCharges     float64 `json:"taux_charges"`

	NbBulletins int `json:"nb_bulletins"`

	Effets *EffetsMasseSalariale `json:"effets_masse_salariale,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// EffetsMasseSalariale decomposes the month-over-month payroll-mass variation.
// The three effects always sum to VariationTotale within rounding tolerance.
type EffetsMasseSalariale struct {
	EffetPrix       float64 `json:"effet_prix"`
	EffetVolume     float64 `json:"effet_volume"`
	EffetMix        float64 `json:"effet_mix"`
	VariationTotale float64 `json:"variation_totale"`
}
