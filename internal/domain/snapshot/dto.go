package snapshot

import (
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/validator"
)

// JobState tracks an import job through its lifecycle. Error is absorbing:
// once a job fails structurally it never transitions again.
type JobState string

const (
	JobStateValidating JobState = "validating"
	JobStateProcessing JobState = "processing"
	JobStateEffects    JobState = "effects_calculation"
	JobStateCompleted  JobState = "completed"
	JobStateError      JobState = "error"
)

// PeriodStatus is the per-period outcome of an import job.
type PeriodStatus string

const (
	PeriodStatusOK PeriodStatus = "ok"
	// PeriodStatusDegraded means the snapshot was built after storage retries
	// were exhausted, without prior-period effects.
	PeriodStatusDegraded PeriodStatus = "degraded"
	PeriodStatusFailed   PeriodStatus = "failed"
)

type ImportRequest struct {
	EstablishmentID string `json:"establishment_id"`
	// WorkbookPath points at an already-uploaded xlsx file. Upload handling
	// itself lives outside this service.
	WorkbookPath string `json:"workbook_path"`
	// Periods optionally restricts the import to the given YYYY-MM-01 periods.
	// Empty means every period found in the workbook.
	Periods []string `json:"periods,omitempty"`
}

func (r *ImportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EstablishmentID) {
		errs = append(errs, validator.ValidationError{Field: "establishment_id", Message: "establishment_id is required"})
	}
	if validator.IsEmpty(r.WorkbookPath) {
		errs = append(errs, validator.ValidationError{Field: "workbook_path", Message: "workbook_path is required"})
	}
	for _, p := range r.Periods {
		if _, ok := validator.IsValidPeriod(p); !ok {
			errs = append(errs, validator.ValidationError{Field: "periods", Message: "periods must be YYYY-MM-01 dates: " + p})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PeriodOutcome reports one period's result inside an import job.
type PeriodOutcome struct {
	Period   string       `json:"period"`
	Status   PeriodStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// ImportResult is the per-job tally. Partial success is success: the job only
// fails as a whole when zero periods produced a snapshot.
type ImportResult struct {
	JobID            string          `json:"job_id"`
	EstablishmentID  string          `json:"establishment_id"`
	State            JobState        `json:"state"`
	PeriodsTotal     int             `json:"periods_total"`
	PeriodsSucceeded int             `json:"periods_succeeded"`
	PeriodsFailed    int             `json:"periods_failed"`
	SuccessRatio     float64         `json:"success_ratio"`
	Periods          []PeriodOutcome `json:"periods"`
}
