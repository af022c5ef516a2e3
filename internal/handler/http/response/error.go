package response

import (
	"errors"
	"net/http"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, snapshot.ErrSnapshotNotFound):
		NotFound(w, "Snapshot not found")
	case errors.Is(err, snapshot.ErrJobNotFound):
		NotFound(w, "Import job not found")
	case errors.Is(err, snapshot.ErrInvalidPeriod):
		BadRequest(w, "Period must be the first day of a month", nil)
	case errors.Is(err, record.ErrPeriodNotFound):
		NotFound(w, "No records for the requested period")
	case errors.Is(err, record.ErrInvalidEstablishment):
		BadRequest(w, "Invalid establishment", nil)

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
