package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/handler/http/response"
)

type ImportHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
}

type importHandlerImpl struct {
	snapshotService snapshot.Service
}

func NewImportHandler(snapshotService snapshot.Service) ImportHandler {
	return &importHandlerImpl{
		snapshotService: snapshotService,
	}
}

// Create handles POST /establishments/{establishmentID}/imports. The import
// runs synchronously; the response carries the full per-period tally.
func (h *importHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req snapshot.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}
	req.EstablishmentID = chi.URLParam(r, "establishmentID")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.snapshotService.RunImport(ctx, req)
	if err != nil {
		// A fully failed job still has a tally worth returning.
		if errors.Is(err, snapshot.ErrNoPeriodsBuilt) {
			response.UnprocessableImport(w, err.Error(), result)
			return
		}
		response.HandleError(w, err)
		return
	}

	response.Created(w, "import completed", result)
}

// Status handles GET /imports/{jobID}.
func (h *importHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")

	result, err := h.snapshotService.JobStatus(ctx, jobID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
