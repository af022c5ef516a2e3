package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
	"github.com/pilotage-rh/analytics-backend-go/internal/handler/http/response"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/validator"
)

type SnapshotHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type snapshotHandlerImpl struct {
	snapshotService snapshot.Service
}

func NewSnapshotHandler(snapshotService snapshot.Service) SnapshotHandler {
	return &snapshotHandlerImpl{
		snapshotService: snapshotService,
	}
}

// List handles GET /establishments/{establishmentID}/snapshots.
// Optional from/to query parameters bound the period range (YYYY-MM-01).
func (h *snapshotHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	establishmentID := chi.URLParam(r, "establishmentID")

	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		p, ok := validator.IsValidPeriod(raw)
		if !ok {
			response.BadRequest(w, "invalid from parameter, expected YYYY-MM-01", nil)
			return
		}
		from = p
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		p, ok := validator.IsValidPeriod(raw)
		if !ok {
			response.BadRequest(w, "invalid to parameter, expected YYYY-MM-01", nil)
			return
		}
		to = p
	}

	snaps, err := h.snapshotService.ListSnapshots(ctx, establishmentID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, snaps, &response.Meta{TotalItems: len(snaps)})
}

// Get handles GET /establishments/{establishmentID}/snapshots/{period}.
func (h *snapshotHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	establishmentID := chi.URLParam(r, "establishmentID")

	period, ok := validator.IsValidPeriod(chi.URLParam(r, "period"))
	if !ok {
		response.BadRequest(w, "invalid period, expected YYYY-MM-01", nil)
		return
	}

	snap, err := h.snapshotService.GetSnapshot(ctx, establishmentID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, snap)
}
