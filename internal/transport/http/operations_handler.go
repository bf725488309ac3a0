package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "soleplan/internal/errors"
	"soleplan/internal/operations"
	"soleplan/internal/services"
)

// OperationsHandler handles pipeline run requests.
type OperationsHandler struct {
	service *services.OperationService
	logger  *slog.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(service *services.OperationService, logger *slog.Logger) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "operations")),
	}
}

// Routes returns the operations sub-router.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartOperation)
	r.Get("/", h.ListOperations)
	r.Get("/{id}", h.GetOperation)
	return r
}

// startRequest is the JSON body of POST /api/operations.
type startRequest struct {
	operations.OperationRequest
}

// Bind implements render.Binder.
func (r *startRequest) Bind(req *http.Request) error {
	if r.Horizon < 0 {
		return apierrors.ErrValidation("horizon", "must not be negative")
	}
	return nil
}

// startResponse is the JSON body returned when a run is accepted.
type startResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

// StartOperation handles POST /api/operations.
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	req := &startRequest{}
	if err := render.Bind(r, req); err != nil {
		if apiErr, ok := err.(*apierrors.APIError); ok {
			render.Render(w, r, apierrors.NewErrorResponse(apiErr))
			return
		}
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}

	id, err := h.service.StartOperation(r.Context(), req.OperationRequest)
	if err != nil {
		h.logger.WarnContext(r.Context(), "operation rejected",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, startResponse{
		OperationID: id,
		Status:      operations.OperationStatusPending,
	})
}

// GetOperation handles GET /api/operations/{id}.
func (h *OperationsHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, ok := h.service.GetOperation(id)
	if !ok {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrOperationNotFound))
		return
	}
	render.JSON(w, r, resp)
}

// ListOperations handles GET /api/operations.
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"operations": h.service.ListOperations(),
	})
}
