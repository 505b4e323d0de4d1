package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// MaintenanceHandler handles maintenance tickets
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
	logger      *slog.Logger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenance *service.MaintenanceService, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceHandler{maintenance: maintenance, logger: logger}
}

// MaintenanceRequest is the ticket form a tenant submits
type MaintenanceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// StatusRequest moves a ticket forward
type StatusRequest struct {
	Status domain.MaintenanceStatus `json:"status" validate:"required,oneof=received in_progress done"`
}

// Submit handles POST /api/v1/maintenance
func (h *MaintenanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req MaintenanceRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "submit maintenance", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	if p.Tenant == nil {
		writeError(w, r, h.logger, "submit maintenance", domain.ErrForbidden)
		return
	}
	ticket, err := h.maintenance.Submit(r.Context(), p.Tenant, service.MaintenanceInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeError(w, r, h.logger, "submit maintenance", err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// List handles GET /api/v1/maintenance?status=&flatId=&tenantId=
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.MaintenanceFilter{
		TenantID: q.Get("tenantId"),
		FlatID:   q.Get("flatId"),
		Status:   domain.MaintenanceStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, r, h.logger, "list maintenance", domain.NewValidationError("status", "is not a known status"))
		return
	}

	tickets, err := h.maintenance.List(r.Context(), middleware.GetPrincipalFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, h.logger, "list maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Get handles GET /api/v1/maintenance/{id}
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.maintenance.Get(r.Context(), middleware.GetPrincipalFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "get maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// AdvanceStatus handles PATCH /api/v1/maintenance/{id}/status
func (h *MaintenanceHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "advance maintenance", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	ticket, err := h.maintenance.AdvanceStatus(r.Context(), p, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, "advance maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
