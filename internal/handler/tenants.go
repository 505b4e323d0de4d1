package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// TenantsHandler handles tenant records
type TenantsHandler struct {
	tenants *service.TenantService
	logger  *slog.Logger
}

// NewTenantsHandler creates a new tenants handler
func NewTenantsHandler(tenants *service.TenantService, logger *slog.Logger) *TenantsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantsHandler{tenants: tenants, logger: logger}
}

// List handles GET /api/v1/tenants
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "list tenants", err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// Get handles GET /api/v1/tenants/{id}. Tenants may only read themselves.
func (h *TenantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	tenant, err := h.tenants.Get(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "get tenant", err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// Update handles PATCH /api/v1/tenants/{id}
func (h *TenantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "update tenant", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	tenant, err := h.tenants.UpdateProfile(r.Context(), p, r.PathValue("id"), req.update())
	if err != nil {
		writeError(w, r, h.logger, "update tenant", err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// Delete handles DELETE /api/v1/tenants/{id}. A flat still held by the
// tenant is released first.
func (h *TenantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if err := h.tenants.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, "delete tenant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
