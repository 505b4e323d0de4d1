package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// DashboardHandler serves the admin overview and the per-user home view
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Admin handles GET /api/v1/dashboard
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Admin(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HomeResponse is what GET /api/v1/home shows the logged in user
type HomeResponse struct {
	Role      string                  `json:"role"`
	Admin     *domain.Admin           `json:"admin,omitempty"`
	Dashboard *service.AdminDashboard `json:"dashboard,omitempty"`
	Home      *service.TenantHome     `json:"home,omitempty"`
}

// Home handles GET /api/v1/home and /api/v1/std-home
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	resp := HomeResponse{Role: string(p.Role())}

	if p.IsAdmin() {
		d, err := h.dashboard.Admin(r.Context())
		if err != nil {
			writeError(w, r, h.logger, "home", err)
			return
		}
		resp.Admin = p.Admin
		resp.Dashboard = d
	} else {
		home, err := h.dashboard.Tenant(r.Context(), p.Tenant)
		if err != nil {
			writeError(w, r, h.logger, "home", err)
			return
		}
		resp.Home = home
	}
	writeJSON(w, http.StatusOK, resp)
}
