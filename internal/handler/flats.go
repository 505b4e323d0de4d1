package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// FlatsHandler handles flat inventory and booking endpoints
type FlatsHandler struct {
	flats  *service.FlatService
	logger *slog.Logger
}

// NewFlatsHandler creates a new flats handler
func NewFlatsHandler(flats *service.FlatService, logger *slog.Logger) *FlatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlatsHandler{flats: flats, logger: logger}
}

// FlatRequest is the create and update form of a flat
type FlatRequest struct {
	Name            string  `json:"name" validate:"required"`
	Number          string  `json:"number" validate:"required"`
	Floor           string  `json:"floor"`
	Area            string  `json:"area"`
	Rent            float64 `json:"rent" validate:"gte=0"`
	MaintenanceCost float64 `json:"maintenanceCost" validate:"gte=0"`
	ServiceCharge   float64 `json:"serviceCharge" validate:"gte=0"`
	ElevatorFee     float64 `json:"elevatorFee" validate:"gte=0"`
	SecurityCharge  float64 `json:"securityCharge" validate:"gte=0"`
	SocietyFee      float64 `json:"societyFee" validate:"gte=0"`
}

func (req FlatRequest) input() service.FlatInput {
	return service.FlatInput{
		Name:            req.Name,
		Number:          req.Number,
		Floor:           req.Floor,
		Area:            req.Area,
		Rent:            req.Rent,
		MaintenanceCost: req.MaintenanceCost,
		ServiceCharge:   req.ServiceCharge,
		ElevatorFee:     req.ElevatorFee,
		SecurityCharge:  req.SecurityCharge,
		SocietyFee:      req.SocietyFee,
	}
}

// BookRequest carries the tenant moving into the flat
type BookRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// FlatResponse adds the derived monthly total to a flat
type FlatResponse struct {
	*domain.Flat
	TotalCharges float64 `json:"totalCharges"`
}

// present hides occupancy details of other people's flats from tenants
func present(p *domain.Principal, f *domain.Flat) FlatResponse {
	if !p.IsAdmin() && f.TenantID != p.UserID() {
		redacted := *f
		redacted.TenantID = ""
		redacted.LoginCode = ""
		f = &redacted
	}
	return FlatResponse{Flat: f, TotalCharges: f.TotalCharges()}
}

// List handles GET /api/v1/flats?status=
func (h *FlatsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.FlatFilter{Status: domain.FlatStatus(r.URL.Query().Get("status"))}
	flats, err := h.flats.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, "list flats", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	out := make([]FlatResponse, 0, len(flats))
	for _, f := range flats {
		out = append(out, present(p, f))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/flats/{id}
func (h *FlatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	flat, err := h.flats.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "get flat", err)
		return
	}
	writeJSON(w, http.StatusOK, present(middleware.GetPrincipalFromContext(r.Context()), flat))
}

// Create handles POST /api/v1/flats
func (h *FlatsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req FlatRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "create flat", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	flat, err := h.flats.Create(r.Context(), p, req.input())
	if err != nil {
		writeError(w, r, h.logger, "create flat", err)
		return
	}
	writeJSON(w, http.StatusCreated, present(p, flat))
}

// Update handles PUT /api/v1/flats/{id}
func (h *FlatsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req FlatRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "update flat", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	flat, err := h.flats.Update(r.Context(), p, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, r, h.logger, "update flat", err)
		return
	}
	writeJSON(w, http.StatusOK, present(p, flat))
}

// Delete handles DELETE /api/v1/flats/{id}
func (h *FlatsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if err := h.flats.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, "delete flat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Book handles POST /api/v1/flats/{id}/book
func (h *FlatsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "book flat", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	result, err := h.flats.Book(r.Context(), p, r.PathValue("id"), service.TenantInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(w, r, h.logger, "book flat", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Release handles POST /api/v1/flats/{id}/release
func (h *FlatsHandler) Release(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	flat, err := h.flats.Release(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "release flat", err)
		return
	}
	writeJSON(w, http.StatusOK, present(p, flat))
}

// SendLoginCode handles POST /api/v1/flats/{id}/send-code
func (h *FlatsHandler) SendLoginCode(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	result, err := h.flats.SendLoginCode(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "send login code", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
