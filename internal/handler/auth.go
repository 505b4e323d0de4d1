package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
	"github.com/aryan0dhankhar/homerental/pkg/config"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	identity *service.IdentityService
	cookie   config.CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *service.IdentityService, cookie config.CookieConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{identity: identity, cookie: cookie, logger: logger}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginRequest represents an admin login by email
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TenantLoginRequest carries the six digit code issued at booking
type TenantLoginRequest struct {
	LoginCode string `json:"loginCode" validate:"required"`
}

// PasswordChangeRequest replaces the caller's password
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// ProfileRequest carries the editable profile fields; absent fields are kept
type ProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

func (p ProfileRequest) update() domain.ProfileUpdate {
	return domain.ProfileUpdate{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

// SessionResponse describes the caller behind the current token
type SessionResponse struct {
	Session *domain.Session `json:"session"`
	Admin   *domain.Admin   `json:"admin,omitempty"`
	Tenant  *domain.Tenant  `json:"tenant,omitempty"`
}

func sessionResponse(p *domain.Principal) SessionResponse {
	return SessionResponse{Session: p.Session, Admin: p.Admin, Tenant: p.Tenant}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

// Register handles POST /api/v1/auth/admin/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "register", err)
		return
	}

	admin, err := h.identity.RegisterAdmin(r.Context(), service.RegisterAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, "register", err)
		return
	}

	h.logger.Info("admin registered", slog.String("admin_id", admin.ID))
	writeJSON(w, http.StatusCreated, admin)
}

// LoginAdmin handles POST /api/v1/auth/admin/login
func (h *AuthHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "admin login", err)
		return
	}

	result, err := h.identity.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, "admin login", err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, result)
}

// LoginTenant handles POST /api/v1/auth/tenant/login
func (h *AuthHandler) LoginTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantLoginRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "tenant login", err)
		return
	}

	result, err := h.identity.LoginTenant(r.Context(), req.LoginCode)
	if err != nil {
		writeError(w, r, h.logger, "tenant login", err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, result)
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse(p))
}

// Logout handles POST /api/v1/auth/logout. It always clears the cookie; a
// token that no longer maps to a session is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	defer h.clearSessionCookie(w)

	token := middleware.TokenFromRequest(r, h.cookie.Name)
	if token == "" {
		return
	}
	session, err := h.identity.CurrentSession(r.Context(), token)
	if err != nil {
		return
	}
	if err := h.identity.Logout(r.Context(), session.ID); err != nil {
		h.logger.Warn("failed to delete session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ChangePassword handles PATCH /api/v1/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordChangeRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "change password", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	if err := h.identity.ChangePassword(r.Context(), p.UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, h.logger, "change password", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

// UpdateProfile handles PATCH /api/v1/auth/profile for either role
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "update profile", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	updated, err := h.identity.UpdateProfile(r.Context(), p.Role(), p.UserID(), req.update())
	if err != nil {
		writeError(w, r, h.logger, "update profile", err)
		return
	}
	updated.Session = p.Session
	writeJSON(w, http.StatusOK, sessionResponse(updated))
}
