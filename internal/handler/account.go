package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
)

// The account routes keep the original login surface: admins sign in by
// account id and OTP codes travel in the path as otp=<code>.

// LoginRequest represents a login by account id
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// LoginResponse is the legacy login payload
type LoginResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ID        string `json:"id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

// SetPasswordRequest replaces the caller's password without the old one
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// EmailRequest names the account an OTP belongs to
type EmailRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetRequest carries the new password for a reset OTP
type ResetRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}

// pathParam reads a wildcard that may carry a key= prefix, as in otp=123456
func pathParam(r *http.Request, name string) string {
	v := r.PathValue(name)
	return strings.TrimPrefix(v, name+"=")
}

// Login handles POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "login", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "id and password are required"})
		return
	}

	result, err := h.identity.LoginByID(r.Context(), strings.TrimSpace(req.ID), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown account id"})
			return
		}
		writeError(w, r, h.logger, "login", err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	first, last := splitName(result.Admin.Name)
	writeJSON(w, http.StatusOK, LoginResponse{
		FirstName: first,
		LastName:  last,
		ID:        result.Admin.ID,
		Email:     result.Admin.Email,
		Token:     result.Token,
	})
}

// LogoutLegacy handles GET /api/v1/logout
func (h *AuthHandler) LogoutLegacy(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// SetPassword handles PATCH /api/v1/change-password
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "set password", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	ok, err := h.identity.UpdatePassword(r.Context(), p.Role(), p.UserID(), req.Password)
	if err != nil {
		writeError(w, r, h.logger, "set password", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "account has no password"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

// ActivateAccount handles POST /api/v1/activate-account/otp={otp}
func (h *AuthHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "activate account", err)
		return
	}
	if err := h.identity.ActivateAccount(r.Context(), req.Email, pathParam(r, "otp")); err != nil {
		writeError(w, r, h.logger, "activate account", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account activated"})
}

// ForgotPassword handles POST /api/v1/forgot-password/otp={otp}
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "reset password", err)
		return
	}
	if err := h.identity.ResetPassword(r.Context(), req.Email, pathParam(r, "otp"), req.Password); err != nil {
		writeError(w, r, h.logger, "reset password", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset"})
}

// otpPurpose accepts the route's reason names alongside the purpose values
func otpPurpose(reason string) domain.OTPPurpose {
	switch strings.ToLower(reason) {
	case "activate", "activate-account", "activation":
		return domain.OTPActivate
	case "reset", "forgot", "forgot-password":
		return domain.OTPReset
	default:
		return domain.OTPPurpose(reason)
	}
}

// ResendOTP handles PATCH /api/v1/resend-otp/reason={reason}. The answer is
// the same whether or not the email belongs to an account.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "resend otp", err)
		return
	}
	purpose := otpPurpose(pathParam(r, "reason"))
	if err := h.identity.ResendOTP(r.Context(), req.Email, purpose); err != nil {
		writeError(w, r, h.logger, "resend otp", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "If the account exists a new code has been sent"})
}
