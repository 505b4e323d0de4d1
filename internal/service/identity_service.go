package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
)

// IdentityConfig tunes the identity service
type IdentityConfig struct {
	SessionTTL        time.Duration
	OTPTTL            time.Duration
	PasswordMinLength int
	RequireActivation bool
	// LogOTPCodes writes issued codes to the log; delivery is otherwise absent
	LogOTPCodes bool
}

func (c IdentityConfig) withDefaults() IdentityConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = 10 * time.Minute
	}
	if c.PasswordMinLength <= 0 {
		c.PasswordMinLength = 1
	}
	return c
}

// IdentityService handles authentication operations for admins and tenants
type IdentityService struct {
	store    domain.Store
	sessions domain.SessionRepository
	otps     domain.OTPRepository
	tokens   *auth.TokenManager
	out      Outbound
	cfg      IdentityConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	store domain.Store,
	sessions domain.SessionRepository,
	otps domain.OTPRepository,
	tokens *auth.TokenManager,
	cfg IdentityConfig,
	out Outbound,
	logger *slog.Logger,
) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		store:    store,
		sessions: sessions,
		otps:     otps,
		tokens:   tokens,
		out:      out.withDefaults(logger),
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterAdminInput carries the registration form
type RegisterAdminInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult is returned by every successful login
type AuthResult struct {
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
	Admin   *domain.Admin   `json:"admin,omitempty"`
	Tenant  *domain.Tenant  `json:"tenant,omitempty"`
}

// UserID returns the id of the logged in account
func (r *AuthResult) UserID() string {
	return r.Session.UserID
}

func (s *IdentityService) validatePassword(password string) error {
	if password == "" {
		return domain.NewValidationError("password", "is required")
	}
	if len(password) < s.cfg.PasswordMinLength {
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", s.cfg.PasswordMinLength))
	}
	return nil
}

// RegisterAdmin creates a new admin account and issues its activation code
func (s *IdentityService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*domain.Admin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	for _, f := range []struct{ name, value string }{
		{"name", in.Name}, {"email", in.Email}, {"phone", in.Phone},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.Admins().GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register admin: %w", err)
	}

	now := s.now().UTC()
	admin := &domain.Admin{
		ID:           newID(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Admins().Create(ctx, admin); err != nil {
		return nil, err
	}

	if err := s.issueOTP(ctx, admin, domain.OTPActivate); err != nil {
		s.logger.Warn("activation code not issued",
			slog.String("admin_id", admin.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("admin registered", slog.String("admin_id", admin.ID))
	return admin, nil
}

// LoginAdmin authenticates an admin by email and password
func (s *IdentityService) LoginAdmin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, s.loginFailed(ctx, domain.RoleAdmin, email)
	}

	admin, err := s.store.Admins().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up admin: %w", err)
		}
		s.logger.Info("login attempt with unknown email")
		return nil, s.loginFailed(ctx, domain.RoleAdmin, email)
	}
	return s.authenticateAdmin(ctx, admin, password, email)
}

// LoginByID authenticates an admin by account id. An unknown id is reported
// as ErrNotFound; every other failure is an ErrAuthFailure.
func (s *IdentityService) LoginByID(ctx context.Context, id, password string) (*AuthResult, error) {
	admin, err := s.store.Admins().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.loginFailed(ctx, domain.RoleAdmin, id)
		}
		return nil, err
	}
	return s.authenticateAdmin(ctx, admin, password, id)
}

func (s *IdentityService) authenticateAdmin(ctx context.Context, admin *domain.Admin, password, identifier string) (*AuthResult, error) {
	// always compare so that rejected accounts take as long as accepted ones
	ok := auth.CheckPassword(admin.PasswordHash, password)
	switch {
	case !ok:
		s.logger.Info("login failed with wrong password", slog.String("admin_id", admin.ID))
		return nil, s.loginFailed(ctx, domain.RoleAdmin, identifier)
	case admin.Dismissed:
		s.logger.Info("login rejected for dismissed admin", slog.String("admin_id", admin.ID))
		return nil, s.loginFailed(ctx, domain.RoleAdmin, identifier)
	case s.cfg.RequireActivation && !admin.Verified:
		s.logger.Info("login rejected for unactivated admin", slog.String("admin_id", admin.ID))
		return nil, s.loginFailed(ctx, domain.RoleAdmin, identifier)
	}

	result, err := s.startSession(ctx, domain.RoleAdmin, admin.ID)
	if err != nil {
		return nil, err
	}
	result.Admin = admin
	s.out.Audit.LogLogin(ctx, string(domain.RoleAdmin), admin.ID, identifier, audit.StatusSuccess)
	s.logger.Info("admin logged in", slog.String("admin_id", admin.ID))
	return result, nil
}

// LoginTenant authenticates a tenant by its login code
func (s *IdentityService) LoginTenant(ctx context.Context, code string) (*AuthResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, s.loginFailed(ctx, domain.RoleTenant, "")
	}

	tenant, err := s.store.Tenants().GetByLoginCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up tenant: %w", err)
		}
		return nil, s.loginFailed(ctx, domain.RoleTenant, "")
	}
	if !tenant.Housed() {
		return nil, s.loginFailed(ctx, domain.RoleTenant, "")
	}

	result, err := s.startSession(ctx, domain.RoleTenant, tenant.ID)
	if err != nil {
		return nil, err
	}
	result.Tenant = tenant
	s.out.Audit.LogLogin(ctx, string(domain.RoleTenant), tenant.ID, "", audit.StatusSuccess)
	s.logger.Info("tenant logged in", slog.String("tenant_id", tenant.ID))
	return result, nil
}

func (s *IdentityService) loginFailed(ctx context.Context, role domain.Role, identifier string) error {
	metrics.ObserveLogin(string(role), "failure")
	s.out.Audit.LogLogin(ctx, string(role), "", identifier, audit.StatusFailure)
	return domain.ErrAuthFailure
}

func (s *IdentityService) startSession(ctx context.Context, role domain.Role, userID string) (*AuthResult, error) {
	now := s.now().UTC()
	session := &domain.Session{
		ID:        newID(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.tokens.GenerateToken(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	metrics.ObserveLogin(string(role), "success")
	s.out.emit(ctx, s.logger, events.SubjectLogin, map[string]string{
		"role":       string(role),
		"user_id":    userID,
		"session_id": session.ID,
	})
	return &AuthResult{Session: session, Token: token}, nil
}

// CurrentSession returns the live session a token belongs to
func (s *IdentityService) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, domain.ErrAuthFailure
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthFailure
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session.UserID != claims.UserID || session.Role != claims.Role || session.Expired(s.now()) {
		return nil, domain.ErrAuthFailure
	}
	return session, nil
}

// Resolve maps a token to the caller. The account is read on every request:
// dismissed admins and tenants whose flat was released are rejected even
// while their session is live.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	session, err := s.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}

	p := &domain.Principal{Session: session}
	switch session.Role {
	case domain.RoleAdmin:
		admin, err := s.store.Admins().GetByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrAuthFailure
			}
			return nil, err
		}
		if admin.Dismissed {
			return nil, domain.ErrAuthFailure
		}
		p.Admin = admin
	case domain.RoleTenant:
		tenant, err := s.store.Tenants().GetByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrAuthFailure
			}
			return nil, err
		}
		if !tenant.Housed() {
			return nil, domain.ErrAuthFailure
		}
		p.Tenant = tenant
	default:
		return nil, domain.ErrAuthFailure
	}
	return p, nil
}

// Logout removes the session so every token tied to it stops working
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("session ended", slog.String("session_id", sessionID))
	return nil
}

// UpdatePassword replaces an admin password. It reports false for tenants,
// which have no password, and for unknown ids.
func (s *IdentityService) UpdatePassword(ctx context.Context, role domain.Role, id, newPassword string) (bool, error) {
	if role != domain.RoleAdmin {
		return false, nil
	}
	if err := s.validatePassword(newPassword); err != nil {
		return false, err
	}

	admin, err := s.store.Admins().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.setPassword(ctx, admin, newPassword); err != nil {
		return false, err
	}
	return true, nil
}

// ChangePassword replaces an admin password after checking the current one
func (s *IdentityService) ChangePassword(ctx context.Context, adminID, oldPassword, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}
	admin, err := s.store.Admins().GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(admin.PasswordHash, oldPassword) {
		return domain.ErrAuthFailure
	}
	return s.setPassword(ctx, admin, newPassword)
}

func (s *IdentityService) setPassword(ctx context.Context, admin *domain.Admin, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin.PasswordHash = hash
	admin.UpdatedAt = later(admin.UpdatedAt, s.now().UTC())
	if err := s.store.Admins().Update(ctx, admin); err != nil {
		return err
	}
	s.out.Audit.LogAction(ctx, audit.Actor{Role: string(domain.RoleAdmin), UserID: admin.ID},
		"change_password", "admin", admin.ID, audit.StatusSuccess, "")
	return nil
}

// UpdateProfile edits the profile fields of the caller's account. Email
// uniqueness is enforced for admins.
func (s *IdentityService) UpdateProfile(ctx context.Context, role domain.Role, id string, upd domain.ProfileUpdate) (*domain.Principal, error) {
	if err := validateProfile(upd); err != nil {
		return nil, err
	}

	switch role {
	case domain.RoleAdmin:
		admin, err := s.store.Admins().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		applyProfile(&admin.Name, &admin.Email, &admin.Phone, upd)
		admin.UpdatedAt = later(admin.UpdatedAt, s.now().UTC())
		if err := s.store.Admins().Update(ctx, admin); err != nil {
			return nil, err
		}
		s.out.Cache.Invalidate()
		return &domain.Principal{Admin: admin}, nil
	case domain.RoleTenant:
		tenant, err := updateTenantProfile(ctx, s.store, id, upd, s.now().UTC())
		if err != nil {
			return nil, err
		}
		s.out.Cache.Invalidate()
		return &domain.Principal{Tenant: tenant}, nil
	default:
		return nil, domain.NewValidationError("role", "is not a known role")
	}
}

func validateProfile(upd domain.ProfileUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return domain.NewValidationError("name", "must not be empty")
	}
	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		return domain.NewValidationError("email", "must not be empty")
	}
	return nil
}

func applyProfile(name, email, phone *string, upd domain.ProfileUpdate) {
	if upd.Name != nil {
		*name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		*email = strings.TrimSpace(*upd.Email)
	}
	if upd.Phone != nil {
		*phone = strings.TrimSpace(*upd.Phone)
	}
}

// ActivateAccount marks an admin verified when otp matches the issued code
func (s *IdentityService) ActivateAccount(ctx context.Context, email, otp string) error {
	admin, err := s.consumeOTP(ctx, email, domain.OTPActivate, otp)
	if err != nil {
		return err
	}
	admin.Verified = true
	admin.UpdatedAt = later(admin.UpdatedAt, s.now().UTC())
	if err := s.store.Admins().Update(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("admin activated", slog.String("admin_id", admin.ID))
	return nil
}

// ResetPassword sets a new password when otp matches the issued reset code
func (s *IdentityService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}
	admin, err := s.consumeOTP(ctx, email, domain.OTPReset, otp)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, admin, newPassword)
}

// ResendOTP issues a fresh code for purpose, replacing any earlier one.
// Unknown emails succeed silently so the endpoint does not reveal accounts.
func (s *IdentityService) ResendOTP(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if !purpose.Valid() {
		return domain.NewValidationError("reason", "must be activate or reset")
	}
	if err := required("email", email); err != nil {
		return err
	}
	admin, err := s.store.Admins().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("otp requested for unknown email")
			return nil
		}
		return err
	}
	if purpose == domain.OTPActivate && admin.Verified {
		return fmt.Errorf("account already activated: %w", domain.ErrConflict)
	}
	return s.issueOTP(ctx, admin, purpose)
}

func (s *IdentityService) issueOTP(ctx context.Context, admin *domain.Admin, purpose domain.OTPPurpose) error {
	code, err := auth.GenerateCode(6)
	if err != nil {
		return err
	}
	otp := &domain.OTP{
		Purpose:   purpose,
		AdminID:   admin.ID,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	}
	if err := s.otps.Save(ctx, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	attrs := []any{
		slog.String("admin_id", admin.ID),
		slog.String("purpose", string(purpose)),
		slog.Time("expires_at", otp.ExpiresAt),
	}
	if s.cfg.LogOTPCodes {
		attrs = append(attrs, slog.String("code", code))
	}
	s.logger.Info("otp issued", attrs...)
	return nil
}

// consumeOTP burns the stored code for purpose. A wrong guess burns it too.
func (s *IdentityService) consumeOTP(ctx context.Context, email string, purpose domain.OTPPurpose, code string) (*domain.Admin, error) {
	if err := required("email", email); err != nil {
		return nil, err
	}
	if err := required("otp", code); err != nil {
		return nil, err
	}

	admin, err := s.store.Admins().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthFailure
		}
		return nil, err
	}

	stored, err := s.otps.Consume(ctx, purpose, admin.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthFailure
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 || !s.now().Before(stored.ExpiresAt) {
		return nil, domain.ErrAuthFailure
	}
	return admin, nil
}

// SetDismissed enables or disables an admin account
func (s *IdentityService) SetDismissed(ctx context.Context, email string, dismissed bool) (*domain.Admin, error) {
	admin, err := s.store.Admins().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	admin.Dismissed = dismissed
	admin.UpdatedAt = later(admin.UpdatedAt, s.now().UTC())
	if err := s.store.Admins().Update(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("admin dismissal changed",
		slog.String("admin_id", admin.ID),
		slog.Bool("dismissed", dismissed),
	)
	return admin, nil
}
