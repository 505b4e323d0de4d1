package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/requestid"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
	"github.com/aryan0dhankhar/homerental/internal/security/ratelimit"
)

// PrincipalContextKey holds the *domain.Principal set by Authenticate
type PrincipalContextKey struct{}

// TokenContextKey holds the raw session token set by Authenticate
type TokenContextKey struct{}

// SessionResolver turns a bearer token into the live principal behind it
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// TokenFromRequest reads the auth cookie first, then an Authorization header
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, err := auth.ExtractToken(h); err == nil {
			return tok
		}
	}
	return ""
}

// Authenticate rejects requests without a live session and stores the
// principal in the request context
func Authenticate(resolver SessionResolver, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Debug("session rejected",
					slog.String("request_id", requestid.From(r.Context())),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusUnauthorized, "invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey{}, principal)
			ctx = context.WithValue(ctx, TokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on the caller's role
func RequirePermission(authz *security.AuthorizationService, perm security.Permission, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipalFromContext(r.Context())
			if err := authz.ValidatePermission(p.Role(), perm); err != nil {
				auditLog.LogDenied(r.Context(), audit.Actor{Role: string(p.Role()), UserID: p.UserID()}, string(perm))
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware applies the general API budget per user, or per client
// address for anonymous calls
func RateLimitMiddleware(limiter *ratelimit.Limiter, proxies TrustedProxies, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + proxies.ClientIP(r)
			if p := GetPrincipalFromContext(r.Context()); p != nil {
				key = "user:" + p.UserID()
			}
			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRateLimit bounds credential attempts per client address
func LoginRateLimit(limiter *ratelimit.Limiter, proxies TrustedProxies, maxAttempts int, window time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := proxies.ClientIP(r)
			if !limiter.AllowStrict("login:"+ip, maxAttempts, window) {
				log.Warn("login rate limit exceeded", slog.String("client_ip", ip), slog.String("path", r.URL.Path))
				writeError(w, http.StatusTooManyRequests, "too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every state-changing request made by a principal
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				p := GetPrincipalFromContext(r.Context())
				auditLog.LogAction(r.Context(),
					audit.Actor{Role: string(p.Role()), UserID: p.UserID()},
					strings.ToLower(r.Method), "api", r.URL.Path, "initiated", "")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID attaches a request ID to the context and response headers and
// logs the completed request
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestid.Header)
			if reqID == "" || len(reqID) > 64 {
				reqID = requestid.New()
			}
			w.Header().Set(requestid.Header, reqID)

			ctx := requestid.With(r.Context(), reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// CORS honors the configured origins and allows credentialed requests
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			} else if len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowed[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// Chain applies middlewares so the first one listed runs first
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// GetPrincipalFromContext returns the authenticated caller or nil
func GetPrincipalFromContext(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(PrincipalContextKey{}).(*domain.Principal); ok {
		return p
	}
	return nil
}

// GetTokenFromContext returns the token the caller authenticated with
func GetTokenFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(TokenContextKey{}).(string); ok {
		return t
	}
	return ""
}

// WithPrincipal stores p in ctx the way Authenticate does
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey{}, p)
}
