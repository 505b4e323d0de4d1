package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/requestid"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/ratelimit"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubResolver map[string]*domain.Principal

func (s stubResolver) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, errors.New("session not found")
}

func principal(role domain.Role, id string) *domain.Principal {
	return &domain.Principal{Session: &domain.Session{ID: "s-" + id, Role: role, UserID: id}}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r, "token"))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r, "token"))

	r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", TokenFromRequest(r, "token"))

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(bad, "token"))
}

func TestAuthenticate(t *testing.T) {
	tenant := principal(domain.RoleTenant, "tenant-001")
	var seen *domain.Principal
	var seenToken string
	h := Authenticate(stubResolver{"good": tenant}, "token", quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipalFromContext(r.Context())
		seenToken = GetTokenFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"unknown session", "Bearer stale", http.StatusUnauthorized},
		{"live session", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/flats", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Same(t, tenant, seen)
	assert.Equal(t, "good", seenToken)
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(security.NewAuthorizationService(quiet), security.PermManageFlats, audit.NewLogger(quiet))(okHandler)

	serve := func(p *domain.Principal) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/flats", nil)
		r = r.WithContext(WithPrincipal(r.Context(), p))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve(principal(domain.RoleAdmin, "admin-001")))
	assert.Equal(t, http.StatusForbidden, serve(principal(domain.RoleTenant, "tenant-001")))
	assert.Equal(t, http.StatusForbidden, serve(nil))
}

func TestLoginRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()
	h := LoginRateLimit(limiter, nil, 2, time.Minute, quiet)(okHandler)

	// a rotating forwarded header from an untrusted peer does not buy attempts
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/tenant/login", nil)
		r.RemoteAddr = "203.0.113.9:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	// other clients keep their own budget
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/tenant/login", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRateLimit_BehindTrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.1.0.0/16"})
	require.NoError(t, err)
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()
	h := LoginRateLimit(limiter, proxies, 1, time.Minute, quiet)(okHandler)

	serve := func(forwarded string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/tenant/login", nil)
		r.RemoteAddr = "10.1.2.3:8080"
		r.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("198.51.100.4"))
	assert.Equal(t, http.StatusTooManyRequests, serve("198.51.100.4"))
	// a client-supplied prefix is ignored, the proxy appended the real address
	assert.Equal(t, http.StatusTooManyRequests, serve("1.2.3.4, 198.51.100.4"))
	assert.Equal(t, http.StatusOK, serve("198.51.100.5"))
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "::1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		proxies   TrustedProxies
		remote    string
		forwarded string
		want      string
	}{
		{"no proxies ignores header", nil, "203.0.113.9:4000", "1.2.3.4", "203.0.113.9"},
		{"untrusted peer ignores header", proxies, "203.0.113.9:4000", "1.2.3.4", "203.0.113.9"},
		{"trusted peer", proxies, "10.0.0.2:80", "198.51.100.4", "198.51.100.4"},
		{"skips trusted hops", proxies, "10.0.0.2:80", "198.51.100.4, 10.0.0.3", "198.51.100.4"},
		{"rightmost untrusted wins", proxies, "10.0.0.2:80", "1.2.3.4, 198.51.100.4", "198.51.100.4"},
		{"garbage hop", proxies, "10.0.0.2:80", "not-an-ip", "10.0.0.2"},
		{"trusted without header", proxies, "[::1]:80", "", "::1"},
		{"bare remote addr", nil, "203.0.113.9", "", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, tt.proxies.ClientIP(r))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{" 192.168.1.7 ", "", "172.16.0.0/12"})
	require.NoError(t, err)
	assert.Len(t, proxies, 2)

	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.ErrorContains(t, err, "proxy.internal")
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestRateLimitMiddleware_KeysByUser(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter, nil, quiet)(okHandler)

	serve := func(p *domain.Principal) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/flats", nil)
		if p != nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve(principal(domain.RoleTenant, "tenant-001")))
	assert.Equal(t, http.StatusTooManyRequests, serve(principal(domain.RoleTenant, "tenant-001")))
	assert.Equal(t, http.StatusOK, serve(principal(domain.RoleTenant, "tenant-002")))
}

func TestRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("ledger exploded") })

	for _, production := range []bool{false, true} {
		w := httptest.NewRecorder()
		Recovery(quiet, production)(boom).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var body panicResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		if production {
			assert.Equal(t, "internal server error", body.Error)
			assert.Nil(t, body.Stack)
		} else {
			assert.Equal(t, "ledger exploded", body.Error)
			require.NotNil(t, body.Stack)
			assert.NotEmpty(t, *body.Stack)
		}
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/flats", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/api/v1/flats", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType(quiet)(okHandler)

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusOK},
		{"empty post passes", http.MethodPost, "", "", http.StatusOK},
		{"json post", http.MethodPost, `{"a":1}`, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, "a=1", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			r := httptest.NewRequest(tt.method, "/api/v1/flats", body)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSanitizeInputs(t *testing.T) {
	h := SanitizeInputs(quiet)(okHandler)

	serve := func(target string) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("/api/v1/flats?status=available"))
	assert.Equal(t, http.StatusBadRequest, serve("/api/v1/flats?status=%3Cscript%3E"))
	assert.Equal(t, http.StatusBadRequest, serve("/api/v1/flats/..%2Fadmin"))
}

func TestRequestID(t *testing.T) {
	var inner string
	h := RequestID(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = requestid.From(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(requestid.Header, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "req-42", w.Header().Get(requestid.Header))
	assert.Equal(t, "req-42", inner)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(requestid.Header))
	assert.NotEqual(t, "req-42", w.Header().Get(requestid.Header))
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { order = append(order, "handler") }),
		tag("first"), tag("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
