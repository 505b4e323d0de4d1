package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// markup rejected in query values
const markupChars = `<>"'`

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		// bodiless actions such as /release and /read send nothing
		return r.ContentLength != 0
	}
	return false
}

// ValidateJSONContentType answers 415 for POST, PUT and PATCH bodies that are
// not declared as JSON
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				log.Warn("invalid content type",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
				)
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SanitizeInputs rejects path traversal and markup in query parameters
func SanitizeInputs(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.Path, "//") {
				log.Warn("suspicious path pattern detected", slog.String("path", r.URL.Path))
				writeError(w, http.StatusBadRequest, "Invalid path")
				return
			}

			for key, values := range r.URL.Query() {
				for _, val := range values {
					if i := strings.IndexAny(val, markupChars); i >= 0 {
						log.Warn("suspicious input detected",
							slog.String("path", r.URL.Path),
							slog.String("param", key),
							slog.String("pattern", val[i:i+1]),
						)
						writeError(w, http.StatusBadRequest, "Invalid input: dangerous characters detected")
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
