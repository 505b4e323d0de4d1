package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/requestid"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// MessageResponse is returned by actions without a resource to show
type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and runs its validate tags. An empty
// body is accepted when allowEmpty is set.
func decode(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return domain.NewValidationError("body", "invalid JSON")
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.NewValidationError(verrs[0].Field(), describe(verrs[0]))
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "numeric":
		return "must be numeric"
	case "gte":
		return "must not be below " + fe.Param()
	default:
		return "is invalid"
	}
}

// statusFor maps a domain error to its HTTP status and public message
func statusFor(err error) (int, ErrorResponse) {
	if verr, ok := domain.IsValidationError(err); ok {
		return http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field}
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrAuthFailure):
		return http.StatusUnauthorized, ErrorResponse{Error: domain.ErrAuthFailure.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden"}
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyPaid):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}

// writeError answers with the status mapped from err. Unexpected errors are
// logged; their text never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status, body := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed",
			slog.String("request_id", requestid.From(r.Context())),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Debug(op+" rejected",
			slog.String("request_id", requestid.From(r.Context())),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, body)
}
