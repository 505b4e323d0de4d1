package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// PaymentsHandler handles invoices and their settlement
type PaymentsHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentsHandler creates a new payments handler
func NewPaymentsHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentsHandler{payments: payments, logger: logger}
}

// InvoiceRequest opens a billing period. Amount defaults to the flat's
// total charges.
type InvoiceRequest struct {
	FlatID string   `json:"flatId" validate:"required"`
	Month  string   `json:"month" validate:"required"`
	Year   string   `json:"year" validate:"required"`
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
}

// PayRequest settles an invoice
type PayRequest struct {
	Method domain.PaymentMethod `json:"method" validate:"required,oneof=online cash"`
}

// Create handles POST /api/v1/payments
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "create invoice", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	payment, err := h.payments.CreateInvoice(r.Context(), p, service.InvoiceInput{
		FlatID: req.FlatID,
		Month:  req.Month,
		Year:   req.Year,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(w, r, h.logger, "create invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// List handles GET /api/v1/payments?status=&flatId=&tenantId=
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.payments.List(r.Context(), middleware.GetPrincipalFromContext(r.Context()), domain.PaymentFilter{
		TenantID: q.Get("tenantId"),
		FlatID:   q.Get("flatId"),
		Status:   domain.PaymentStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, r, h.logger, "list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Get handles GET /api/v1/payments/{id}
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.Get(r.Context(), middleware.GetPrincipalFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "get payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// Pay handles POST /api/v1/payments/{id}/pay
func (h *PaymentsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "pay invoice", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	payment, err := h.payments.Pay(r.Context(), p, r.PathValue("id"), req.Method)
	if err != nil {
		writeError(w, r, h.logger, "pay invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// MarkOverdue handles POST /api/v1/payments/{id}/overdue
func (h *PaymentsHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	payment, err := h.payments.MarkOverdue(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "mark overdue", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
