package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/service"
)

// NotificationsHandler handles broadcasts and the tenant inbox
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

// BroadcastRequest is an admin message to every housed tenant or one flat
type BroadcastRequest struct {
	Title     string                  `json:"title" validate:"required"`
	Message   string                  `json:"message" validate:"required"`
	Type      domain.NotificationType `json:"type" validate:"omitempty,oneof=bill maintenance message"`
	Recipient service.Recipient       `json:"recipient" validate:"omitempty,oneof=all flat"`
	FlatID    string                  `json:"flatId" validate:"required_if=Recipient flat"`
}

// BroadcastResponse reports how many tenants were reached
type BroadcastResponse struct {
	Delivered     int                    `json:"delivered"`
	Notifications []*domain.Notification `json:"notifications"`
}

// Broadcast handles POST /api/v1/notifications
func (h *NotificationsHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, r, h.logger, "broadcast", err)
		return
	}

	p := middleware.GetPrincipalFromContext(r.Context())
	created, err := h.notifications.Broadcast(r.Context(), p, service.BroadcastInput{
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		Recipient: req.Recipient,
		FlatID:    req.FlatID,
	})
	if err != nil {
		writeError(w, r, h.logger, "broadcast", err)
		return
	}
	writeJSON(w, http.StatusCreated, BroadcastResponse{Delivered: len(created), Notifications: created})
}

// List handles GET /api/v1/notifications?unread=true
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	unread := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, h.logger, "list notifications", domain.NewValidationError("unread", "must be a boolean"))
			return
		}
		unread = v
	}

	list, err := h.notifications.List(r.Context(), middleware.GetPrincipalFromContext(r.Context()), unread)
	if err != nil {
		writeError(w, r, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkRead(r.Context(), middleware.GetPrincipalFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "mark read", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
