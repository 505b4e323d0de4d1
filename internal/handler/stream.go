package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/notify"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// StreamHandler pushes new notifications to a WebSocket as they are created.
// Tenants receive their own; admins receive every notification.
type StreamHandler struct {
	hub            *notify.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewStreamHandler creates a new notification stream handler
func NewStreamHandler(hub *notify.Hub, logger *slog.Logger, allowedOrigins []string) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{hub: hub, logger: logger, allowedOrigins: allowedOrigins}
}

func (h *StreamHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/notifications
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	tenantID := ""
	if !p.IsAdmin() {
		tenantID = p.UserID()
	}
	sub, cancel := h.hub.Subscribe(tenantID)
	defer cancel()

	h.logger.Debug("notification stream opened",
		slog.String("user_id", p.UserID()),
		slog.String("subscription_id", sub.ID),
	)

	if err := h.pump(ws, sub); err != nil {
		h.logger.Debug("notification stream ended",
			slog.String("subscription_id", sub.ID),
			slog.String("reason", err.Error()),
		)
	}
}

// pump writes notifications and heartbeats until the client goes away
func (h *StreamHandler) pump(ws *websocket.Conn, sub *notify.Subscription) error {
	// the read side only exists to notice the peer closing
	closed := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				closed <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := h.send(ws, n); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("subscription_id", sub.ID))
				}
				return err
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		case err := <-closed:
			return err
		}
	}
}

func (h *StreamHandler) send(ws *websocket.Conn, n *domain.Notification) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ws.WriteJSON(n)
}
