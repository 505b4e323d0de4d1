package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/reliability/circuitbreaker"
)

// Subjects for domain events
const (
	SubjectLogin                   = "rental.auth.login"
	SubjectFlatBooked              = "rental.flat.booked"
	SubjectFlatReleased            = "rental.flat.released"
	SubjectMaintenanceStatusChange = "rental.maintenance.status_changed"
	SubjectPaymentCreated          = "rental.payment.created"
	SubjectPaymentPaid             = "rental.payment.paid"
	SubjectNotificationCreated     = "rental.notification.created"
)

// Envelope is the wire format of every event
type Envelope struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher hands domain events to a broker
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// natsConn is the part of *nats.Conn the publisher needs
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events on core NATS behind a circuit breaker
type NATSPublisher struct {
	conn    natsConn
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
}

// Connect dials url with reconnects enabled. The connection keeps retrying in
// the background, so a broker that is down at startup does not block the server.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("homerental"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("nats publisher ready", slog.String("url", url))
	return newNATSPublisher(conn, logger), nil
}

func newNATSPublisher(conn natsConn, logger *slog.Logger) *NATSPublisher {
	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("event publisher circuit changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &NATSPublisher{conn: conn, breaker: breaker, logger: logger, now: time.Now}
}

// Publish wraps payload in an Envelope and sends it. Failures are counted
// and returned; callers treat events as best effort.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(Envelope{EventType: subject, OccurredAt: p.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.breaker.Execute(func() error {
		return p.conn.Publish(subject, data)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, circuitbreaker.ErrOpen) {
			result = "circuit_open"
		}
		metrics.ObserveEvent(subject, result)
		p.logger.Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	metrics.ObserveEvent(subject, "success")
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher discards events; used when NATS_URL is empty
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, payload any) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }
