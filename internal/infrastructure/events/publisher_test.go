package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/reliability/circuitbreaker"
)

type fakeConn struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error { return nil }

func TestNATSPublisher_WrapsPayloadInEnvelope(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, slog.Default())
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	require.NoError(t, p.Publish(context.Background(), SubjectFlatBooked, map[string]string{"flat_id": "f1"}))
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, SubjectFlatBooked, conn.subjects[0])

	var env struct {
		EventType  string            `json:"event_type"`
		OccurredAt time.Time         `json:"occurred_at"`
		Payload    map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(conn.payloads[0], &env))
	assert.Equal(t, SubjectFlatBooked, env.EventType)
	assert.True(t, fixed.Equal(env.OccurredAt))
	assert.Equal(t, "f1", env.Payload["flat_id"])
}

func TestNATSPublisher_OpensCircuitAfterFailures(t *testing.T) {
	conn := &fakeConn{err: errors.New("no responders")}
	p := newNATSPublisher(conn, slog.Default())

	for i := 0; i < 5; i++ {
		assert.Error(t, p.Publish(context.Background(), SubjectLogin, nil))
	}
	err := p.Publish(context.Background(), SubjectLogin, nil)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), SubjectLogin, "x"))
	assert.NoError(t, p.Close())
}
