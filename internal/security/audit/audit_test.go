package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/requestid"
)

func TestLogAction_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := requestid.With(context.Background(), "req-1")
	al.LogCodeSent(ctx, Actor{Role: "admin", UserID: "a1"}, "f1", "t1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "audit", rec["log_type"])
	assert.Equal(t, "send_login_code", rec["action"])
	assert.Equal(t, "f1", rec["resource_id"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "a1", rec["actor_id"])
}
