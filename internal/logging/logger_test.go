package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "nonsense", Output: &buf})

	logger.Debug().Msg("debug")
	logger.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"info"`)
}

func TestFromContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Output: &buf})

	userID := uuid.New()
	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), userID)
	assert.Equal(t, "req-1", RequestID(ctx))

	logger := FromContext(ctx, base)
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, userID.String(), entry["user_id"])
}
