package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))

	l.Warn("job.stage.failed", "job_id", "j1")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job.stage.failed", line["msg"])
	assert.Equal(t, "j1", line["job_id"])

	buf.Reset()
	l = NewLogger(LogConfig{Level: "nonsense"}, &buf)
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestJobLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	JobLogger(context.Background(), base).Info("resolve.persist.ok")
	assert.NotContains(t, buf.String(), "job_id=")

	buf.Reset()
	JobLogger(WithJobID(context.Background(), "j-42"), base).Info("resolve.persist.ok")
	assert.Contains(t, buf.String(), "job_id=j-42")
}
