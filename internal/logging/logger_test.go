package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelDebug, FormatJSON)
	l.SetOutput(&buf)

	l.WithComponent("session").
		WithFields(map[string]interface{}{"token": "eyJhbGciOi", "account": "0xabc"}).
		Info("login succeeded")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session", entry.Component)
	assert.Equal(t, "[redacted]", entry.Fields["token"])
	assert.Equal(t, "0xabc", entry.Fields["account"])
	assert.NotContains(t, buf.String(), "eyJhbGciOi")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelWarn, FormatText)
	l.SetOutput(&buf)

	child := l.WithField("k", "v")
	child.Info("hidden")
	assert.Empty(t, buf.String())

	child.Warn("shown")
	assert.Contains(t, buf.String(), "WARN: shown k=v")

	debug := NewLogger(LevelDebug, FormatText)
	debug.SetOutput(&buf)
	buf.Reset()
	debug.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestFromContext(t *testing.T) {
	l := Nop()
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLogLevel("bogus"))
	assert.Equal(t, FormatJSON, ParseLogFormat("json"))
	assert.Equal(t, FormatText, ParseLogFormat("xml"))
}
