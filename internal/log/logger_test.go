package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentWorker, Output: &buf})

	l.Info("Mirror resynced", "count", 3)
	l.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Mirror resynced", rec["msg"])
	assert.Equal(t, ComponentWorker, rec[FieldComponent])
	assert.EqualValues(t, 3, rec["count"])
}

func TestHumanFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: FormatHuman, Output: &buf})
	l.Debug("Session mounted", FieldSessionID, "abc")

	assert.Contains(t, buf.String(), "Session mounted")
	assert.Contains(t, buf.String(), "abc")
	assert.Equal(t, ComponentApp, l.Component())
}

func TestFields(t *testing.T) {
	f := NewFields().
		WithRequest("GET", "/api/transactions", "payer=You", "curl").
		WithResponse(200, 12).
		WithError(errors.New("boom")).
		WithError(nil).
		Add(FieldSessionID, "s1")

	assert.Equal(t, []any{
		FieldMethod, "GET", FieldPath, "/api/transactions", FieldQuery, "payer=You", FieldUserAgent, "curl",
		FieldStatusCode, 200, FieldDuration, int64(12),
		FieldError, "boom",
		FieldSessionID, "s1",
	}, []any(f))
}

func TestRequestContextStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: FormatJSON, Output: &buf})

	ctx := RequestContext(context.Background(), base, "req_1")
	FromContext(ctx).InfoContext(ctx, "handled")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req_1", rec[FieldRequestID])
	assert.Equal(t, ComponentHTTP, rec[FieldComponent])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, ComponentApp, l.Component())
}
