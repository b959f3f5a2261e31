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
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentDataset, Output: &buf})

	logger.Info("Dataset loaded", FieldRecords, 731)
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Dataset loaded", rec["msg"])
	assert.Equal(t, ComponentDataset, rec[FieldComponent])
	assert.Equal(t, float64(731), rec[FieldRecords])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	base.WithComponent(ComponentChart).Warn("slow render")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ComponentChart, rec[FieldComponent])
	assert.Equal(t, ComponentApp, base.Component())
}

func TestFieldsToSliceIsOrdered(t *testing.T) {
	got := NewFields().
		WithRange("2011-01-01", "2011-12-31").
		WithError(errors.New("bad")).
		WithOperation(OpFilter).
		ToSlice()
	assert.Equal(t, []any{
		FieldRangeEnd, "2011-12-31",
		FieldError, "bad",
		FieldOperation, OpFilter,
		FieldRangeStart, "2011-01-01",
	}, got)
}

func TestContextCarriesLogger(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentHTTP)
	got := FromContext(NewContext(context.Background(), logger))

	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
