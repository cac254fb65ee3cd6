package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(base), &buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		level, format string
		expectLevel   logrus.Level
		json          bool
	}{
		{"debug", "text", logrus.DebugLevel, false},
		{"INFO", "json", logrus.InfoLevel, true},
		{"warn", "TEXT", logrus.WarnLevel, false},
		{"error", "json", logrus.ErrorLevel, true},
		{"loud", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			adapter, ok := NewLogrusAdapter(tt.level, tt.format).(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.json, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	adapter, ok := NewLogrusAdapterFromLogger(nil).(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_LevelsAndFields(t *testing.T) {
	logger, buf := bufferedAdapter(logrus.DebugLevel)

	logger.Debug("row skipped", F(FieldRow, 7), F(FieldReason, "empty-card"))
	logger.Info("folder submitted", F(FieldFolder, "Acme"))
	logger.Warn("organization identity missing", F(FieldFolder, "Beta"))
	logger.Error("batch not delivered", F(FieldHTTPStatus, 502))

	out := buf.String()
	for _, want := range []string{
		"level=debug", "row skipped", "row=7", "reason=empty-card",
		"level=info", "folder=Acme",
		"level=warning", "folder=Beta",
		"level=error", "http_status=502",
	} {
		assert.Contains(t, out, want)
	}
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	logger, buf := bufferedAdapter(logrus.WarnLevel)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusAdapter_DerivedLoggers(t *testing.T) {
	logger, buf := bufferedAdapter(logrus.InfoLevel)

	logger.
		WithField(FieldRunID, "run-1").
		WithFields(F(FieldFolder, "Acme"), F(FieldCount, 3)).
		WithError(errors.New("connection refused")).
		Error("submission failed")

	out := buf.String()
	assert.Contains(t, out, "submission failed")
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "folder=Acme")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "connection refused")

	buf.Reset()
	logger.Info("parent unchanged")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestConvertFields(t *testing.T) {
	assert.Empty(t, convertFields(nil))

	fields := convertFields([]Field{F(FieldFile, "a.csv"), F(FieldCount, 42), F("ok", true)})
	assert.Equal(t, logrus.Fields{"file_path": "a.csv", "count": 42, "ok": true}, fields)
}

func TestNewLogrusAdapterWithOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("debug", "json", &buf)

	logger.Debug("folder scanned", F(FieldFolder, "Acme"), F(FieldCount, 2))

	output := buf.String()
	assert.Contains(t, output, `"msg":"folder scanned"`)
	assert.Contains(t, output, `"folder":"Acme"`)
	assert.Contains(t, output, `"count":2`)
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
}
