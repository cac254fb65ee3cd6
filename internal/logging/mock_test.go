package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	mock := NewMockLogger()

	mock.WithField(FieldFolder, "Acme").Warn("organization unresolved")
	mock.WithError(errors.New("boom")).Error("submission failed", F(FieldStatus, 7))
	mock.Info("run finished")

	entries := mock.GetEntries()
	require.Len(t, entries, 3)

	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, []Field{{Key: FieldFolder, Value: "Acme"}}, entries[0].Fields)
	assert.EqualError(t, entries[1].Error, "boom")
	assert.True(t, mock.HasEntry("INFO", "run finished"))
	assert.True(t, mock.HasEntryContaining("ERROR", "submission"))
	assert.Len(t, mock.GetEntriesByLevel("WARN"), 1)

	mock.Clear()
	assert.Empty(t, mock.GetEntries())
}

func TestMockLogger_FieldsDoNotLeakBetweenDerivations(t *testing.T) {
	mock := NewMockLogger()
	base := mock.WithField("a", 1)

	base.WithField("b", 2).Info("first")
	base.WithField("c", 3).Info("second")

	entries := mock.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, []Field{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, entries[0].Fields)
	assert.Equal(t, []Field{{Key: "a", Value: 1}, {Key: "c", Value: 3}}, entries[1].Fields)
}

func TestMockLogger_ZeroValueIsUsable(t *testing.T) {
	var mock MockLogger
	mock.Fatalf("cannot open %s", "root")
	assert.True(t, mock.HasEntry("FATAL", "cannot open root"))
}
