package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardflow/txn-uploader/internal/models"
	"cardflow/txn-uploader/internal/pipeline"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *pipeline.RunResult {
	status := 1
	acme := models.NewFolderBatch("Acme", nil)
	acme.Identity = models.NewLegacyIdentity(42)
	acme.Stats = models.FolderStats{FilesProcessed: 2, FilesSucceeded: 1, FilesErrored: 1, RowsExtracted: 3, RowsFailed: 1, Accepted: 2, Duplicates: 1}
	acme.Outcome = models.SubmissionOutcome{Kind: models.OutcomeAccepted, Status: &status, RequestID: "req-1"}

	beta := models.NewFolderBatch("Beta", nil)
	beta.Identity = models.PlaceholderIdentity(models.SchemeLegacy, "Beta")
	beta.Stats = models.FolderStats{FilesProcessed: 1, FilesErrored: 1}
	beta.Outcome = models.SubmissionOutcome{Kind: models.OutcomeTransportError, Err: errors.New("connection refused")}

	result := &pipeline.RunResult{
		RunID:      "run-1",
		Root:       "/data/2024-03-01_2024-03-31",
		Scheme:     models.SchemeLegacy,
		StartedAt:  time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 3, 31, 10, 0, 2, 0, time.UTC),
		Folders:    []*models.FolderBatch{acme, beta},
	}
	result.Totals.Add(acme.Stats)
	result.Totals.Add(beta.Stats)
	return result
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "Folder: Acme (ext_id=42)")
	assert.Contains(t, out, "Folder: Beta (<unresolved>)")
	assert.Contains(t, out, "accepted (status 1)")
	assert.Contains(t, out, "transport-error: connection refused")
	assert.Contains(t, out, "TOTAL (2 folders)")
	assert.Contains(t, out, "Duration:")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "folder,identity,outcome,status"))

	var rows []*FolderRow
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Folder)
	assert.Equal(t, 3, rows[0].RowsExtracted)
	assert.Equal(t, "1", rows[0].Status)
	assert.Equal(t, "connection refused", rows[1].Error)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "reports", "run.json")
	require.NoError(t, WriteFile(jsonPath, sampleResult()))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	totals := decoded["totals"].(map[string]interface{})
	assert.Equal(t, float64(3), totals["files_processed"])

	csvPath := filepath.Join(dir, "run.CSV")
	require.NoError(t, WriteFile(csvPath, sampleResult()))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "folder,"))
}
