// Package report renders the run summary for the console and for report files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cardflow/txn-uploader/internal/fileutils"
	"cardflow/txn-uploader/internal/models"
	"cardflow/txn-uploader/internal/pipeline"

	"github.com/gocarina/gocsv"
)

const summaryWidth = 60

// FolderRow is one line of the CSV report.
type FolderRow struct {
	Folder         string `csv:"folder" json:"folder"`
	Identity       string `csv:"identity" json:"identity"`
	Outcome        string `csv:"outcome" json:"outcome"`
	Status         string `csv:"status" json:"status,omitempty"`
	RequestID      string `csv:"request_id" json:"request_id,omitempty"`
	FilesProcessed int    `csv:"files_processed" json:"files_processed"`
	FilesSucceeded int    `csv:"files_succeeded" json:"files_succeeded"`
	FilesErrored   int    `csv:"files_errored" json:"files_errored"`
	RowsExtracted  int    `csv:"rows_extracted" json:"rows_extracted"`
	RowsFailed     int    `csv:"rows_failed" json:"rows_failed"`
	Accepted       int    `csv:"accepted" json:"accepted"`
	Rejected       int    `csv:"rejected" json:"rejected"`
	Duplicates     int    `csv:"duplicates" json:"duplicates"`
	Error          string `csv:"error" json:"error,omitempty"`
}

// Rows flattens a run result into one row per folder.
func Rows(result *pipeline.RunResult) []*FolderRow {
	rows := make([]*FolderRow, 0, len(result.Folders))
	for _, fb := range result.Folders {
		row := &FolderRow{
			Folder:         fb.Folder,
			Identity:       fb.Identity.String(),
			Outcome:        string(fb.Outcome.Kind),
			RequestID:      fb.Outcome.RequestID,
			FilesProcessed: fb.Stats.FilesProcessed,
			FilesSucceeded: fb.Stats.FilesSucceeded,
			FilesErrored:   fb.Stats.FilesErrored,
			RowsExtracted:  fb.Stats.RowsExtracted,
			RowsFailed:     fb.Stats.RowsFailed,
			Accepted:       fb.Stats.Accepted,
			Rejected:       fb.Stats.Rejected,
			Duplicates:     fb.Stats.Duplicates,
		}
		if fb.Outcome.Status != nil {
			row.Status = fmt.Sprintf("%d", *fb.Outcome.Status)
		}
		if fb.Outcome.Err != nil {
			row.Error = fb.Outcome.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteText prints the per-folder and overall summary.
func WriteText(w io.Writer, result *pipeline.RunResult) error {
	var b strings.Builder
	line := strings.Repeat("=", summaryWidth)
	thin := strings.Repeat("-", summaryWidth)

	for _, fb := range result.Folders {
		fmt.Fprintf(&b, "\n%s\nFolder: %s (%s)\n%s\n", line, fb.Folder, fb.Identity.String(), thin)
		writeStats(&b, fb.Stats)
		fmt.Fprintf(&b, "  %-26s %s\n", "Submission:", describeOutcome(fb.Outcome))
		for _, msg := range fb.Outcome.Messages {
			fmt.Fprintf(&b, "    - %s\n", msg)
		}
	}

	fmt.Fprintf(&b, "\n%s\nTOTAL (%d folders)\n%s\n", line, len(result.Folders), thin)
	writeStats(&b, result.Totals)
	if !result.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "  %-26s %s\n", "Duration:", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "%s\n", line)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStats(b *strings.Builder, s models.FolderStats) {
	fmt.Fprintf(b, "  %-26s %d\n", "Files processed:", s.FilesProcessed)
	fmt.Fprintf(b, "  %-26s %d\n", "Files succeeded:", s.FilesSucceeded)
	fmt.Fprintf(b, "  %-26s %d\n", "Files with errors:", s.FilesErrored)
	fmt.Fprintf(b, "  %-26s %d\n", "Transactions extracted:", s.RowsExtracted)
	fmt.Fprintf(b, "  %-26s %d\n", "Transactions failed:", s.RowsFailed)
	fmt.Fprintf(b, "  %-26s %d / %d / %d\n", "Accepted/rejected/dup:", s.Accepted, s.Rejected, s.Duplicates)
}

func describeOutcome(o models.SubmissionOutcome) string {
	desc := string(o.Kind)
	if o.Status != nil {
		desc += fmt.Sprintf(" (status %d)", *o.Status)
	}
	if o.Err != nil {
		desc += ": " + o.Err.Error()
	}
	return desc
}

// WriteCSV writes one row per folder.
func WriteCSV(w io.Writer, result *pipeline.RunResult) error {
	rows := Rows(result)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing CSV report: %w", err)
	}
	return nil
}

type jsonReport struct {
	RunID      string             `json:"run_id"`
	Root       string             `json:"root"`
	Scheme     string             `json:"scheme"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Folders    []*FolderRow       `json:"folders"`
	Totals     models.FolderStats `json:"totals"`
}

// WriteJSON writes the run result as an indented JSON document.
func WriteJSON(w io.Writer, result *pipeline.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		RunID:      result.RunID,
		Root:       result.Root,
		Scheme:     string(result.Scheme),
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Folders:    Rows(result),
		Totals:     result.Totals,
	})
}

// WriteFile writes the report to path, choosing CSV for a .csv extension and
// JSON otherwise.
func WriteFile(path string, result *pipeline.RunResult) error {
	file, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = WriteCSV(file, result)
	} else {
		err = WriteJSON(file, result)
	}
	if err != nil {
		return err
	}
	return file.Close()
}
