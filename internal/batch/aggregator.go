// Package batch groups discovered files into per-organization folder batches
// and resolves the date-range input directory.
package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cardflow/txn-uploader/internal/dateutils"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates. The end must not precede the start.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := dateutils.ParseDay(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start date: %w", err)
	}
	e, err := dateutils.ParseDay(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end date: %w", err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Directory returns the folder under base where the collector drops the
// files for this range.
func (dr DateRange) Directory(base string) string {
	return filepath.Join(base, dr.String())
}

// FolderGroup holds the files of one organization folder.
type FolderGroup struct {
	Folder string
	Files  []models.FileDescriptor
}

// BatchAggregator groups files by organization folder.
type BatchAggregator struct {
	logger logging.Logger
}

// NewBatchAggregator creates a new BatchAggregator instance
func NewBatchAggregator(logger logging.Logger) *BatchAggregator {
	return &BatchAggregator{
		logger: logger,
	}
}

// GroupByFolder groups files by their parent folder name. Groups appear in
// the order their first file was seen and keep file order within a group.
func (ba *BatchAggregator) GroupByFolder(files []models.FileDescriptor) []FolderGroup {
	var groups []FolderGroup
	index := make(map[string]int)

	for _, file := range files {
		i, exists := index[file.Folder]
		if !exists {
			i = len(groups)
			index[file.Folder] = i
			groups = append(groups, FolderGroup{Folder: file.Folder})
		}
		groups[i].Files = append(groups[i].Files, file)

		ba.logger.Debug("File mapped to folder",
			logging.Field{Key: logging.FieldFile, Value: filepath.Base(file.Path)},
			logging.Field{Key: logging.FieldFolder, Value: file.Folder})
	}

	return groups
}

// DetectDuplicates logs transaction ids that appear more than once in a
// batch. Records are kept; the remote side decides.
func (ba *BatchAggregator) DetectDuplicates(records []models.Transaction, folder string) int {
	seen := make(map[string]int)
	duplicateCount := 0

	for _, tx := range records {
		id := strings.TrimSpace(tx.TransactionID())
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			duplicateCount++
			ba.logger.Warn("Duplicate transaction id within batch",
				logging.Field{Key: logging.FieldFolder, Value: folder},
				logging.Field{Key: logging.FieldTransactionID, Value: id})
		}
	}

	if duplicateCount > 0 {
		ba.logger.Warn("Found duplicate transaction ids",
			logging.Field{Key: logging.FieldCount, Value: duplicateCount},
			logging.Field{Key: logging.FieldFolder, Value: folder})
	}
	return duplicateCount
}
