// Package scanner discovers the export files placed under the input root.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"
)

// SupportedExtensions are the lower-cased file extensions that are read.
var SupportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// ErrRootNotFound is returned when the input root does not exist.
var ErrRootNotFound = errors.New("input root directory not found")

// FileScanner walks the input root for supported export files.
type FileScanner struct {
	logger logging.Logger
}

// NewFileScanner creates a new FileScanner.
func NewFileScanner(logger logging.Logger) *FileScanner {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &FileScanner{logger: logger.WithField("component", "FileScanner")}
}

// IsSupported reports whether path has a supported extension, ignoring case.
func IsSupported(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Discover returns every supported file under root exactly once, in walk
// order. Each file is attributed to its immediate parent folder.
func (s *FileScanner) Discover(root string) ([]models.FileDescriptor, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Error("Input directory does not exist", logging.F(logging.FieldFile, absRoot))
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", absRoot)
	}

	var files []models.FileDescriptor
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Error walking path")
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsSupported(path) {
			return nil
		}
		files = append(files, models.FileDescriptor{
			Path:      path,
			Folder:    filepath.Base(filepath.Dir(path)),
			Extension: strings.ToLower(filepath.Ext(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", absRoot, err)
	}

	s.logger.Debug("Discovered input files",
		logging.F(logging.FieldCount, len(files)),
		logging.F(logging.FieldFile, absRoot))
	return files, nil
}
