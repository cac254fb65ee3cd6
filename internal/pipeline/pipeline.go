// Package pipeline drives one ingestion run: discover files, group them by
// organization folder, resolve identities, extract records, submit each
// folder batch and accumulate statistics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"cardflow/txn-uploader/internal/batch"
	"cardflow/txn-uploader/internal/extractor"
	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"

	"github.com/google/uuid"
)

// Discoverer lists the input files under a root directory.
type Discoverer interface {
	Discover(root string) ([]models.FileDescriptor, error)
}

// MappingStore resolves and provisions organization identities.
type MappingStore interface {
	Resolve(folder string) (models.Identity, bool)
	EnsureProvisioned(folder string) (bool, error)
}

// FileExtractor converts one file into records.
type FileExtractor interface {
	Extract(path string, identity models.Identity) (extractor.Result, error)
}

// Submitter sends one folder batch.
type Submitter interface {
	Submit(ctx context.Context, records []models.Transaction, credential string) models.SubmissionOutcome
}

// Options configure a run.
type Options struct {
	Root   string
	Scheme models.Scheme
	// Credential is the bearer token used for legacy identities; token
	// identities carry their own.
	Credential string
}

// RunResult is the outcome of one run.
type RunResult struct {
	RunID      string
	Root       string
	Scheme     models.Scheme
	StartedAt  time.Time
	FinishedAt time.Time
	Folders    []*models.FolderBatch
	Totals     models.FolderStats
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	discoverer Discoverer
	aggregator *batch.BatchAggregator
	store      MappingStore
	extractor  FileExtractor
	submitter  Submitter
	opts       Options
	logger     logging.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	discoverer Discoverer,
	store MappingStore,
	fileExtractor FileExtractor,
	submitter Submitter,
	opts Options,
	logger logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Orchestrator{
		discoverer: discoverer,
		aggregator: batch.NewBatchAggregator(logger),
		store:      store,
		extractor:  fileExtractor,
		submitter:  submitter,
		opts:       opts,
		logger:     logger,
	}
}

// Run processes every folder under the root sequentially. Only a missing or
// unreadable root, or a cancelled context, returns an error; per-folder
// failures are recorded in the result.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New().String(),
		Root:      o.opts.Root,
		Scheme:    o.opts.Scheme,
		StartedAt: time.Now(),
	}
	log := o.logger.WithField(logging.FieldRunID, result.RunID)
	defer func() {
		result.FinishedAt = time.Now()
	}()

	files, err := o.discoverer.Discover(o.opts.Root)
	if err != nil {
		log.WithError(err).Error("Cannot scan input directory")
		return result, fmt.Errorf("discover files: %w", err)
	}
	if len(files) == 0 {
		log.Warn("No supported files found", logging.F(logging.FieldFile, o.opts.Root))
	}

	for _, group := range o.aggregator.GroupByFolder(files) {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Run cancelled, remaining folders skipped")
			return result, err
		}
		folderBatch := o.processFolder(ctx, group, log.WithField(logging.FieldFolder, group.Folder))
		result.Folders = append(result.Folders, folderBatch)
		result.Totals.Add(folderBatch.Stats)
	}

	log.Info("Run finished",
		logging.F("folders", len(result.Folders)),
		logging.F("files", result.Totals.FilesProcessed),
		logging.F("extracted", result.Totals.RowsExtracted),
		logging.F("failed", result.Totals.RowsFailed),
		logging.F("accepted", result.Totals.Accepted),
		logging.F("rejected", result.Totals.Rejected),
		logging.F("duplicates", result.Totals.Duplicates))
	return result, nil
}

func (o *Orchestrator) processFolder(ctx context.Context, group batch.FolderGroup, log logging.Logger) *models.FolderBatch {
	fb := models.NewFolderBatch(group.Folder, group.Files)

	fb.Advance(models.StateProvisioning)
	if added, err := o.store.EnsureProvisioned(group.Folder); err != nil {
		log.WithError(err).Error("Could not save organization mapping, continuing with the in-memory table")
	} else if added {
		log.Info("New organization folder, placeholder mapping created")
	}
	identity, found := o.store.Resolve(group.Folder)
	fb.Identity = identity
	fb.Resolved = found && identity.Matches(o.opts.Scheme)

	fb.Advance(models.StateExtracting)
	if !fb.Resolved {
		uerr := &ingesterror.OrganizationUnresolvedError{Folder: group.Folder}
		log.WithError(uerr).Warn("Organization identity missing, skipping folder files",
			logging.F(logging.FieldCount, len(group.Files)))
		fb.Stats.FilesProcessed = len(group.Files)
		fb.Stats.FilesErrored = len(group.Files)
	} else {
		for _, file := range group.Files {
			o.extractFile(fb, file, log)
		}
		o.aggregator.DetectDuplicates(fb.Records, fb.Folder)
	}

	fb.Advance(models.StateSubmitting)
	fb.Outcome = o.submitter.Submit(ctx, fb.Records, o.credential(identity))
	fb.Stats.Add(fb.Outcome.Stats())
	if fb.Outcome.IsError() {
		log.WithError(fb.Outcome.Err).Error("Folder batch not delivered",
			logging.F(logging.FieldStatus, string(fb.Outcome.Kind)))
	}

	fb.Advance(models.StateReported)
	log.Info("Folder processed",
		logging.F("files", fb.Stats.FilesProcessed),
		logging.F("succeeded", fb.Stats.FilesSucceeded),
		logging.F("errored", fb.Stats.FilesErrored),
		logging.F("extracted", fb.Stats.RowsExtracted),
		logging.F("failed", fb.Stats.RowsFailed),
		logging.F(logging.FieldStatus, string(fb.Outcome.Kind)))
	return fb
}

// extractFile applies the file success rule: a file succeeds when it
// produced records or had no data rows at all.
func (o *Orchestrator) extractFile(fb *models.FolderBatch, file models.FileDescriptor, log logging.Logger) {
	fb.Stats.FilesProcessed++
	fileLog := log.WithField(logging.FieldFile, filepath.Base(file.Path))

	result, err := o.extractor.Extract(file.Path, fb.Identity)
	if err != nil {
		fb.Stats.FilesErrored++
		var missing *ingesterror.MissingColumnsError
		if errors.As(err, &missing) {
			fileLog.Warn("File skipped, required columns missing")
		} else {
			fileLog.WithError(err).Warn("File skipped")
		}
		return
	}

	if result.Extracted > 0 || result.Failed == 0 {
		fb.Stats.FilesSucceeded++
	} else {
		fb.Stats.FilesErrored++
	}
	fb.Stats.RowsExtracted += result.Extracted
	fb.Stats.RowsFailed += result.Failed
	fb.Records = append(fb.Records, result.Records...)
}

func (o *Orchestrator) credential(identity models.Identity) string {
	if o.opts.Scheme == models.SchemeToken {
		return identity.Token
	}
	return o.opts.Credential
}
