// Package container provides dependency injection for the txn-uploader application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"cardflow/txn-uploader/internal/config"
	"cardflow/txn-uploader/internal/extractor"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/pipeline"
	"cardflow/txn-uploader/internal/scanner"
	"cardflow/txn-uploader/internal/store"
	"cardflow/txn-uploader/internal/submitter"
	"cardflow/txn-uploader/internal/tablereader"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation; all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     *store.MappingStore
	scanner   *scanner.FileScanner
	reader    *tablereader.Reader
	extractor *extractor.Extractor
	submitter *submitter.Client
}

// NewContainer creates and wires all application dependencies.
// The mapping file is loaded here; a malformed file is logged and the run
// continues with an empty table that will not be written back.
//
// Parameters:
//   - cfg: Application configuration
//   - logger: Logger to use; nil builds one from cfg
func NewContainer(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	mappingStore := store.NewMappingStore(cfg.Mapping.Path, cfg.Scheme(), logger)
	if err := mappingStore.Load(); err != nil {
		logger.WithError(err).Warn("Continuing with an empty organization mapping",
			logging.Field{Key: logging.FieldMappingFile, Value: cfg.Mapping.Path})
	}

	reader := tablereader.NewReader(logger)
	client := submitter.NewClient(submitter.Config{
		Endpoint:          cfg.Submit.Endpoint,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Submit.RequestsPerSecond,
		DryRun:            cfg.Submit.DryRun,
	}, logger)

	logger.Debug("Container initialized successfully",
		logging.Field{Key: logging.FieldScheme, Value: cfg.Scheme()},
		logging.Field{Key: logging.FieldEndpoint, Value: cfg.Submit.Endpoint},
		logging.Field{Key: "mappings", Value: mappingStore.Len()})

	return &Container{
		logger:    logger,
		config:    cfg,
		store:     mappingStore,
		scanner:   scanner.NewFileScanner(logger),
		reader:    reader,
		extractor: extractor.NewExtractor(reader, cfg.ExtractorOptions(), logger),
		submitter: client,
	}, nil
}

// Orchestrator returns a pipeline rooted at root using the container's stages.
func (c *Container) Orchestrator(root string) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(
		c.scanner,
		c.store,
		c.extractor,
		c.submitter,
		pipeline.Options{
			Root:       root,
			Scheme:     c.config.Scheme(),
			Credential: c.config.Submit.Token,
		},
		c.logger,
	)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the organization mapping store.
func (c *Container) GetStore() *store.MappingStore {
	return c.store
}

// GetExtractor returns the record extractor.
func (c *Container) GetExtractor() *extractor.Extractor {
	return c.extractor
}

// GetSubmitter returns the HTTP submission client.
func (c *Container) GetSubmitter() *submitter.Client {
	return c.submitter
}
