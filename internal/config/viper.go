// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cardflow/txn-uploader/internal/batch"
	"cardflow/txn-uploader/internal/extractor"
	"cardflow/txn-uploader/internal/fileutils"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"
	"cardflow/txn-uploader/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultEndpoint is the ingestion endpoint used when none is configured.
const DefaultEndpoint = "http://localhost:8000/api/v2/uploadTransactions"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Input struct {
		Directory     string `mapstructure:"directory" yaml:"directory"`
		OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
		DateStart     string `mapstructure:"date_start" yaml:"date_start"`
		DateEnd       string `mapstructure:"date_end" yaml:"date_end"`
		CreateMissing bool   `mapstructure:"create_missing" yaml:"create_missing"`
	} `mapstructure:"input" yaml:"input"`

	Mapping struct {
		Path   string `mapstructure:"path" yaml:"path"`
		Scheme string `mapstructure:"scheme" yaml:"scheme"`
	} `mapstructure:"mapping" yaml:"mapping"`

	Submit struct {
		Endpoint          string  `mapstructure:"endpoint" yaml:"endpoint"`
		Token             string  `mapstructure:"token" yaml:"token"`
		TimeoutSeconds    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
		DryRun            bool    `mapstructure:"dry_run" yaml:"dry_run"`
	} `mapstructure:"submit" yaml:"submit"`

	Extract struct {
		CardStrict           bool   `mapstructure:"card_strict" yaml:"card_strict"`
		CardPrefix           string `mapstructure:"card_prefix" yaml:"card_prefix"`
		CardLength           int    `mapstructure:"card_length" yaml:"card_length"`
		DiscountPolicy       string `mapstructure:"discount_policy" yaml:"discount_policy"`
		RequireTransactionID bool   `mapstructure:"require_transaction_id" yaml:"require_transaction_id"`
	} `mapstructure:"extract" yaml:"extract"`
}

// legacyEnv maps configuration keys to the plain environment variable names
// the collector scripts already export.
var legacyEnv = map[string]string{
	"submit.endpoint":  "API_ENDPOINT",
	"submit.token":     "BEARER_TOKEN",
	"input.directory":  "DIRECTORY_PATH",
	"input.output_dir": "OUTPUT_DIR",
	"input.date_start": "DATE_START",
	"input.date_end":   "DATE_END",
	"mapping.path":     "ORG_MAPPING_PATH",
	"log.level":        "LOG_LEVEL",
	"log.format":       "LOG_FORMAT",
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// configFile overrides the search path when set.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.txn-uploader")
		v.AddConfigPath(".txn-uploader")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("TXN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, name := range legacyEnv {
		prefixed := "TXN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Scheme-dependent extraction defaults, unless set explicitly.
	applySchemeDefaults(v, &config)

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Input defaults
	v.SetDefault("input.directory", "")
	v.SetDefault("input.output_dir", ".")
	v.SetDefault("input.date_start", "")
	v.SetDefault("input.date_end", "")
	v.SetDefault("input.create_missing", true)

	// Mapping defaults
	v.SetDefault("mapping.path", "org_mapping.json")
	v.SetDefault("mapping.scheme", string(models.SchemeLegacy))

	// Submission defaults
	v.SetDefault("submit.endpoint", DefaultEndpoint)
	v.SetDefault("submit.token", "")
	v.SetDefault("submit.timeout_seconds", 30)
	v.SetDefault("submit.requests_per_second", 0)
	v.SetDefault("submit.dry_run", false)

	// Extraction defaults; card_strict, discount_policy and
	// require_transaction_id depend on the scheme.
	v.SetDefault("extract.card_prefix", "9643")
	v.SetDefault("extract.card_length", 19)
}

// applySchemeDefaults fills the extraction settings that differ per scheme.
// Legacy exports are permissive: any non-empty card, malformed discounts
// read as zero, and a mandatory transaction id. Token exports use the strict
// card rule and skip rows with a malformed discount.
func applySchemeDefaults(v *viper.Viper, config *Config) {
	scheme, err := models.ParseScheme(config.Mapping.Scheme)
	legacy := err == nil && scheme == models.SchemeLegacy

	if !v.IsSet("extract.card_strict") {
		config.Extract.CardStrict = !legacy
	}
	if !v.IsSet("extract.discount_policy") {
		config.Extract.DiscountPolicy = string(extractor.DiscountSkipRow)
		if legacy {
			config.Extract.DiscountPolicy = string(extractor.DiscountDefaultZero)
		}
	}
	if !v.IsSet("extract.require_transaction_id") {
		config.Extract.RequireTransactionID = legacy
	}
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := models.ParseScheme(config.Mapping.Scheme); err != nil {
		return err
	}
	if strings.TrimSpace(config.Mapping.Path) == "" {
		return fmt.Errorf("mapping.path must not be empty")
	}

	if _, err := extractor.ParseDiscountPolicy(config.Extract.DiscountPolicy); err != nil {
		return err
	}
	if config.Extract.CardStrict {
		if err := validation.IsValidCardPrefix(config.Extract.CardPrefix); err != nil {
			return err
		}
		if config.Extract.CardLength < len(config.Extract.CardPrefix) {
			return fmt.Errorf("extract.card_length %d is shorter than the card prefix", config.Extract.CardLength)
		}
	}

	if config.Submit.TimeoutSeconds < 1 || config.Submit.TimeoutSeconds > 600 {
		return fmt.Errorf("submit.timeout_seconds must be between 1 and 600, got: %d", config.Submit.TimeoutSeconds)
	}
	if config.Submit.RequestsPerSecond < 0 {
		return fmt.Errorf("submit.requests_per_second must not be negative, got: %v", config.Submit.RequestsPerSecond)
	}

	if config.Input.Directory == "" && (config.Input.DateStart != "" || config.Input.DateEnd != "") {
		if _, err := batch.ParseDateRange(config.Input.DateStart, config.Input.DateEnd); err != nil {
			return fmt.Errorf("invalid input date range: %w", err)
		}
	}

	return nil
}

// Scheme returns the validated identity scheme.
func (c *Config) Scheme() models.Scheme {
	scheme, err := models.ParseScheme(c.Mapping.Scheme)
	if err != nil {
		return models.SchemeLegacy
	}
	return scheme
}

// CardRule returns the configured card number rule.
func (c *Config) CardRule() models.CardRule {
	return models.CardRule{
		Strict: c.Extract.CardStrict,
		Prefix: c.Extract.CardPrefix,
		Length: c.Extract.CardLength,
	}
}

// ExtractorOptions assembles the record extraction policy.
func (c *Config) ExtractorOptions() extractor.Options {
	discount, err := extractor.ParseDiscountPolicy(c.Extract.DiscountPolicy)
	if err != nil {
		discount = extractor.DiscountDefaultZero
	}
	return extractor.Options{
		Policy: validation.Policy{
			Scheme:               c.Scheme(),
			RequireTransactionID: c.Extract.RequireTransactionID,
			Card:                 c.CardRule(),
		},
		Discount: discount,
	}
}

// Timeout returns the submission timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Submit.TimeoutSeconds) * time.Second
}

// ResolveRoot returns the input directory: the explicit directory when set,
// otherwise <output_dir>/<date_start>_<date_end>. The directory is created
// when create_missing is on.
func (c *Config) ResolveRoot() (string, error) {
	root := c.Input.Directory
	if root == "" {
		if c.Input.DateStart == "" || c.Input.DateEnd == "" {
			return "", fmt.Errorf("no input directory: set input.directory (DIRECTORY_PATH) or both input.date_start and input.date_end")
		}
		dr, err := batch.ParseDateRange(c.Input.DateStart, c.Input.DateEnd)
		if err != nil {
			return "", err
		}
		root = dr.Directory(c.Input.OutputDir)
	}

	if c.Input.CreateMissing {
		if err := fileutils.EnsureDirectoryExists(root); err != nil {
			return "", err
		}
	}
	return root, nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	out.Submit.Token = models.Redact(c.Submit.Token)
	return out
}

// ConfigureLoggingFromConfig builds the application logger from the Config struct
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
