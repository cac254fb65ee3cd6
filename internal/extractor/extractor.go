// Package extractor turns the rows of one export file into transaction records.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"cardflow/txn-uploader/internal/columns"
	"cardflow/txn-uploader/internal/dateutils"
	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"
	"cardflow/txn-uploader/internal/tablereader"
	"cardflow/txn-uploader/internal/validation"
)

// DiscountPolicy decides what happens to a row whose discount cell is not a number.
type DiscountPolicy string

const (
	// DiscountDefaultZero keeps the row with a zero discount.
	DiscountDefaultZero DiscountPolicy = "default_zero"
	// DiscountSkipRow drops the row.
	DiscountSkipRow DiscountPolicy = "skip_row"
)

// ParseDiscountPolicy converts a configuration value to a DiscountPolicy.
func ParseDiscountPolicy(value string) (DiscountPolicy, error) {
	switch p := DiscountPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case DiscountDefaultZero, DiscountSkipRow:
		return p, nil
	case "":
		return DiscountDefaultZero, nil
	default:
		return "", fmt.Errorf("unknown discount policy %q (must be 'default_zero' or 'skip_row')", value)
	}
}

// Options configure record extraction.
type Options struct {
	Policy   validation.Policy
	Discount DiscountPolicy
}

// Result holds the records of one file and its row counters.
type Result struct {
	Records   []models.Transaction
	Extracted int
	Failed    int
	Skipped   map[ingesterror.SkipReason]int
}

// Extractor reads files and converts their rows.
type Extractor struct {
	reader *tablereader.Reader
	opts   Options
	logger logging.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(reader *tablereader.Reader, opts Options, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if reader == nil {
		reader = tablereader.NewReader(logger)
	}
	if opts.Discount == "" {
		opts.Discount = DiscountDefaultZero
	}
	return &Extractor{reader: reader, opts: opts, logger: logger}
}

// Extract reads path and returns the records valid for identity. An
// unreadable file or missing required columns yields an empty Result and
// a typed error; a bad row only increments Failed.
func (e *Extractor) Extract(path string, identity models.Identity) (Result, error) {
	log := e.logger.WithField(logging.FieldFile, path)

	table, err := e.reader.Read(path)
	if err != nil {
		log.WithError(err).Error("Failed to read file")
		return Result{}, err
	}

	layout := columns.Resolve(table.Headers)
	if missing := layout.Missing(e.opts.Policy.RequireTransactionID); len(missing) > 0 {
		err := &ingesterror.MissingColumnsError{FilePath: path, Fields: missing}
		log.Error("Missing required columns",
			logging.F("missing", strings.Join(missing, ", ")),
			logging.F("headers", strings.Join(table.Headers, ", ")))
		return Result{}, err
	}
	if layout.DateTime < 0 {
		log.Debug("No datetime column, records will carry no datetime")
	}

	result := Result{Skipped: make(map[ingesterror.SkipReason]int)}
	for i, row := range table.Rows {
		tx, err := e.convertRow(i+1, row, layout, identity, log)
		if err != nil {
			result.Failed++
			var skip *ingesterror.RowSkipError
			if errors.As(err, &skip) {
				result.Skipped[skip.Reason]++
			}
			log.Warn("Skipping row",
				logging.F(logging.FieldRow, i+1),
				logging.F(logging.FieldReason, err.Error()))
			continue
		}
		result.Records = append(result.Records, tx)
		result.Extracted++
	}

	log.Info("File extracted",
		logging.F("extracted", result.Extracted),
		logging.F("failed", result.Failed))
	return result, nil
}

func (e *Extractor) convertRow(rowNum int, row []string, layout columns.Layout, identity models.Identity, log logging.Logger) (models.Transaction, error) {
	builder := models.NewTransactionBuilder(rowNum).
		WithTransactionID(tablereader.Cell(row, layout.TransactionID)).
		WithCardNumber(tablereader.Cell(row, layout.CardNumber), e.opts.Policy.Card).
		WithTotalPrice(tablereader.Cell(row, layout.TotalPrice)).
		WithIdentity(identity)

	if layout.TotalDiscount >= 0 {
		builder = builder.WithTotalDiscount(tablereader.Cell(row, layout.TotalDiscount), e.opts.Discount == DiscountSkipRow)
	}

	if layout.DateTime >= 0 {
		raw := tablereader.Cell(row, layout.DateTime)
		if iso, ok := dateutils.Normalize(raw); ok {
			builder = builder.WithDateTime(iso)
		} else if raw != "" {
			log.Warn("Could not parse datetime, leaving it empty",
				logging.F(logging.FieldRow, rowNum),
				logging.F("value", raw))
		}
	}

	tx, err := builder.Build()
	if err != nil {
		return models.Transaction{}, err
	}

	if err := validation.ValidateTransaction(tx, identity, e.opts.Policy); err != nil {
		return models.Transaction{}, &ingesterror.RowSkipError{
			Row:    rowNum,
			Reason: ingesterror.ReasonFailedValidation,
			Value:  err.Error(),
		}
	}
	return tx, nil
}
