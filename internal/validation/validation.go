// Package validation holds the pure checks applied to extracted records and
// to operator-supplied paths.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cardflow/txn-uploader/internal/dateutils"
	"cardflow/txn-uploader/internal/models"
)

// Policy selects which record fields are mandatory.
type Policy struct {
	Scheme               models.Scheme
	RequireTransactionID bool
	Card                 models.CardRule
}

// ValidateTransaction returns nil when the record can be submitted for the
// given identity, or an error naming the first violated rule.
func ValidateTransaction(tx models.Transaction, identity models.Identity, p Policy) error {
	if p.RequireTransactionID && strings.TrimSpace(tx.TransactionID()) == "" {
		return fmt.Errorf("id_transaction is required")
	}
	card := strings.TrimSpace(tx.CardNumber)
	if card == "" {
		return fmt.Errorf("card_number is required")
	}
	if !p.Card.Check(card) {
		return fmt.Errorf("card_number %q does not match the card rule", card)
	}
	if tx.DateTime != nil && !dateutils.IsISO8601(*tx.DateTime) {
		return fmt.Errorf("datetime %q is not ISO-8601", *tx.DateTime)
	}
	if !identity.Matches(p.Scheme) {
		return fmt.Errorf("organization identity is missing or not a %s identity", p.Scheme)
	}
	switch p.Scheme {
	case models.SchemeLegacy:
		if tx.ExtID == nil {
			return fmt.Errorf("ext_id is required")
		}
	case models.SchemeToken:
		if tx.ExtID != nil {
			return fmt.Errorf("ext_id must not be set for token identities")
		}
	}
	return nil
}

// IsValidTransaction is ValidateTransaction as a predicate.
func IsValidTransaction(tx models.Transaction, identity models.Identity, p Policy) bool {
	return ValidateTransaction(tx, identity, p) == nil
}

// IsValidDirectory checks that path exists and is a directory.
func IsValidDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}

// IsValidReportFormat checks the report file extension.
func IsValidReportFormat(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s. Supported formats are '.csv', '.json'", path)
	}
}

// IsValidCardPrefix checks that a configured card prefix is made of digits.
func IsValidCardPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("card prefix must not be empty")
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return fmt.Errorf("card prefix %q must contain digits only", prefix)
		}
	}
	return nil
}
