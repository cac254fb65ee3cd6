package models

import (
	"fmt"
	"strings"

	"cardflow/txn-uploader/internal/ingesterror"

	"github.com/shopspring/decimal"
)

// CardRule describes the accepted shape of a card number.
type CardRule struct {
	Strict bool
	Prefix string
	Length int
}

// DefaultCardRule is the strict 19-character card number starting with 9643.
func DefaultCardRule() CardRule {
	return CardRule{Strict: true, Prefix: "9643", Length: 19}
}

// Check returns false when a non-empty card number violates the rule.
func (r CardRule) Check(card string) bool {
	if !r.Strict {
		return true
	}
	if r.Length > 0 && len(card) != r.Length {
		return false
	}
	return strings.HasPrefix(card, r.Prefix)
}

// TransactionBuilder assembles a Transaction from raw cells of one row. The
// first coercion failure is kept and returned by Build as a RowSkipError.
type TransactionBuilder struct {
	row int
	tx  Transaction
	err error
}

// NewTransactionBuilder starts a record for the given 1-based data row.
func NewTransactionBuilder(row int) *TransactionBuilder {
	return &TransactionBuilder{
		row: row,
		tx: Transaction{
			TotalPrice:    decimal.Zero,
			TotalDiscount: decimal.Zero,
		},
	}
}

func (b *TransactionBuilder) skip(reason ingesterror.SkipReason, value string) {
	b.err = &ingesterror.RowSkipError{Row: b.row, Reason: reason, Value: value}
}

// WithTransactionID sets the trimmed id, or null when blank.
func (b *TransactionBuilder) WithTransactionID(raw string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if id := strings.TrimSpace(raw); id != "" {
		b.tx.IDTransaction = &id
	} else {
		b.tx.IDTransaction = nil
	}
	return b
}

// WithCardNumber sets the trimmed card number and checks it against rule.
func (b *TransactionBuilder) WithCardNumber(raw string, rule CardRule) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	card := strings.TrimSpace(raw)
	if card == "" {
		b.skip(ingesterror.ReasonEmptyCard, raw)
		return b
	}
	if !rule.Check(card) {
		b.skip(ingesterror.ReasonMalformedCard, card)
		return b
	}
	b.tx.CardNumber = card
	return b
}

// WithTotalPrice parses the price cell.
func (b *TransactionBuilder) WithTotalPrice(raw string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	price, err := ParseAmount(raw)
	if err != nil {
		b.skip(ingesterror.ReasonNonNumericPrice, raw)
		return b
	}
	b.tx.TotalPrice = price
	return b
}

// WithTotalDiscount parses the discount cell. Blank means zero; a malformed
// value is zero unless skipMalformed is set.
func (b *TransactionBuilder) WithTotalDiscount(raw string, skipMalformed bool) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(raw) == "" {
		b.tx.TotalDiscount = decimal.Zero
		return b
	}
	discount, err := ParseAmount(raw)
	if err != nil {
		if skipMalformed {
			b.skip(ingesterror.ReasonNonNumericDiscount, raw)
			return b
		}
		discount = decimal.Zero
	}
	b.tx.TotalDiscount = discount
	return b
}

// WithDateTime sets the normalized datetime; an empty value leaves it absent.
func (b *TransactionBuilder) WithDateTime(iso string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if iso == "" {
		b.tx.DateTime = nil
		return b
	}
	b.tx.DateTime = &iso
	return b
}

// WithIdentity embeds the ext id for legacy identities.
func (b *TransactionBuilder) WithIdentity(identity Identity) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if identity.Scheme == SchemeLegacy && identity.ExtID != nil {
		id := *identity.ExtID
		b.tx.ExtID = &id
	} else {
		b.tx.ExtID = nil
	}
	return b
}

// Build returns the record or the first coercion failure.
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, b.err
	}
	if b.tx.CardNumber == "" {
		return Transaction{}, fmt.Errorf("row %d: card number is required", b.row)
	}
	return b.tx, nil
}
