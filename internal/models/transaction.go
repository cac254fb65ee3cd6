package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized record ready for submission.
type Transaction struct {
	IDTransaction *string
	CardNumber    string
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	DateTime      *string
	// ExtID is set for the legacy scheme only; token submissions bind to the
	// folder through the request credential.
	ExtID *int64
}

// MarshalJSON writes the wire layout expected by the ingestion endpoint.
// Amounts are emitted as JSON numbers, not strings.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if t.ExtID != nil {
		fmt.Fprintf(&buf, `"ext_id":%d,`, *t.ExtID)
	}
	if t.DateTime != nil {
		if err := writeField(&buf, "datetime", *t.DateTime); err != nil {
			return nil, err
		}
	}
	if t.IDTransaction != nil {
		if err := writeField(&buf, "id_transaction", *t.IDTransaction); err != nil {
			return nil, err
		}
	} else {
		buf.WriteString(`"id_transaction":null,`)
	}
	if err := writeField(&buf, "card_number", t.CardNumber); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `"total_price":%s,"total_discount":%s}`, t.TotalPrice.String(), t.TotalDiscount.String())
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	buf.WriteString(`"` + key + `":`)
	buf.Write(encoded)
	buf.WriteByte(',')
	return nil
}

// TransactionID returns the transaction id or an empty string.
func (t Transaction) TransactionID() string {
	if t.IDTransaction == nil {
		return ""
	}
	return *t.IDTransaction
}

// ParseAmount parses a numeric cell. Blank and non-numeric input is an error;
// decimal has no NaN or infinity so every parsed value is finite.
func ParseAmount(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': %w", raw, err)
	}
	return dec, nil
}
