// Package columns maps semantic transaction fields to the headers actually
// present in an export file.
package columns

import "strings"

// Semantic field names.
const (
	FieldDateTime      = "datetime"
	FieldTransactionID = "id_transaction"
	FieldCardNumber    = "card_number"
	FieldTotalPrice    = "total_price"
	FieldTotalDiscount = "total_discount"
)

// Candidates lists accepted header spellings per semantic field, in priority order.
var Candidates = map[string][]string{
	FieldDateTime:      {"date-time_transaction", "datetime_transaction"},
	FieldTransactionID: {"id_transaction"},
	FieldCardNumber:    {"id_card"},
	FieldTotalPrice:    {"total_price"},
	FieldTotalDiscount: {"total_discount"},
}

// Normalize lower-cases a header and drops underscores and spaces.
func Normalize(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, "_", "")
	return strings.ReplaceAll(h, " ", "")
}

// Find returns the first header matching any candidate. Candidates are tried
// in order and, for each, headers in table order.
func Find(headers []string, candidates []string) (string, bool) {
	idx := FindIndex(headers, candidates)
	if idx < 0 {
		return "", false
	}
	return headers[idx], true
}

// FindIndex is Find returning the column position, or -1.
func FindIndex(headers []string, candidates []string) int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}
	for _, candidate := range candidates {
		want := Normalize(candidate)
		for i, h := range normalized {
			if h == want {
				return i
			}
		}
	}
	return -1
}

// Layout is the resolved column position of each semantic field, -1 when absent.
type Layout struct {
	DateTime      int
	TransactionID int
	CardNumber    int
	TotalPrice    int
	TotalDiscount int
}

// Resolve locates every semantic field in headers.
func Resolve(headers []string) Layout {
	return Layout{
		DateTime:      FindIndex(headers, Candidates[FieldDateTime]),
		TransactionID: FindIndex(headers, Candidates[FieldTransactionID]),
		CardNumber:    FindIndex(headers, Candidates[FieldCardNumber]),
		TotalPrice:    FindIndex(headers, Candidates[FieldTotalPrice]),
		TotalDiscount: FindIndex(headers, Candidates[FieldTotalDiscount]),
	}
}

// Missing returns the required fields that did not resolve. The transaction
// id is required only when requireID is set.
func (l Layout) Missing(requireID bool) []string {
	var missing []string
	if requireID && l.TransactionID < 0 {
		missing = append(missing, FieldTransactionID)
	}
	if l.CardNumber < 0 {
		missing = append(missing, FieldCardNumber)
	}
	if l.TotalPrice < 0 {
		missing = append(missing, FieldTotalPrice)
	}
	return missing
}
