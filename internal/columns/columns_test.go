package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name       string
		headers    []string
		candidates []string
		want       string
		found      bool
	}{
		{
			name:       "hyphenated header",
			headers:    []string{"date-time_transaction", "id_card"},
			candidates: Candidates[FieldDateTime],
			want:       "date-time_transaction",
			found:      true,
		},
		{
			name:       "upper case with spaces",
			headers:    []string{"DATETIME TRANSACTION"},
			candidates: Candidates[FieldDateTime],
			want:       "DATETIME TRANSACTION",
			found:      true,
		},
		{
			name:       "underscores removed",
			headers:    []string{"datetimetransaction"},
			candidates: Candidates[FieldDateTime],
			want:       "datetimetransaction",
			found:      true,
		},
		{
			name:       "first candidate wins over table order",
			headers:    []string{"datetime_transaction", "date-time_transaction"},
			candidates: Candidates[FieldDateTime],
			want:       "date-time_transaction",
			found:      true,
		},
		{
			name:       "no match",
			headers:    []string{"amount"},
			candidates: Candidates[FieldTotalPrice],
			found:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Find(tt.headers, tt.candidates)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	layout := Resolve([]string{"ID Card", "Total Price", "Id_Transaction"})
	assert.Equal(t, 0, layout.CardNumber)
	assert.Equal(t, 1, layout.TotalPrice)
	assert.Equal(t, 2, layout.TransactionID)
	assert.Equal(t, -1, layout.DateTime)
	assert.Equal(t, -1, layout.TotalDiscount)
	assert.Empty(t, layout.Missing(true))
}

func TestLayout_Missing(t *testing.T) {
	layout := Resolve([]string{"total_price"})
	assert.Equal(t, []string{FieldTransactionID, FieldCardNumber}, layout.Missing(true))
	assert.Equal(t, []string{FieldCardNumber}, layout.Missing(false))
}
