package models

import (
	"encoding/json"
	"errors"
	"testing"

	"cardflow/txn-uploader/internal/ingesterror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardRule_Check(t *testing.T) {
	rule := DefaultCardRule()
	tests := []struct {
		card string
		want bool
	}{
		{"9643123456789012345", true},
		{"1111123456789012345", false},
		{"96431234", false},
		{"96431234567890123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.card, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Check(tt.card))
		})
	}

	assert.True(t, CardRule{}.Check("anything"))
}

func TestTransactionBuilder_Build(t *testing.T) {
	tx, err := NewTransactionBuilder(1).
		WithTransactionID("  T1 ").
		WithCardNumber(" 9643123456789012345 ", DefaultCardRule()).
		WithTotalPrice("12.5").
		WithTotalDiscount("", false).
		WithDateTime("2024-01-15T10:30:00").
		WithIdentity(NewLegacyIdentity(42)).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "T1", tx.TransactionID())
	assert.Equal(t, "9643123456789012345", tx.CardNumber)
	assert.True(t, tx.TotalPrice.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, tx.TotalDiscount.IsZero())
	require.NotNil(t, tx.ExtID)
	assert.Equal(t, int64(42), *tx.ExtID)
}

func TestTransactionBuilder_SkipReasons(t *testing.T) {
	tests := []struct {
		name     string
		card     string
		price    string
		discount string
		skipBad  bool
		reason   ingesterror.SkipReason
	}{
		{"empty card", "  ", "1", "", false, ingesterror.ReasonEmptyCard},
		{"malformed card", "1111123456789012345", "1", "", false, ingesterror.ReasonMalformedCard},
		{"text price", "9643123456789012345", "abc", "", false, ingesterror.ReasonNonNumericPrice},
		{"blank price", "9643123456789012345", "", "", false, ingesterror.ReasonNonNumericPrice},
		{"bad discount skipped", "9643123456789012345", "1", "x", true, ingesterror.ReasonNonNumericDiscount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransactionBuilder(3).
				WithCardNumber(tt.card, DefaultCardRule()).
				WithTotalPrice(tt.price).
				WithTotalDiscount(tt.discount, tt.skipBad).
				Build()

			var skipErr *ingesterror.RowSkipError
			require.True(t, errors.As(err, &skipErr))
			assert.Equal(t, tt.reason, skipErr.Reason)
			assert.Equal(t, 3, skipErr.Row)
		})
	}
}

func TestTransactionBuilder_MalformedDiscountDefaultsToZero(t *testing.T) {
	tx, err := NewTransactionBuilder(1).
		WithCardNumber("9643123456789012345", DefaultCardRule()).
		WithTotalPrice("3").
		WithTotalDiscount("n/a", false).
		Build()

	require.NoError(t, err)
	assert.True(t, tx.TotalDiscount.IsZero())
}

func TestTransaction_MarshalJSON(t *testing.T) {
	t.Run("legacy with datetime", func(t *testing.T) {
		tx, err := NewTransactionBuilder(1).
			WithTransactionID("T1").
			WithCardNumber("9643123456789012345", DefaultCardRule()).
			WithTotalPrice("12.50").
			WithTotalDiscount("0.5", false).
			WithDateTime("2024-01-15T10:30:00").
			WithIdentity(NewLegacyIdentity(7)).
			Build()
		require.NoError(t, err)

		data, err := json.Marshal(tx)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"ext_id": 7,
			"datetime": "2024-01-15T10:30:00",
			"id_transaction": "T1",
			"card_number": "9643123456789012345",
			"total_price": 12.5,
			"total_discount": 0.5
		}`, string(data))
	})

	t.Run("token without id", func(t *testing.T) {
		tx, err := NewTransactionBuilder(1).
			WithCardNumber("X", CardRule{}).
			WithTotalPrice("1").
			WithIdentity(NewTokenIdentity("tok", "Acme")).
			Build()
		require.NoError(t, err)

		data, err := json.Marshal(tx)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id_transaction": null, "card_number": "X", "total_price": 1, "total_discount": 0}`, string(data))
	})
}

func TestFolderBatch_Advance(t *testing.T) {
	b := NewFolderBatch("Acme", nil)
	assert.True(t, b.Advance(StateProvisioning))
	assert.True(t, b.Advance(StateSubmitting))
	assert.False(t, b.Advance(StateExtracting))
	assert.Equal(t, StateSubmitting, b.State)
}

func TestFolderStats_Add(t *testing.T) {
	total := FolderStats{FilesProcessed: 1, RowsExtracted: 2}
	total.Add(FolderStats{FilesProcessed: 2, RowsFailed: 1, Accepted: 3})
	assert.Equal(t, FolderStats{FilesProcessed: 3, RowsExtracted: 2, RowsFailed: 1, Accepted: 3}, total)
}
