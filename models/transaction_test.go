package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionItemsRoundTrip(t *testing.T) {
	items := []TransactionItem{
		{ProductID: 1, ProductName: "Vermicast 5kg", Quantity: 3, Price: NewMoney(decimal.RequireFromString("25.00"))},
		{ProductID: 9, ProductName: "Seedling tray", Quantity: 1, Price: NewMoney(decimal.RequireFromString("149.50"))},
	}

	raw, err := EncodeTransactionItems(items)
	require.NoError(t, err)

	decoded, err := DecodeTransactionItems(raw)
	require.NoError(t, err)
	require.Len(t, decoded, len(items))
	for i := range items {
		assert.Equal(t, items[i].ProductID, decoded[i].ProductID)
		assert.Equal(t, items[i].Quantity, decoded[i].Quantity)
		assert.True(t, items[i].Price.Equal(decoded[i].Price.Decimal))
	}
}

func TestDecodeTransactionItemsEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		items, err := DecodeTransactionItems(raw)
		require.NoError(t, err)
		assert.Empty(t, items)
	}

	_, err := DecodeTransactionItems("{")
	assert.Error(t, err)
}

func TestEncodeNilItems(t *testing.T) {
	raw, err := EncodeTransactionItems(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestTransactionStatus(t *testing.T) {
	s, err := TransactionStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = TransactionStatus("Shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransactionMarshalAliases(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tx := Transaction{
		ID:        4,
		OrderID:   42,
		Amount:    NewMoney(decimal.RequireFromString("75.00")),
		Status:    "Completed",
		CreatedAt: created,
	}

	b, err := json.Marshal(tx)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "75.00", out["total_amount"])
	assert.Equal(t, out["amount"], out["total_amount"])
	assert.Equal(t, "Unknown Customer", out["user_name"])
	assert.Equal(t, "unknown@email.com", out["user_email"])
	assert.Equal(t, "Completed", out["order_status"])
	assert.Equal(t, []any{}, out["items"])
	assert.Equal(t, float64(42), out["order_id"])
}

func TestNeedsPriceRepair(t *testing.T) {
	assert.True(t, TransactionItem{}.NeedsPriceRepair())
	assert.False(t, TransactionItem{Price: NewMoney(decimal.NewFromInt(1))}.NeedsPriceRepair())
}
