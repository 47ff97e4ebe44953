package store

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"hiryo-backoffice/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Store{
		DB:                db,
		AdminNotifyUserID: 1,
		DeliveryFee:       decimal.RequireFromString("115.00"),
	}, mock
}

// decimalEq matches a decimal argument by value.
type decimalEq string

func (d decimalEq) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(d)))
}

type prefixArg string

func (p prefixArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, string(p))
}

// itemsJSON matches the encoded items snapshot of a transaction.
type itemsJSON []models.TransactionItem

func (want itemsJSON) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := models.DecodeTransactionItems(s)
	if err != nil || len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ProductID != want[i].ProductID || got[i].Quantity != want[i].Quantity || !got[i].Price.Equal(want[i].Price.Decimal) {
			return false
		}
	}
	return true
}

var orderColumns = []string{
	"order_id", "user_id", "delivery_method", "payment_method", "shipping_address",
	"subtotal", "delivery_fee", "total_amount", "status", "order_date",
	"firstName", "lastName", "username", "email", "contact_number", "address",
}

var testOrderDate = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
