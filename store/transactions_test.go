package store

import (
	"context"
	"regexp"
	"testing"

	"hiryo-backoffice/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionColumns = []string{
	"transaction_id", "order_id", "user_id", "transaction_reference",
	"customer_name", "customer_email", "customer_contact",
	"delivery_method", "payment_method", "shipping_address",
	"subtotal", "delivery_fee", "amount", "status", "created_at", "items",
	"firstName", "lastName", "username", "email",
}

func TestAllTransactions(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t LEFT JOIN users u ON t.user_id = u.user_id ORDER BY t.order_id DESC")).
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(int64(2), int64(42), int64(7), "TXN-1-ABCDEF12", "Juan Cruz", "juan@example.com", "0917",
				"Pickup", "Cash on Delivery", "", "75.00", "0.00", "75.00", "Completed", testOrderDate,
				`[{"product_id":5,"product_name":"Vermicast 5kg","quantity":3,"price":"25.00"}]`,
				"Juan", "Cruz", "jcruz", "juan@example.com").
			AddRow(int64(1), int64(40), int64(9), "", "", "", "",
				"Delivery", "GCash", "Purok 3", "100.00", "115.00", "215.00", "Cancelled", testOrderDate, "",
				"Maria", "", "maria", "maria@example.com"))

	txns, err := s.AllTransactions(context.Background())

	require.NoError(t, err)
	require.Len(t, txns, 2)
	require.Len(t, txns[0].Items, 1)
	assert.Equal(t, 3, txns[0].Items[0].Quantity)
	assert.Equal(t, "Maria", txns[1].CustomerName)
	assert.Equal(t, "maria@example.com", txns[1].CustomerEmail)
	assert.Empty(t, txns[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionByOrderRepairsZeroPrices(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.order_id = ? ORDER BY t.transaction_id DESC LIMIT 1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(int64(2), int64(42), int64(7), "", "Juan Cruz", "juan@example.com", "0917",
				"Pickup", "Cash on Delivery", "", "115.00", "0.00", "115.00", "Completed", testOrderDate,
				`[{"product_id":5,"quantity":3,"price":0},{"product_id":6,"quantity":1,"price":"40.00"},{"product_id":8,"quantity":1}]`,
				"", "", "", ""))
	// Product 5 still has an order line.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ? AND oi.product_id = ?")).
		WithArgs(int64(42), int64(5)).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).AddRow(int64(1), int64(5), "Vermicast 5kg", 3, "25.00", "27.00"))
	// Product 8 only exists in the catalog.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ? AND oi.product_id = ?")).
		WithArgs(int64(42), int64(8)).
		WillReturnRows(sqlmock.NewRows(snapshotColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT price FROM products WHERE product_id = ?")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow("35.00"))

	txn, err := s.TransactionByOrder(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, txn.Items, 3)
	assert.Equal(t, "25", txn.Items[0].Price.String())
	assert.Equal(t, "27", txn.Items[0].ProductPrice.String())
	assert.Equal(t, "40", txn.Items[1].Price.String())
	assert.Equal(t, "35", txn.Items[2].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionByOrderNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.order_id = ?")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(transactionColumns))

	_, err := s.TransactionByOrder(context.Background(), 404)

	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTransactionStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = ? WHERE transaction_id = ?")).
		WithArgs("Cancelled", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = ?")).
		WithArgs("Completed", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateTransactionStatus(context.Background(), 2, models.StatusCancelled))
	assert.ErrorIs(t, s.UpdateTransactionStatus(context.Background(), 99, models.StatusCompleted), ErrTransactionNotFound)
	assert.ErrorIs(t, s.UpdateTransactionStatus(context.Background(), 2, models.StatusShipped), models.ErrUnknownStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
