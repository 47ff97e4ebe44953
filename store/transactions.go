package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"hiryo-backoffice/models"
)

const transactionSelect = `
	SELECT t.transaction_id, t.order_id, t.user_id, COALESCE(t.transaction_reference, ''),
	       COALESCE(t.customer_name, ''), COALESCE(t.customer_email, ''), COALESCE(t.customer_contact, ''),
	       COALESCE(t.delivery_method, ''), COALESCE(t.payment_method, ''), COALESCE(t.shipping_address, ''),
	       COALESCE(t.subtotal, 0), COALESCE(t.delivery_fee, 0), COALESCE(t.amount, 0),
	       COALESCE(t.status, 'Completed'), t.created_at, COALESCE(t.items, ''),
	       COALESCE(u.firstName, ''), COALESCE(u.lastName, ''), COALESCE(u.username, ''), COALESCE(u.email, '')
	FROM transactions t
	LEFT JOIN users u ON t.user_id = u.user_id`

func scanTransaction(sc scanner) (*models.Transaction, error) {
	var (
		t                             models.Transaction
		items                         string
		firstName, lastName, username string
		userEmail                     string
	)
	if err := sc.Scan(
		&t.ID, &t.OrderID, &t.UserID, &t.Reference,
		&t.CustomerName, &t.CustomerEmail, &t.CustomerContact,
		&t.DeliveryMethod, &t.PaymentMethod, &t.ShippingAddress,
		&t.Subtotal, &t.DeliveryFee, &t.Amount,
		&t.Status, &t.CreatedAt, &items,
		&firstName, &lastName, &username, &userEmail,
	); err != nil {
		return nil, err
	}
	if t.CustomerName == "" {
		t.CustomerName = models.DisplayName(firstName, lastName, username)
	}
	if t.CustomerEmail == "" {
		t.CustomerEmail = userEmail
	}

	decoded, err := models.DecodeTransactionItems(items)
	if err != nil {
		// A corrupt snapshot should not hide the rest of the record.
		slog.Warn("Unreadable transaction items", "transaction_id", t.ID, "error", err)
		decoded = []models.TransactionItem{}
	}
	t.Items = decoded
	return &t, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	out, err := s.queryTransactions(ctx, transactionSelect+` ORDER BY t.order_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *Store) UserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	out, err := s.queryTransactions(ctx, transactionSelect+` WHERE t.user_id = ? ORDER BY t.order_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of user %d: %w", userID, err)
	}
	return out, nil
}

func (s *Store) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.DB.QueryRowContext(ctx, transactionSelect+` WHERE t.transaction_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// TransactionByOrder returns the transaction recorded for orderID. Lines whose
// stored price is zero are repaired from order_items or the catalog.
func (s *Store) TransactionByOrder(ctx context.Context, orderID int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.DB.QueryRowContext(ctx,
		transactionSelect+` WHERE t.order_id = ? ORDER BY t.transaction_id DESC LIMIT 1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction of order %d: %w", orderID, err)
	}

	for i := range t.Items {
		if !t.Items[i].NeedsPriceRepair() {
			continue
		}
		if err := s.repairItemPrice(ctx, orderID, &t.Items[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *Store) repairItemPrice(ctx context.Context, orderID int64, item *models.TransactionItem) error {
	lines, err := snapshotItems(ctx, s.DB, orderID, item.ProductID)
	if err != nil {
		return err
	}
	if len(lines) > 0 {
		item.Price = lines[0].Price
		item.ProductPrice = lines[0].ProductPrice
		return nil
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT price FROM products WHERE product_id = ?`, item.ProductID).Scan(&item.ProductPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read price of product %d: %w", item.ProductID, err)
	}
	item.Price = item.ProductPrice
	return nil
}

// UpdateTransactionStatus switches a recorded transaction between
// Completed and Cancelled.
func (s *Store) UpdateTransactionStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %q", models.ErrUnknownStatus, string(status))
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE transactions SET status = ? WHERE transaction_id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return expectOne(res, ErrTransactionNotFound)
}
