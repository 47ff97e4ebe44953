package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiryo-backoffice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const orderSelect = `
	SELECT o.order_id, o.user_id, o.delivery_method, o.payment_method, COALESCE(o.shipping_address, ''),
	       COALESCE(o.subtotal, 0), COALESCE(o.delivery_fee, 0), COALESCE(o.total_amount, 0),
	       o.status, o.order_date,
	       COALESCE(u.firstName, ''), COALESCE(u.lastName, ''), COALESCE(u.username, ''),
	       COALESCE(u.email, ''), COALESCE(u.contact_number, ''), COALESCE(u.address, '')
	FROM orders o
	LEFT JOIN users u ON o.user_id = u.user_id`

const activeOrderFilter = `o.status NOT IN ('Completed', 'Cancelled')`

func scanOrder(sc scanner) (*models.Order, error) {
	var o models.Order
	if err := sc.Scan(
		&o.ID, &o.UserID, &o.DeliveryMethod, &o.PaymentMethod, &o.ShippingAddress,
		&o.Subtotal, &o.DeliveryFee, &o.TotalAmount,
		&o.Status, &o.OrderDate,
		&o.FirstName, &o.LastName, &o.Username,
		&o.Email, &o.ContactNumber, &o.Address,
	); err != nil {
		return nil, err
	}
	o.CustomerName = models.DisplayName(o.FirstName, o.LastName, o.Username)
	return &o, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListActiveOrders returns every order that has not been finalized, newest first.
func (s *Store) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.queryOrders(ctx, orderSelect+` WHERE `+activeOrderFilter+` ORDER BY o.order_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return orders, nil
}

func (s *Store) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.queryOrders(ctx,
		orderSelect+` WHERE o.user_id = ? AND `+activeOrderFilter+` ORDER BY o.order_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// GetOrderDetails returns one order with its lines joined to the catalog.
func (s *Store) GetOrderDetails(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := scanOrder(s.DB.QueryRowContext(ctx, orderSelect+` WHERE o.order_id = ?`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT oi.order_item_id, oi.order_id, oi.product_id, oi.quantity,
		       COALESCE(oi.price_at_purchase, p.price, 0), COALESCE(p.product_name, ''), COALESCE(p.image_url, '')
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.order_item_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	order.Items = []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PriceAtPurchase, &item.ProductName, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

// PlaceOrder writes the order header, its lines, the stock decrements and
// both notifications in one transaction.
func (s *Store) PlaceOrder(ctx context.Context, in models.PlaceOrderInput) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	pricing := in.ComputePricing(s.DeliveryFee)

	order := &models.Order{
		UserID:          in.UserID,
		DeliveryMethod:  string(in.DeliveryMethod),
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		Subtotal:        models.NewMoney(pricing.Subtotal),
		DeliveryFee:     models.NewMoney(pricing.DeliveryFee),
		TotalAmount:     models.NewMoney(pricing.TotalAmount),
		Status:          string(models.StatusPending),
		OrderDate:       time.Now(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (user_id, delivery_method, payment_method, shipping_address,
			                    subtotal, delivery_fee, total_amount, status, order_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
			order.UserID, order.DeliveryMethod, order.PaymentMethod, order.ShippingAddress,
			order.Subtotal, order.DeliveryFee, order.TotalAmount, order.Status)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if order.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get order ID: %w", err)
		}

		for _, item := range in.Items {
			productID := item.EffectiveProductID()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
				VALUES (?, ?, ?, ?)`,
				order.ID, productID, item.Quantity, item.EffectivePrice()); err != nil {
				return fmt.Errorf("insert order item for product %d: %w", productID, err)
			}

			// SET is evaluated left to right, so status sees the new stock.
			res, err := tx.ExecContext(ctx, `
				UPDATE products
				SET stock_quantity = GREATEST(0, stock_quantity - ?),
				    status = IF(stock_quantity > 0, 'Active', 'Out of Stock'),
				    updated_at = NOW()
				WHERE product_id = ?`,
				item.Quantity, productID)
			if err != nil {
				return fmt.Errorf("decrement stock of product %d: %w", productID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
			}
		}

		total := order.TotalAmount.StringFixed(2)
		adminTitle, adminMsg := models.AdminOrderNotification(order.ID, total)
		if err := insertNotification(ctx, tx, s.AdminNotifyUserID, &order.ID, adminTitle, adminMsg, models.NotificationOrder); err != nil {
			return fmt.Errorf("notify admin: %w", err)
		}
		buyerTitle, buyerMsg := models.BuyerOrderNotification(order.ID, total)
		if err := insertNotification(ctx, tx, order.UserID, &order.ID, buyerTitle, buyerMsg, models.NotificationOrder); err != nil {
			return fmt.Errorf("notify buyer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to status. Terminal statuses finalize the
// order into transactions; the rest are a plain update.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.StatusUpdateResult, error) {
	switch status {
	case models.StatusPending, models.StatusProcessing, models.StatusShipped,
		models.StatusDelivered, models.StatusPickup:
		res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_id = ?`, string(status), orderID)
		if err != nil {
			return nil, fmt.Errorf("update status of order %d: %w", orderID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update status of order %d: %w", orderID, err)
		}
		if n == 0 {
			return nil, ErrOrderNotFound
		}
		return &models.StatusUpdateResult{OrderID: orderID, Status: status, RowsAffected: n}, nil

	case models.StatusCompleted, models.StatusCancelled:
		fin, n, err := s.finalizeOrder(ctx, orderID, status)
		if err != nil {
			return nil, err
		}
		return &models.StatusUpdateResult{OrderID: orderID, Status: status, RowsAffected: n, Finalized: fin}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownStatus, string(status))
}

// finalizeOrder moves an order and its lines into a transactions row. The
// order row is locked first so a concurrent finalization waits, then finds
// the order gone and reports the existing transaction instead.
func (s *Store) finalizeOrder(ctx context.Context, orderID int64, status models.OrderStatus) (*models.FinalizeResult, int64, error) {
	var (
		result   models.FinalizeResult
		affected int64
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := scanOrder(tx.QueryRowContext(ctx, orderSelect+` WHERE o.order_id = ? FOR UPDATE OF o`, orderID))
		if errors.Is(err, sql.ErrNoRows) {
			var txnID int64
			err := tx.QueryRowContext(ctx,
				`SELECT transaction_id FROM transactions WHERE order_id = ? ORDER BY transaction_id DESC LIMIT 1`,
				orderID).Scan(&txnID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			if err != nil {
				return fmt.Errorf("look up transaction of order %d: %w", orderID, err)
			}
			result = models.FinalizeResult{TransactionID: txnID, AlreadyFinalized: true}
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock order %d: %w", orderID, err)
		}

		items, err := snapshotItems(ctx, tx, orderID, 0)
		if err != nil {
			return err
		}
		itemsJSON, err := models.EncodeTransactionItems(items)
		if err != nil {
			return err
		}

		amount := order.TotalAmount.Decimal
		if amount.IsZero() {
			amount = order.Subtotal.Add(order.DeliveryFee.Decimal)
			if amount.IsZero() {
				for _, item := range items {
					amount = amount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
				}
			}
		}

		result.Reference = newTransactionReference()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				order_id, user_id, customer_name, customer_email, customer_contact,
				delivery_method, payment_method, shipping_address, subtotal,
				delivery_fee, amount, status, transaction_reference, created_at, items
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), ?)`,
			order.ID, order.UserID, order.CustomerName, order.Email, order.ContactNumber,
			order.DeliveryMethod, order.PaymentMethod, order.ShippingAddress, order.Subtotal,
			order.DeliveryFee, amount, string(status), result.Reference, itemsJSON)
		if err != nil {
			return fmt.Errorf("insert transaction for order %d: %w", orderID, err)
		}
		if result.TransactionID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get transaction ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_id = ?`, string(status), orderID); err != nil {
			return fmt.Errorf("update status of order %d: %w", orderID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
			return fmt.Errorf("delete items of order %d: %w", orderID, err)
		}
		res, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID)
		if err != nil {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}

		order.Status = string(status)
		order.TotalAmount = models.NewMoney(amount)
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &result, affected, nil
}

// snapshotItems reads an order's lines with the price they were bought at,
// falling back to the live catalog price. A non-zero productID narrows the
// read to that product.
func snapshotItems(ctx context.Context, q querier, orderID, productID int64) ([]models.TransactionItem, error) {
	query := `
		SELECT oi.order_item_id, oi.product_id, COALESCE(p.product_name, ''), oi.quantity,
		       COALESCE(oi.price_at_purchase, p.price, 0), COALESCE(p.price, 0)
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.product_id
		WHERE oi.order_id = ?`
	args := []any{orderID}
	if productID != 0 {
		query += ` AND oi.product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY oi.order_item_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []models.TransactionItem{}
	for rows.Next() {
		var item models.TransactionItem
		if err := rows.Scan(&item.OrderItemID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.Price, &item.ProductPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func newTransactionReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), id[:8])
}
