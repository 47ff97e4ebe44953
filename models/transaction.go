package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Transaction is the denormalized record of a finalized order.
type Transaction struct {
	ID              int64             `json:"transaction_id"`
	OrderID         int64             `json:"order_id"`
	UserID          int64             `json:"user_id"`
	Reference       string            `json:"transaction_reference,omitempty"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerContact string            `json:"customer_contact"`
	DeliveryMethod  string            `json:"delivery_method"`
	PaymentMethod   string            `json:"payment_method"`
	ShippingAddress string            `json:"shipping_address"`
	Subtotal        Money             `json:"subtotal"`
	DeliveryFee     Money             `json:"delivery_fee"`
	Amount          Money             `json:"amount"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []TransactionItem `json:"items"`
}

// MarshalJSON adds the aliases the admin panel and mobile app read
// (total_amount, order_date, user_name, user_email, order_status).
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	items := t.Items
	if items == nil {
		items = []TransactionItem{}
	}
	p := plain(t)
	p.Items = items
	return json.Marshal(struct {
		plain
		TotalAmount Money     `json:"total_amount"`
		OrderDate   time.Time `json:"order_date"`
		UserName    string    `json:"user_name"`
		UserEmail   string    `json:"user_email"`
		OrderStatus string    `json:"order_status"`
	}{
		plain:       p,
		TotalAmount: t.Amount,
		OrderDate:   t.CreatedAt,
		UserName:    fallback(t.CustomerName, "Unknown Customer"),
		UserEmail:   fallback(t.CustomerEmail, "unknown@email.com"),
		OrderStatus: fallback(t.Status, string(StatusCompleted)),
	})
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// TransactionItem is one line of the items snapshot stored on a transaction.
type TransactionItem struct {
	OrderItemID  int64  `json:"order_item_id,omitempty"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	Price        Money  `json:"price"`
	ProductPrice Money  `json:"product_price"`
}

// NeedsPriceRepair reports whether the snapshot lost the unit price.
func (i TransactionItem) NeedsPriceRepair() bool {
	return i.Price.IsZero()
}

func EncodeTransactionItems(items []TransactionItem) (string, error) {
	if items == nil {
		items = []TransactionItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode transaction items: %w", err)
	}
	return string(b), nil
}

// DecodeTransactionItems tolerates empty snapshots from historical rows.
func DecodeTransactionItems(raw string) ([]TransactionItem, error) {
	if strings.TrimSpace(raw) == "" || raw == "null" {
		return []TransactionItem{}, nil
	}
	var items []TransactionItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode transaction items: %w", err)
	}
	return items, nil
}

// TransactionStatus returns the title-cased status recorded on a
// transaction, or an error when s is not a terminal order status.
func TransactionStatus(s string) (OrderStatus, error) {
	status, err := ParseOrderStatus(s)
	if err != nil {
		return "", err
	}
	if !status.IsTerminal() {
		return "", fmt.Errorf("%w: transactions are only %s or %s", ErrUnknownStatus, StatusCompleted, StatusCancelled)
	}
	return status, nil
}

// FinalizeResult describes what a terminal status update did.
type FinalizeResult struct {
	TransactionID    int64
	Reference        string
	Order            *Order
	AlreadyFinalized bool
}

// StatusUpdateResult is returned by every status change.
type StatusUpdateResult struct {
	OrderID      int64
	Status       OrderStatus
	RowsAffected int64
	Finalized    *FinalizeResult
}
