// Package store holds every SQL statement the service runs. Multi-step
// writes share one database transaction so a failure leaves nothing behind.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hiryo-backoffice/config"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateProduct     = errors.New("product name or SKU already exists")
	ErrDuplicateUser        = errors.New("username or email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountSuspended     = errors.New("account suspended")
)

// ProductInUseError rejects deleting a product that order lines still reference.
type ProductInUseError struct {
	ProductName string
	Orders      int
}

func (e *ProductInUseError) Error() string {
	return fmt.Sprintf("Cannot delete product \"%s\" because it has %d orders referencing it. Products with orders cannot be deleted for data integrity.", e.ProductName, e.Orders)
}

type Store struct {
	DB *sql.DB

	// AdminNotifyUserID receives the "New Order Received" notification.
	AdminNotifyUserID int64
	// DeliveryFee is charged on Delivery orders when the checkout sent no totals.
	DeliveryFee decimal.Decimal
}

func New(db *sql.DB, cfg *config.Config) *Store {
	return &Store{
		DB:                db,
		AdminNotifyUserID: cfg.AdminNotifyUserID,
		DeliveryFee:       cfg.DeliveryFee,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
