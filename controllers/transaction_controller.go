package controllers

import (
	"context"
	"errors"
	"fmt"

	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
)

type TransactionStore interface {
	AllTransactions(ctx context.Context) ([]models.Transaction, error)
	UserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	TransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	TransactionByOrder(ctx context.Context, orderID int64) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status models.OrderStatus) error
}

type TransactionController struct {
	store  TransactionStore
	orders *OrderController
	stats  StatsInvalidator
}

// NewTransactionController shares the order controller so create_transaction
// finalizes orders exactly like update_order_status does.
func NewTransactionController(s TransactionStore, orders *OrderController, stats StatsInvalidator) *TransactionController {
	return &TransactionController{store: s, orders: orders, stats: stats}
}

// Handle serves /api/transactions.
func (tc *TransactionController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_all_transactions":        admin(tc.GetAllTransactions),
		"get_user_transactions":       public(tc.GetUserTransactions),
		"get_completed_order_details": public(tc.GetCompletedOrderDetails),
		"get_order_transaction":       public(tc.GetOrderTransaction),
		"get_transaction_details":     admin(tc.GetTransactionDetails),
		"update_transaction_status":   admin(tc.UpdateTransactionStatus),
		"create_transaction":          admin(tc.CreateTransaction),
	})
}

func (tc *TransactionController) GetAllTransactions(c *gin.Context) {
	txns, err := tc.store.AllTransactions(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list transactions", err)
		return
	}
	message := "Transactions loaded successfully"
	if len(txns) == 0 {
		message = "No completed transactions found"
	}
	ok(c, gin.H{"message": message, "transactions": nonNil(txns), "count": len(txns)})
}

func (tc *TransactionController) GetUserTransactions(c *gin.Context) {
	userID, found := idParam(c, "user_id")
	if !found {
		invalid(c, "User ID is required")
		return
	}
	txns, err := tc.store.UserTransactions(c.Request.Context(), userID)
	if err != nil {
		serverError(c, "Failed to list user transactions", err)
		return
	}
	ok(c, gin.H{"transactions": nonNil(txns), "count": len(txns)})
}

// GetCompletedOrderDetails returns a finalized order rebuilt from its transaction.
func (tc *TransactionController) GetCompletedOrderDetails(c *gin.Context) {
	t, found := tc.byOrder(c)
	if !found {
		return
	}
	ok(c, gin.H{"order": t})
}

func (tc *TransactionController) GetOrderTransaction(c *gin.Context) {
	t, found := tc.byOrder(c)
	if !found {
		return
	}
	ok(c, gin.H{"transaction": t})
}

func (tc *TransactionController) byOrder(c *gin.Context) (*models.Transaction, bool) {
	orderID, found := idParam(c, "order_id")
	if !found {
		invalid(c, "Order ID is required")
		return nil, false
	}
	t, err := tc.store.TransactionByOrder(c.Request.Context(), orderID)
	if errors.Is(err, store.ErrTransactionNotFound) {
		invalid(c, "Transaction not found")
		return nil, false
	}
	if err != nil {
		serverError(c, "Failed to get transaction of order", err)
		return nil, false
	}
	return t, true
}

func (tc *TransactionController) GetTransactionDetails(c *gin.Context) {
	id, found := idParam(c, "transaction_id")
	if !found {
		invalid(c, "Transaction ID is required")
		return
	}
	t, err := tc.store.TransactionByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrTransactionNotFound) {
		invalid(c, "Transaction not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to get transaction", err)
		return
	}
	ok(c, gin.H{"transaction": t})
}

func (tc *TransactionController) UpdateTransactionStatus(c *gin.Context) {
	id, found := idParam(c, "transaction_id")
	if !found || param(c, "status") == "" {
		invalid(c, "Transaction ID and status are required")
		return
	}
	status, err := models.TransactionStatus(param(c, "status"))
	if err != nil {
		invalid(c, "Status must be Completed or Cancelled")
		return
	}
	err = tc.store.UpdateTransactionStatus(c.Request.Context(), id, status)
	if errors.Is(err, store.ErrTransactionNotFound) {
		invalid(c, "Transaction not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to update transaction status", err)
		return
	}
	invalidateStats(c, tc.stats)
	ok(c, gin.H{"message": "Transaction status updated successfully", "status": status})
}

// CreateTransaction finalizes an order into a transaction. status defaults
// to Completed.
func (tc *TransactionController) CreateTransaction(c *gin.Context) {
	orderID, found := idParam(c, "order_id")
	if !found {
		invalid(c, "Order ID is required")
		return
	}
	raw := param(c, "status")
	if raw == "" {
		raw = string(models.StatusCompleted)
	}
	status, err := models.TransactionStatus(raw)
	if err != nil {
		invalid(c, fmt.Sprintf("Invalid status %q", raw))
		return
	}

	res, err := tc.orders.changeStatus(c, orderID, status)
	if err != nil {
		return
	}

	fin := res.Finalized
	message := "Transaction created successfully"
	if fin.AlreadyFinalized {
		message = "Order was already finalized"
	}
	body := gin.H{
		"message":           message,
		"transaction_id":    fin.TransactionID,
		"already_finalized": fin.AlreadyFinalized,
		"rows_affected":     res.RowsAffected,
	}
	if fin.Reference != "" {
		body["transaction_reference"] = fin.Reference
	}
	ok(c, body)
}
