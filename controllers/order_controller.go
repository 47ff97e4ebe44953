package controllers

import (
	"context"
	"errors"
	"fmt"

	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
)

type OrderStore interface {
	ListActiveOrders(ctx context.Context) ([]models.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderDetails(ctx context.Context, orderID int64) (*models.Order, error)
	PlaceOrder(ctx context.Context, in models.PlaceOrderInput) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.StatusUpdateResult, error)
}

type OrderController struct {
	store     OrderStore
	publisher EventPublisher
	stats     StatsInvalidator
}

// NewOrderController accepts a nil publisher or stats invalidator.
func NewOrderController(s OrderStore, p EventPublisher, stats StatsInvalidator) *OrderController {
	return &OrderController{store: s, publisher: p, stats: stats}
}

// Handle serves /api/orders.
func (oc *OrderController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"place_order":              public(oc.PlaceOrder),
		"get_user_orders":          public(oc.GetUserOrders),
		"get_order_details":        public(oc.GetOrderDetails),
		"get_all_orders_for_admin": admin(oc.GetAllOrders),
		"update_order_status":      admin(oc.UpdateOrderStatus),
	})
}

func (oc *OrderController) PlaceOrder(c *gin.Context) {
	placed := false
	defer func() {
		middlewares.RecordOrderOperation("place", placed)
	}()

	in, err := placeOrderInput(c)
	if err != nil {
		invalid(c, err.Error())
		return
	}

	order, err := oc.store.PlaceOrder(c.Request.Context(), in)
	if errors.Is(err, store.ErrProductNotFound) {
		invalid(c, "One of the ordered products no longer exists")
		return
	}
	if err != nil {
		serverError(c, "Failed to place order", err)
		return
	}

	placed = true
	invalidateStats(c, oc.stats)
	publish(c, oc.publisher, models.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Type:    models.EventOrderCreated,
		Status:  order.Status,
		Total:   order.TotalAmount.Decimal,
	})

	ok(c, gin.H{
		"message":      "Order placed successfully",
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
	})
}

// placeOrderInput reads and validates a checkout request.
func placeOrderInput(c *gin.Context) (models.PlaceOrderInput, error) {
	const required = "User ID and valid items are required"

	userID, found := idParam(c, "user_id")
	if !found {
		return models.PlaceOrderInput{}, errors.New(required)
	}
	items, err := models.ParseCartItems([]byte(param(c, "items")))
	if err != nil || len(items) == 0 {
		return models.PlaceOrderInput{}, errors.New(required)
	}
	method, err := models.ParseDeliveryMethod(param(c, "delivery_method"))
	if err != nil {
		return models.PlaceOrderInput{}, err
	}
	payment := param(c, "payment_method")
	if payment == "" {
		payment = "Cash on Delivery"
	}

	in := models.PlaceOrderInput{
		UserID:          userID,
		DeliveryMethod:  method,
		PaymentMethod:   payment,
		ShippingAddress: param(c, "shipping_address"),
		Items:           items,
		TotalAmount:     decimalParam(c, "total_amount"),
		DeliveryFee:     decimalParam(c, "delivery_fee"),
	}
	if err := in.Validate(); err != nil {
		return models.PlaceOrderInput{}, err
	}
	return in, nil
}

func (oc *OrderController) GetUserOrders(c *gin.Context) {
	userID, found := idParam(c, "user_id")
	if !found {
		invalid(c, "User ID is required")
		return
	}
	orders, err := oc.store.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		serverError(c, "Failed to list user orders", err)
		return
	}
	ok(c, gin.H{"orders": nonNil(orders)})
}

func (oc *OrderController) GetOrderDetails(c *gin.Context) {
	orderID, found := idParam(c, "order_id")
	if !found {
		invalid(c, "Valid order ID is required")
		return
	}
	order, err := oc.store.GetOrderDetails(c.Request.Context(), orderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		invalid(c, "Order not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to get order details", err)
		return
	}
	ok(c, gin.H{"order": order})
}

func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.store.ListActiveOrders(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list orders", err)
		return
	}
	ok(c, gin.H{"orders": nonNil(orders)})
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, found := idParam(c, "order_id")
	if !found || param(c, "status") == "" {
		invalid(c, "Valid order ID and status are required")
		return
	}
	status, err := models.ParseOrderStatus(param(c, "status"))
	if err != nil {
		invalid(c, fmt.Sprintf("Invalid status %q", param(c, "status")))
		return
	}

	res, err := oc.changeStatus(c, orderID, status)
	if err != nil {
		return
	}

	body := gin.H{
		"message":       "Order status updated successfully",
		"order_id":      res.OrderID,
		"status":        res.Status,
		"rows_affected": res.RowsAffected,
	}
	if res.Finalized != nil {
		body["transaction_id"] = res.Finalized.TransactionID
		body["already_finalized"] = res.Finalized.AlreadyFinalized
	}
	ok(c, body)
}

// changeStatus applies a status change, publishes its event and writes the
// error response itself when it fails.
func (oc *OrderController) changeStatus(c *gin.Context, orderID int64, status models.OrderStatus) (*models.StatusUpdateResult, error) {
	operation := "update_status"
	if status.IsTerminal() {
		operation = "finalize"
	}

	res, err := oc.store.UpdateOrderStatus(c.Request.Context(), orderID, status)
	middlewares.RecordOrderOperation(operation, err == nil || errors.Is(err, store.ErrOrderNotFound))
	if errors.Is(err, store.ErrOrderNotFound) {
		invalid(c, "Order not found")
		return nil, err
	}
	if err != nil {
		serverError(c, "Failed to update order status", err)
		return nil, err
	}

	event := models.OrderEvent{OrderID: orderID, Type: models.EventStatusUpdated, Status: string(status)}
	if fin := res.Finalized; fin != nil {
		if fin.AlreadyFinalized {
			return res, nil
		}
		event.Type = models.EventFinalized
		if fin.Order != nil {
			event.UserID = fin.Order.UserID
			event.Total = fin.Order.TotalAmount.Decimal
		}
	}
	invalidateStats(c, oc.stats)
	publish(c, oc.publisher, event)
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
