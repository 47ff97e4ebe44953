package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusPickup     OrderStatus = "Pickup"
	StatusCompleted  OrderStatus = "Completed"
	StatusCancelled  OrderStatus = "Cancelled"
)

var ErrUnknownStatus = errors.New("unknown order status")

// ParseOrderStatus accepts any casing. "Confirmed" is kept as an alias of
// Processing because older mobile builds still send it.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "processing", "confirmed":
		return StatusProcessing, nil
	case "shipped":
		return StatusShipped, nil
	case "delivered":
		return StatusDelivered, nil
	case "pickup":
		return StatusPickup, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsTerminal reports whether reaching s moves the order into transactions.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "Delivery"
	DeliveryMethodPickup   DeliveryMethod = "Pickup"
)

// ParseDeliveryMethod defaults an empty value to Delivery.
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "delivery":
		return DeliveryMethodDelivery, nil
	case "pickup", "pick-up", "pick up":
		return DeliveryMethodPickup, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

type Order struct {
	ID              int64     `json:"order_id"`
	UserID          int64     `json:"user_id"`
	DeliveryMethod  string    `json:"delivery_method"`
	PaymentMethod   string    `json:"payment_method"`
	ShippingAddress string    `json:"shipping_address"`
	Subtotal        Money     `json:"subtotal"`
	DeliveryFee     Money     `json:"delivery_fee"`
	TotalAmount     Money     `json:"total_amount"`
	Status          string    `json:"status"`
	OrderDate       time.Time `json:"order_date"`

	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contact_number,omitempty"`
	Address       string `json:"address,omitempty"`
	CustomerName  string `json:"customer_name"`

	Items []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID              int64  `json:"order_item_id"`
	OrderID         int64  `json:"order_id"`
	ProductID       int64  `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase Money  `json:"price_at_purchase"`
	ProductName     string `json:"product_name"`
	ImageURL        string `json:"image_url,omitempty"`
}

// CartItem is one line of a checkout request. Mobile builds send either
// product_id or id, and either price or price_at_purchase.
type CartItem struct {
	ProductID       int64           `json:"product_id"`
	ID              int64           `json:"id"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

func (i CartItem) EffectiveProductID() int64 {
	if i.ProductID != 0 {
		return i.ProductID
	}
	return i.ID
}

func (i CartItem) EffectivePrice() decimal.Decimal {
	if !i.Price.IsZero() {
		return i.Price
	}
	return i.PriceAtPurchase
}

// ParseCartItems decodes a JSON array of cart items. The array may also
// arrive wrapped in a JSON string, which is how the mobile app posts it.
func ParseCartItems(raw []byte) ([]CartItem, error) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil, errors.New("items are required")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		raw = []byte(inner)
	}
	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// PlaceOrderInput is the validated form of a checkout.
type PlaceOrderInput struct {
	UserID          int64
	DeliveryMethod  DeliveryMethod
	PaymentMethod   string
	ShippingAddress string
	Items           []CartItem
	TotalAmount     decimal.Decimal
	DeliveryFee     decimal.Decimal
}

// Pricing is the amount breakdown persisted on the order header.
type Pricing struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	TotalAmount decimal.Decimal
}

// ComputePricing prefers the checkout's own totals so the stored receipt
// matches what the buyer saw; otherwise it recomputes from the lines.
func (in PlaceOrderInput) ComputePricing(defaultDeliveryFee decimal.Decimal) Pricing {
	if in.TotalAmount.IsPositive() && !in.DeliveryFee.IsNegative() {
		return Pricing{
			Subtotal:    in.TotalAmount.Sub(in.DeliveryFee),
			DeliveryFee: in.DeliveryFee,
			TotalAmount: in.TotalAmount,
		}
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		subtotal = subtotal.Add(item.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	fee := decimal.Zero
	if in.DeliveryMethod == DeliveryMethodDelivery {
		fee = defaultDeliveryFee
	}
	return Pricing{Subtotal: subtotal, DeliveryFee: fee, TotalAmount: subtotal.Add(fee)}
}

// Validate rejects a checkout before anything is written.
func (in PlaceOrderInput) Validate() error {
	if in.UserID <= 0 {
		return errors.New("User ID and valid items are required")
	}
	if len(in.Items) == 0 {
		return errors.New("User ID and valid items are required")
	}
	for i, item := range in.Items {
		if item.EffectiveProductID() <= 0 {
			return fmt.Errorf("item %d has no product", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d must have a positive quantity", i+1)
		}
		if item.EffectivePrice().IsNegative() {
			return fmt.Errorf("item %d has a negative price", i+1)
		}
	}
	return nil
}

// DisplayName builds the customer label shown in admin views.
func DisplayName(firstName, lastName, username string) string {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	switch {
	case firstName != "" && lastName != "":
		return firstName + " " + lastName
	case firstName != "":
		return firstName
	case strings.TrimSpace(username) != "":
		return strings.TrimSpace(username)
	}
	return "Unknown Customer"
}

type OrderEvent struct {
	OrderID  int64           `json:"order_id"`
	UserID   int64           `json:"user_id"`
	Type     string          `json:"type"` // created, status_updated, finalized, announcement
	Status   string          `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Occurred time.Time       `json:"occurred"`
}

const (
	EventOrderCreated  = "created"
	EventStatusUpdated = "status_updated"
	EventFinalized     = "finalized"
	EventAnnouncement  = "announcement"
)
