package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductStatusActive     = "Active"
	ProductStatusOutOfStock = "Out of Stock"
)

type Product struct {
	ID            int64               `json:"product_id"`
	Name          string              `json:"product_name"`
	SKU           *string             `json:"product_sku"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Price         Money               `json:"price"`
	StockQuantity int                 `json:"stock_quantity"`
	WeightValue   decimal.NullDecimal `json:"weight_value"`
	WeightUnit    *string             `json:"weight_unit"`
	ImageURL      *string             `json:"image_url"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// StatusForStock derives a product's listing status from its stock level.
func StatusForStock(stock int) string {
	if stock > 0 {
		return ProductStatusActive
	}
	return ProductStatusOutOfStock
}

// ValidateNew checks a product about to be added to the catalog.
func (p Product) ValidateNew() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" || !p.Price.IsPositive() {
		return errors.New("Product name, category, and price are required.")
	}
	if p.StockQuantity < 0 {
		return errors.New("Stock quantity cannot be negative.")
	}
	return nil
}

// ProductUpdate carries only the fields an admin actually sent.
type ProductUpdate struct {
	Name          *string
	SKU           *string
	Category      *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	WeightValue   *decimal.Decimal
	WeightUnit    *string
	ImageURL      *string
}

// Validate rejects values an update may never write.
func (u ProductUpdate) Validate() error {
	if u.IsEmpty() {
		return errors.New("No data provided to update.")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return errors.New("Product name cannot be empty.")
	}
	if u.Price != nil && !u.Price.IsPositive() {
		return errors.New("Price must be greater than zero.")
	}
	if u.StockQuantity != nil && *u.StockQuantity < 0 {
		return errors.New("Stock quantity cannot be negative.")
	}
	return nil
}

func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.SKU == nil && u.Category == nil && u.Description == nil &&
		u.Price == nil && u.StockQuantity == nil && u.WeightValue == nil && u.WeightUnit == nil &&
		u.ImageURL == nil
}
