package controllers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicProductActions(t *testing.T) {
	env := newTestEnv(t)
	env.store.searchProducts = func(_ context.Context, term string) ([]models.Product, error) {
		return []models.Product{{ID: 5, Name: "Vermicast " + term}}, nil
	}
	env.store.productByID = func(_ context.Context, id int64, activeOnly bool) (*models.Product, error) {
		assert.True(t, activeOnly)
		return nil, store.ErrProductNotFound
	}

	res := env.get(t, "/api/products?action=search_products&search_query=5kg", "")
	require.Equal(t, true, res.Body["success"])
	assert.Len(t, res.Body["products"], 1)

	res = env.get(t, "/api/products?action=search_products", "")
	assert.Equal(t, "Search query is required", res.Body["message"])

	res = env.get(t, "/api/products?action=get_product_details&product_id=9", "")
	assert.Equal(t, "Product not found", res.Body["message"])
}

func TestAddProduct(t *testing.T) {
	env := newTestEnv(t)
	var got models.Product
	env.store.addProduct = func(_ context.Context, p models.Product) (*models.Product, error) {
		got = p
		p.ID = 12
		return &p, nil
	}
	token := adminToken(t)

	res := env.postForm(t, "/api/products", url.Values{
		"action":         {"add_product"},
		"product_name":   {"Vermicast"},
		"category":       {"Soil"},
		"price":          {"150.50"},
		"stock_quantity": {"20"},
		"weight_value":   {"5"},
		"weight_unit":    {"kg"},
	}, token)

	require.Equal(t, true, res.Body["success"])
	assert.Equal(t, float64(12), res.Body["product_id"])
	assert.True(t, got.Price.Equal(decimal.RequireFromString("150.5")))
	assert.Equal(t, 20, got.StockQuantity)
	assert.True(t, got.WeightValue.Valid)
	require.NotNil(t, got.WeightUnit)
	assert.Equal(t, "kg", *got.WeightUnit)
	assert.Nil(t, got.SKU)
	assert.Equal(t, 1, env.cache.invalidations)

	res = env.postForm(t, "/api/products", url.Values{
		"action": {"add_product"}, "product_name": {"Vermicast"},
	}, token)
	assert.Equal(t, false, res.Body["success"])
	assert.Equal(t, "Product name, category, and price are required.", res.Body["message"])
	assert.Equal(t, 1, env.cache.invalidations)
}

func TestAddProductRejectsNonNumericStock(t *testing.T) {
	env := newTestEnv(t)
	env.store.addProduct = func(context.Context, models.Product) (*models.Product, error) {
		t.Fatal("product with bad stock reached the store")
		return nil, nil
	}

	res := env.postForm(t, "/api/products", url.Values{
		"action":         {"add_product"},
		"product_name":   {"Vermicast"},
		"category":       {"Soil"},
		"price":          {"150"},
		"stock_quantity": {"abc"},
	}, adminToken(t))

	assert.Equal(t, false, res.Body["success"])
	assert.Equal(t, "Stock quantity must be a whole number.", res.Body["message"])
	assert.Zero(t, env.cache.invalidations)
}

func TestUpdateProductSendsOnlyProvidedFields(t *testing.T) {
	env := newTestEnv(t)
	var got models.ProductUpdate
	env.store.updateProduct = func(_ context.Context, id int64, u models.ProductUpdate) (*models.Product, error) {
		got = u
		return &models.Product{ID: id}, nil
	}
	token := adminToken(t)

	res := env.postJSON(t, "/api/products", map[string]any{
		"action": "update_product", "product_id": 5, "stock_quantity": 0,
	}, token)

	require.Equal(t, true, res.Body["success"])
	require.NotNil(t, got.StockQuantity)
	assert.Equal(t, 0, *got.StockQuantity)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.Price)
	assert.Equal(t, 1, env.cache.invalidations)

	res = env.postForm(t, "/api/products", url.Values{
		"action": {"update_product"}, "product_id": {"5"},
	}, token)
	assert.Equal(t, "No data provided to update.", res.Body["message"])

	res = env.postForm(t, "/api/products", url.Values{
		"action": {"update_product"}, "product_id": {"5"}, "price": {"cheap"},
	}, token)
	assert.Equal(t, "Price must be a number.", res.Body["message"])
}

func TestDeleteProductInUse(t *testing.T) {
	env := newTestEnv(t)
	env.store.deleteProduct = func(_ context.Context, id int64) (string, error) {
		if id == 5 {
			return "", &store.ProductInUseError{ProductName: "Vermicast", Orders: 3}
		}
		return "Seed tray", nil
	}
	token := adminToken(t)

	res := env.postForm(t, "/api/products", url.Values{"action": {"delete_product"}, "product_id": {"5"}}, token)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, res.Body["success"])
	assert.Contains(t, res.Body["message"], `"Vermicast" because it has 3 orders`)
	assert.Zero(t, env.cache.invalidations)

	res = env.postForm(t, "/api/products", url.Values{"action": {"delete_product"}, "product_id": {"6"}}, token)
	assert.Equal(t, true, res.Body["success"])
	assert.Equal(t, `Product "Seed tray" deleted successfully.`, res.Body["message"])
	assert.Equal(t, 1, env.cache.invalidations)
}
