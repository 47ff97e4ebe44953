package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"hiryo-backoffice/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{
	"product_id", "product_name", "product_sku", "description", "category", "price",
	"stock_quantity", "weight_value", "weight_unit", "image_url", "status", "created_at", "updated_at",
}

func productRow(id int64, name string, stock int, status string) []driver.Value {
	return []driver.Value{id, name, nil, "", "Fertilizer", "120.00", stock, nil, nil, nil, status, testOrderDate, testOrderDate}
}

func TestDeleteProductReferencedByOrders(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_name FROM products WHERE product_id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"product_name"}).AddRow("Vermicast 5kg"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT order_id) FROM order_items WHERE product_id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	_, err := s.DeleteProduct(context.Background(), 3)

	var inUse *ProductInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 4, inUse.Orders)
	assert.Equal(t, "Vermicast 5kg", inUse.ProductName)
	assert.Contains(t, err.Error(), "because it has 4 orders referencing it")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductUnreferenced(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_name FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"product_name"}).AddRow("Seed tray"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT order_id)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE product_id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, err := s.DeleteProduct(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "Seed tray", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_name FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"product_name"}))

	_, err := s.DeleteProduct(context.Background(), 404)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddProductDerivesStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products (product_name")).
		WithArgs("Seed tray", nil, "Tools", decimalEq("40"), 0, "", nil, models.ProductStatusOutOfStock, nil, nil).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ?")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(12, "Seed tray", 0, models.ProductStatusOutOfStock)...))

	p, err := s.AddProduct(context.Background(), models.Product{
		Name:     " Seed tray ",
		Category: "Tools",
		Price:    models.NewMoney(decimal.NewFromInt(40)),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, models.ProductStatusOutOfStock, p.Status)
	assert.Nil(t, p.SKU)
	assert.False(t, p.WeightValue.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddProductDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'VC-5' for key 'product_sku'"})

	sku := "VC-5"
	_, err := s.AddProduct(context.Background(), models.Product{
		Name: "Vermicast", Category: "Fertilizer", Price: models.NewMoney(decimal.NewFromInt(120)), SKU: &sku, StockQuantity: 3,
	})

	assert.ErrorIs(t, err, ErrDuplicateProduct)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductStockRederivesStatus(t *testing.T) {
	s, mock := newMockStore(t)
	stock := 0
	price := decimal.RequireFromString("99.50")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET price = ?, stock_quantity = ?, status = ?, updated_at = NOW() WHERE product_id = ?")).
		WithArgs(decimalEq("99.50"), 0, models.ProductStatusOutOfStock, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(3, "Vermicast", 0, models.ProductStatusOutOfStock)...))

	p, err := s.UpdateProduct(context.Background(), 3, models.ProductUpdate{Price: &price, StockQuantity: &stock})

	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusOutOfStock, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductMissing(t *testing.T) {
	s, mock := newMockStore(t)
	name := "Compost"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET product_name = ?")).
		WithArgs("Compost", int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.UpdateProduct(context.Background(), 404, models.ProductUpdate{Name: &name})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProductsEscapesWildcards(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'Active' AND (product_name LIKE ?")).
		WithArgs(`%50\%%`, `%50\%%`, `%50\%%`).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(productRow(1, "Vermicast 50% off", 5, models.ProductStatusActive)...))

	products, err := s.SearchProducts(context.Background(), "50%")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Vermicast 50% off", products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductByIDActiveOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ? AND status = 'Active'")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := s.ProductByID(context.Background(), 3, true)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
