package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiryo-backoffice/database"
	"hiryo-backoffice/models"
)

const productSelect = `
	SELECT product_id, product_name, product_sku, COALESCE(description, ''), category, price,
	       stock_quantity, weight_value, weight_unit, image_url, status, created_at, updated_at
	FROM products`

func scanProduct(sc scanner) (*models.Product, error) {
	var (
		p                models.Product
		sku, unit, image sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.Name, &sku, &p.Description, &p.Category, &p.Price,
		&p.StockQuantity, &p.WeightValue, &unit, &image, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.SKU = nullString(sku)
	p.WeightUnit = nullString(unit)
	p.ImageURL = nullString(image)
	return &p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ActiveProducts lists the catalog shown to shoppers.
func (s *Store) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	out, err := s.queryProducts(ctx, productSelect+` WHERE status = 'Active' ORDER BY product_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *Store) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	out, err := s.queryProducts(ctx,
		productSelect+` WHERE status = 'Active' AND category = ? ORDER BY product_name ASC`, category)
	if err != nil {
		return nil, fmt.Errorf("list products in %q: %w", category, err)
	}
	return out, nil
}

func (s *Store) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	like := "%" + escapeLike(term) + "%"
	out, err := s.queryProducts(ctx, productSelect+`
		WHERE status = 'Active' AND (product_name LIKE ? OR description LIKE ? OR category LIKE ?)
		ORDER BY product_name ASC`, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// AllProducts lists every product regardless of status, for the admin panel.
func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	out, err := s.queryProducts(ctx, productSelect+` ORDER BY created_at DESC, product_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// ProductByID returns a product; activeOnly hides products that are out of stock.
func (s *Store) ProductByID(ctx context.Context, id int64, activeOnly bool) (*models.Product, error) {
	query := productSelect + ` WHERE product_id = ?`
	if activeOnly {
		query += ` AND status = 'Active'`
	}
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if err := p.ValidateNew(); err != nil {
		return nil, err
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO products (product_name, product_sku, category, price, stock_quantity, description,
		                      image_url, status, weight_value, weight_unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		strings.TrimSpace(p.Name), p.SKU, strings.TrimSpace(p.Category), p.Price, p.StockQuantity, p.Description,
		p.ImageURL, models.StatusForStock(p.StockQuantity), p.WeightValue, p.WeightUnit)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return nil, ErrDuplicateProduct
	}
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	return s.ProductByID(ctx, id, false)
}

// UpdateProduct writes only the fields present in u. A stock change
// re-derives the product status.
func (s *Store) UpdateProduct(ctx context.Context, id int64, u models.ProductUpdate) (*models.Product, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if u.Name != nil {
		set("product_name", strings.TrimSpace(*u.Name))
	}
	if u.SKU != nil {
		if sku := strings.TrimSpace(*u.SKU); sku != "" {
			set("product_sku", sku)
		} else {
			set("product_sku", nil)
		}
	}
	if u.Category != nil {
		set("category", strings.TrimSpace(*u.Category))
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Price != nil {
		set("price", *u.Price)
	}
	if u.StockQuantity != nil {
		set("stock_quantity", *u.StockQuantity)
		set("status", models.StatusForStock(*u.StockQuantity))
	}
	if u.WeightValue != nil {
		set("weight_value", *u.WeightValue)
	}
	if u.WeightUnit != nil {
		set("weight_unit", *u.WeightUnit)
	}
	if u.ImageURL != nil {
		set("image_url", *u.ImageURL)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	res, err := s.DB.ExecContext(ctx,
		`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE product_id = ?`, args...)
	if database.IsMySQLError(err, database.ErrDuplicateEntry) {
		return nil, ErrDuplicateProduct
	}
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	if err := expectOne(res, ErrProductNotFound); err != nil {
		return nil, err
	}
	return s.ProductByID(ctx, id, false)
}

// DeleteProduct removes a product no order line refers to. Referenced
// products are rejected with a *ProductInUseError and left untouched.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.DB.QueryRowContext(ctx, `SELECT product_name FROM products WHERE product_id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrProductNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get product %d: %w", id, err)
	}

	var orders int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT order_id) FROM order_items WHERE product_id = ?`, id).Scan(&orders); err != nil {
		return "", fmt.Errorf("count orders of product %d: %w", id, err)
	}
	if orders > 0 {
		return "", &ProductInUseError{ProductName: name, Orders: orders}
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("delete product %d: %w", id, err)
	}
	if err := expectOne(res, ErrProductNotFound); err != nil {
		return "", err
	}
	return name, nil
}
