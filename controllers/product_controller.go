package controllers

import (
	"context"
	"errors"
	"strconv"

	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductStore interface {
	ActiveProducts(ctx context.Context) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id int64, activeOnly bool) (*models.Product, error)
	AddProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, u models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) (string, error)
}

type ProductController struct {
	store ProductStore
	stats StatsInvalidator
}

func NewProductController(s ProductStore, stats StatsInvalidator) *ProductController {
	return &ProductController{store: s, stats: stats}
}

// Handle serves /api/products.
func (pc *ProductController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_all_products":         public(pc.GetAllProducts),
		"get_product_details":      public(pc.GetProductDetails),
		"get_products_by_category": public(pc.GetProductsByCategory),
		"search_products":          public(pc.SearchProducts),
		"get_products_for_admin":   admin(pc.GetProductsForAdmin),
		"add_product":              admin(pc.AddProduct),
		"update_product":           admin(pc.UpdateProduct),
		"delete_product":           admin(pc.DeleteProduct),
	})
}

func (pc *ProductController) list(c *gin.Context, products []models.Product, err error) {
	if err != nil {
		serverError(c, "Failed to list products", err)
		return
	}
	ok(c, gin.H{"products": nonNil(products)})
}

func (pc *ProductController) GetAllProducts(c *gin.Context) {
	products, err := pc.store.ActiveProducts(c.Request.Context())
	pc.list(c, products, err)
}

func (pc *ProductController) GetProductsByCategory(c *gin.Context) {
	category := param(c, "category")
	if category == "" {
		invalid(c, "Category is required")
		return
	}
	products, err := pc.store.ProductsByCategory(c.Request.Context(), category)
	pc.list(c, products, err)
}

func (pc *ProductController) SearchProducts(c *gin.Context) {
	term := param(c, "search_query")
	if term == "" {
		invalid(c, "Search query is required")
		return
	}
	products, err := pc.store.SearchProducts(c.Request.Context(), term)
	pc.list(c, products, err)
}

func (pc *ProductController) GetProductsForAdmin(c *gin.Context) {
	products, err := pc.store.AllProducts(c.Request.Context())
	pc.list(c, products, err)
}

func (pc *ProductController) GetProductDetails(c *gin.Context) {
	id, found := idParam(c, "product_id")
	if !found {
		invalid(c, "Product ID is required")
		return
	}
	p, err := pc.store.ProductByID(c.Request.Context(), id, true)
	if errors.Is(err, store.ErrProductNotFound) {
		invalid(c, "Product not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to get product", err)
		return
	}
	ok(c, gin.H{"product": p})
}

func (pc *ProductController) AddProduct(c *gin.Context) {
	stock, err := stockParam(c)
	if err != nil {
		invalid(c, err.Error())
		return
	}
	p := models.Product{
		Name:        param(c, "product_name"),
		SKU:         optionalString(c, "product_sku"),
		Description: param(c, "description"),
		Category:    param(c, "category"),
		Price:       models.NewMoney(decimalParam(c, "price")),
		WeightUnit:  optionalString(c, "weight_unit"),
		ImageURL:    optionalString(c, "image_url"),
	}
	if stock != nil {
		p.StockQuantity = *stock
	}
	if w := optionalDecimal(c, "weight_value"); w != nil {
		p.WeightValue = decimal.NewNullDecimal(*w)
	}
	if err := p.ValidateNew(); err != nil {
		invalid(c, err.Error())
		return
	}

	created, err := pc.store.AddProduct(c.Request.Context(), p)
	if errors.Is(err, store.ErrDuplicateProduct) {
		invalid(c, "A product with this name or SKU already exists.")
		return
	}
	if err != nil {
		serverError(c, "Failed to add product", err)
		return
	}
	invalidateStats(c, pc.stats)
	ok(c, gin.H{"message": "Product added successfully!", "product": created, "product_id": created.ID})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, found := idParam(c, "product_id")
	if !found {
		invalid(c, "Product ID is required")
		return
	}

	u := models.ProductUpdate{
		Name:        optionalString(c, "product_name"),
		SKU:         optionalString(c, "product_sku"),
		Category:    optionalString(c, "category"),
		Description: optionalString(c, "description"),
		Price:       optionalDecimal(c, "price"),
		WeightValue: optionalDecimal(c, "weight_value"),
		WeightUnit:  optionalString(c, "weight_unit"),
		ImageURL:    optionalString(c, "image_url"),
	}
	stock, err := stockParam(c)
	if err != nil {
		invalid(c, err.Error())
		return
	}
	u.StockQuantity = stock
	if hasParam(c, "price") && u.Price == nil {
		invalid(c, "Price must be a number.")
		return
	}
	if err := u.Validate(); err != nil {
		invalid(c, err.Error())
		return
	}

	updated, err := pc.store.UpdateProduct(c.Request.Context(), id, u)
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		invalid(c, "Product not found")
	case errors.Is(err, store.ErrDuplicateProduct):
		invalid(c, "A product with this name or SKU already exists.")
	case err != nil:
		serverError(c, "Failed to update product", err)
	default:
		invalidateStats(c, pc.stats)
		ok(c, gin.H{"message": "Product updated successfully!", "product": updated})
	}
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, found := idParam(c, "product_id")
	if !found {
		invalid(c, "Product ID is required")
		return
	}

	name, err := pc.store.DeleteProduct(c.Request.Context(), id)
	var inUse *store.ProductInUseError
	switch {
	case errors.As(err, &inUse):
		invalid(c, inUse.Error())
	case errors.Is(err, store.ErrProductNotFound):
		invalid(c, "Product not found")
	case err != nil:
		serverError(c, "Failed to delete product", err)
	default:
		invalidateStats(c, pc.stats)
		ok(c, gin.H{"message": "Product \"" + name + "\" deleted successfully."})
	}
}

var errStockNotNumber = errors.New("Stock quantity must be a whole number.")

// stockParam returns nil when stock_quantity was not sent or is blank.
func stockParam(c *gin.Context) (*int, error) {
	raw := param(c, "stock_quantity")
	if raw == "" {
		return nil, nil
	}
	stock, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errStockNotNumber
	}
	return &stock, nil
}

// optionalString returns nil when the field was not sent.
func optionalString(c *gin.Context, key string) *string {
	if !hasParam(c, key) {
		return nil
	}
	v := param(c, key)
	return &v
}

// optionalDecimal returns nil when the field was not sent or is not a number.
func optionalDecimal(c *gin.Context, key string) *decimal.Decimal {
	if !hasParam(c, key) {
		return nil
	}
	d, err := decimal.NewFromString(param(c, key))
	if err != nil {
		return nil
	}
	return &d
}
