package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductRequest is the admin payload for creating or replacing a product.
// Packs and Volumes are the JSON variant tables, kept as entered.
type ProductRequest struct {
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Price        decimal.Decimal  `json:"price"`
	CutPrice     *decimal.Decimal `json:"cut_price"`
	Images       []string         `json:"images"`
	PricePerGram string           `json:"price_per_gram"`
	Packs        json.RawMessage  `json:"packs"`
	Volumes      json.RawMessage  `json:"volumes"`
}

func (r ProductRequest) toModel() *model.Product {
	product := &model.Product{
		Name:         r.Name,
		Description:  r.Description,
		Category:     model.ProductCategory(r.Category),
		Price:        r.Price,
		Images:       model.ImageList(r.Images),
		PricePerGram: r.PricePerGram,
		Packs:        rawTable(r.Packs),
		Volumes:      rawTable(r.Volumes),
	}
	if r.CutPrice != nil {
		product.CutPrice = decimal.NewNullDecimal(*r.CutPrice)
	}
	return product
}

func rawTable(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	// a JSON string holding the table is unwrapped
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ListProducts returns a page of the catalog
// GET /api/v1/products?category=&search=&limit=&offset=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{
		Search: c.Query("search"),
	}
	if raw := c.Query("category"); raw != "" {
		category := model.ParseCategory(raw)
		opts.Category = &category
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "limit must be a positive number")
			return
		}
		opts.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "offset must be a positive number")
			return
		}
		opts.Offset = offset
	}

	products, total, err := ctrl.productService.ListProducts(opts)
	if err != nil {
		log.Error("Failed to list products", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"total":    total,
	})
}

// GetProduct returns one product with its variant table
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	product, err := ctrl.productService.GetProductByID(c.Param("id"))
	if err != nil {
		ctrl.respondProductError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetPrice quotes the unit price of a variant
// GET /api/v1/products/:id/price?variant=
func (ctrl *ProductController) GetPrice(c *gin.Context) {
	quote, err := ctrl.productService.ResolvePrice(c.Param("id"), c.Query("variant"))
	if err != nil {
		ctrl.respondProductError(c, err, "resolve price")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CreateProduct adds a catalog product (admin)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the product details")
		return
	}

	product := req.toModel()
	if err := ctrl.productService.CreateProduct(product); err != nil {
		ctrl.respondProductError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created",
		"product": product,
	})
}

// UpdateProduct replaces a catalog product (admin)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the product details")
		return
	}

	product := req.toModel()
	product.ID = c.Param("id")
	if err := ctrl.productService.UpdateProduct(product); err != nil {
		ctrl.respondProductError(c, err, "update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated",
		"product": product,
	})
}

// DeleteProduct removes a catalog product (admin)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	if err := ctrl.productService.DeleteProduct(c.Param("id")); err != nil {
		ctrl.respondProductError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted",
	})
}

func (ctrl *ProductController) respondProductError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrInvalidProduct):
		apperrors.BadRequest(c, apperrors.ProductInvalid, "A product needs a name and non-negative prices")
	default:
		middleware.GetLoggerFromContext(c).Error("Product request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}
