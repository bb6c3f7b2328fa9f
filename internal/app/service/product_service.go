package service

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

const (
	defaultProductPageSize = 24
	maxProductPageSize     = 100
)

type ProductListOptions struct {
	Category *model.ProductCategory
	Search   string
	Limit    int
	Offset   int
}

// ProductDetail is a catalog product with its normalized variant table.
type ProductDetail struct {
	*model.Product
	Pricing cart.VariantPricing `json:"pricing"`
}

// PriceQuote is what the resolver yields for one selection.
type PriceQuote struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Matched   bool            `json:"matched"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) ([]ProductDetail, int64, error)
	GetProductByID(id string) (*ProductDetail, error)
	ResolvePrice(id, variant string) (*PriceQuote, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(product *model.Product) error
	DeleteProduct(id string) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func detailOf(p *model.Product) ProductDetail {
	return ProductDetail{Product: p, Pricing: p.Pricing()}
}

func (s *productService) ListProducts(opts ProductListOptions) ([]ProductDetail, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}

	products, total, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Category: opts.Category,
		Search:   opts.Search,
		Limit:    limit,
		Offset:   opts.Offset,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	details := make([]ProductDetail, len(products))
	for i := range products {
		details[i] = detailOf(&products[i])
	}
	return details, total, nil
}

func (s *productService) findProduct(id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProductByID(id string) (*ProductDetail, error) {
	product, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}
	detail := detailOf(product)
	return &detail, nil
}

// ResolvePrice quotes the unit price for variant, falling back to the base
// price when the variant is not in the product's table.
func (s *productService) ResolvePrice(id, variant string) (*PriceQuote, error) {
	product, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}

	p := product.ToCart()
	_, matched := p.Pricing.Lookup(variant)
	return &PriceQuote{
		ProductID: p.ID,
		Variant:   strings.TrimSpace(variant),
		Price:     cart.ResolvePrice(p, variant),
		Matched:   matched,
	}, nil
}

func validateProduct(product *model.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" || product.Price.IsNegative() {
		return ErrInvalidProduct
	}
	if product.CutPrice.Valid && product.CutPrice.Decimal.IsNegative() {
		return ErrInvalidProduct
	}
	product.Category = model.ParseCategory(string(product.Category))
	return nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"category":   product.Category,
		"pricing":    product.Category.PricingKind().String(),
	})
	return nil
}

func (s *productService) UpdateProduct(product *model.Product) error {
	existing, err := s.findProduct(product.ID)
	if err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	product.CreatedAt = existing.CreatedAt

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (s *productService) DeleteProduct(id string) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
