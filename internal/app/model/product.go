package model

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/gausamvardhan/storefront-backend/internal/cart"
)

type ProductCategory string

const (
	CategoryPickle    ProductCategory = "pickle"
	CategoryMasala    ProductCategory = "masala"
	CategoryGhee      ProductCategory = "ghee"
	CategoryOil       ProductCategory = "oil"
	CategoryAgarbatti ProductCategory = "agarbatti"
	CategoryOther     ProductCategory = "other"
)

// ParseCategory maps free-form catalog input onto a known category.
func ParseCategory(raw string) ProductCategory {
	switch c := ProductCategory(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryPickle, CategoryMasala, CategoryGhee, CategoryOil, CategoryAgarbatti:
		return c
	default:
		return CategoryOther
	}
}

// PricingKind is the variant dimension products of this category are sold by.
func (c ProductCategory) PricingKind() cart.PricingKind {
	switch c {
	case CategoryPickle, CategoryMasala:
		return cart.ByWeight
	case CategoryGhee, CategoryOil:
		return cart.ByVolume
	case CategoryAgarbatti:
		return cart.ByPack
	default:
		return cart.NoVariant
	}
}

// ImageList is stored as text[] on postgres and as a plain array literal
// elsewhere.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *ImageList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = ImageList(arr)
	return nil
}

func (ImageList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type Product struct {
	ID          string              `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string              `gorm:"not null" json:"name"`
	Description string              `gorm:"type:text" json:"description"`
	Category    ProductCategory     `gorm:"type:varchar(20);index;default:'other'" json:"category"`
	Price       decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	CutPrice    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"cut_price"`
	Images      ImageList           `json:"images"`

	// Variant tables as entered in the catalog; only the column matching the
	// category is consulted.
	PricePerGram string `gorm:"type:text" json:"price_per_gram,omitempty"` // "250g=100,500g=180"
	Packs        string `gorm:"type:text" json:"packs,omitempty"`          // [{"name":"Pack of 6","price":240}]
	Volumes      string `gorm:"type:text" json:"volumes,omitempty"`        // [{"volume":"500ml","price":250}]

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	return nil
}

// Pricing normalizes the legacy variant columns into one tagged table.
func (p *Product) Pricing() cart.VariantPricing {
	switch p.Category.PricingKind() {
	case cart.ByWeight:
		return cart.ParseWeightTable(p.PricePerGram)
	case cart.ByVolume:
		return cart.ParseVolumeTable([]byte(p.Volumes))
	case cart.ByPack:
		return cart.ParsePackTable([]byte(p.Packs))
	default:
		return cart.VariantPricing{}
	}
}

// ToCart returns the view of p the cart works with.
func (p *Product) ToCart() cart.Product {
	return cart.Product{
		ID:        p.ID,
		Name:      p.Name,
		BasePrice: p.Price,
		CutPrice:  p.CutPrice,
		Images:    append([]string(nil), p.Images...),
		Pricing:   p.Pricing(),
	}
}
