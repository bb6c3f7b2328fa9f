package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	// MaxQuantity is a UI safeguard carried over from the storefront; stock
	// limits are enforced elsewhere.
	MaxQuantity = 99

	PlaceholderImage = "/images/placeholder.png"
)

var ErrSignInRequired = errors.New("sign in required to add items to cart")

// Identity is the signed-in user a cart belongs to. The zero value is the
// anonymous visitor, who has no cart.
type Identity string

const Anonymous Identity = ""

func (id Identity) Authenticated() bool {
	return id != Anonymous
}

// Product is the subset of a catalog product the cart needs.
type Product struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	CutPrice  decimal.NullDecimal
	Images    []string
	Pricing   VariantPricing
}

// LineKey identifies a line item. Unused variant fields stay empty, and an
// empty field compares equal only to another empty field.
type LineKey struct {
	ProductID      string `json:"productId"`
	SelectedWeight string `json:"selectedWeight,omitempty"`
	SelectedVolume string `json:"selectedVolume,omitempty"`
	SelectedPack   string `json:"selectedPack,omitempty"`
}

// KeyFor builds the key of p with the selection recorded in the field that
// matches the product's pricing kind.
func KeyFor(p Product, selected string) LineKey {
	key := LineKey{ProductID: p.ID}
	selected = strings.TrimSpace(selected)
	switch p.Pricing.Kind {
	case ByWeight:
		key.SelectedWeight = selected
	case ByVolume:
		key.SelectedVolume = selected
	case ByPack:
		key.SelectedPack = selected
	}
	return key
}

// LineItem is one purchasable combination in the cart. UnitPrice is captured
// when the item is first added and is not re-resolved later.
type LineItem struct {
	LineKey
	Name          string              `json:"name,omitempty"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     decimal.Decimal     `json:"price"`
	CutPrice      decimal.NullDecimal `json:"cutPrice"`
	DisplayImages []string            `json:"images"`
}

// NewLineItem snapshots p at the resolved price for selected.
func NewLineItem(p Product, selected string, quantity int) LineItem {
	images := p.Images
	if len(images) == 0 {
		images = []string{PlaceholderImage}
	}
	return LineItem{
		LineKey:       KeyFor(p, selected),
		Name:          p.Name,
		Quantity:      ClampQuantity(quantity),
		UnitPrice:     ResolvePrice(p, selected),
		CutPrice:      p.CutPrice,
		DisplayImages: append([]string(nil), images...),
	}
}

// Subtotal is UnitPrice × Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// addQuantity returns cur+delta clamped to [MinQuantity, MaxQuantity]
// without overflowing. cur must already be in range.
func addQuantity(cur, delta int) int {
	switch {
	case delta > 0 && delta > MaxQuantity-cur:
		return MaxQuantity
	case delta < 0 && delta < MinQuantity-cur:
		return MinQuantity
	}
	return ClampQuantity(cur + delta)
}

func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
