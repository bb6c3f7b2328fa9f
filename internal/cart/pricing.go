package cart

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingKind identifies which variant dimension a product is sold by.
type PricingKind uint8

const (
	NoVariant PricingKind = iota
	ByWeight
	ByPack
	ByVolume
)

func (k PricingKind) String() string {
	switch k {
	case ByWeight:
		return "weight"
	case ByPack:
		return "pack"
	case ByVolume:
		return "volume"
	default:
		return "none"
	}
}

func (k PricingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// VariantPrice is one selectable option of a variant table.
type VariantPrice struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// VariantPricing is the normalised form of the three legacy pricing shapes.
// Options keep the order in which the catalog listed them.
type VariantPricing struct {
	Kind    PricingKind    `json:"kind"`
	Options []VariantPrice `json:"options,omitempty"`
}

// Lookup returns the price of the option whose label equals label.
func (vp VariantPricing) Lookup(label string) (decimal.Decimal, bool) {
	label = strings.TrimSpace(label)
	if vp.Kind == NoVariant || label == "" {
		return decimal.Zero, false
	}
	for _, opt := range vp.Options {
		if opt.Label == label {
			return opt.Price, true
		}
	}
	return decimal.Zero, false
}

// ResolvePrice returns the unit price of p for the selected variant. It falls
// back to the base price whenever the selection does not name a table entry.
func ResolvePrice(p Product, selected string) decimal.Decimal {
	if price, ok := p.Pricing.Lookup(selected); ok {
		return price
	}
	return p.BasePrice
}

// ParsePrice converts catalog price text into a decimal. Anything that does
// not parse yields zero so a broken price renders as ₹0.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "Rs")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseWeightTable parses the inline "250g=100,500g=180" format used by
// weight-priced categories. Segments without a label are skipped.
func ParseWeightTable(raw string) VariantPricing {
	var opts []VariantPrice
	for _, segment := range strings.Split(raw, ",") {
		label, price, found := strings.Cut(segment, "=")
		label = strings.TrimSpace(label)
		if !found || label == "" {
			continue
		}
		opts = append(opts, VariantPrice{Label: label, Price: ParsePrice(price)})
	}
	return newPricing(ByWeight, opts)
}

// flexPrice accepts a price written either as a JSON number or a string.
type flexPrice decimal.Decimal

func (f *flexPrice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	*f = flexPrice(ParsePrice(s))
	return nil
}

type packEntry struct {
	Name  string    `json:"name"`
	Price flexPrice `json:"price"`
}

type volumeEntry struct {
	Volume string    `json:"volume"`
	Price  flexPrice `json:"price"`
}

// ParsePackTable parses a JSON list of {"name","price"} objects.
func ParsePackTable(data []byte) VariantPricing {
	var entries []packEntry
	if len(data) == 0 || json.Unmarshal(data, &entries) != nil {
		return VariantPricing{}
	}
	opts := make([]VariantPrice, 0, len(entries))
	for _, e := range entries {
		if label := strings.TrimSpace(e.Name); label != "" {
			opts = append(opts, VariantPrice{Label: label, Price: decimal.Decimal(e.Price)})
		}
	}
	return newPricing(ByPack, opts)
}

// ParseVolumeTable parses a JSON list of {"volume","price"} objects.
func ParseVolumeTable(data []byte) VariantPricing {
	var entries []volumeEntry
	if len(data) == 0 || json.Unmarshal(data, &entries) != nil {
		return VariantPricing{}
	}
	opts := make([]VariantPrice, 0, len(entries))
	for _, e := range entries {
		if label := strings.TrimSpace(e.Volume); label != "" {
			opts = append(opts, VariantPrice{Label: label, Price: decimal.Decimal(e.Price)})
		}
	}
	return newPricing(ByVolume, opts)
}

// An empty table behaves exactly like no table at all.
func newPricing(kind PricingKind, opts []VariantPrice) VariantPricing {
	if len(opts) == 0 {
		return VariantPricing{}
	}
	return VariantPricing{Kind: kind, Options: opts}
}
