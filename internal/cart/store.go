package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Observer is called with the full line-item sequence after every mutation.
type Observer func(items []LineItem) error

// Store holds the ordered line items of one cart. It is not safe for
// concurrent use; callers serialise access per cart.
type Store struct {
	items     []LineItem
	observers []Observer
}

func NewStore() *Store {
	return &Store{}
}

// Observe registers fn to run after each mutation. Observer errors are
// returned from the mutating call; the in-memory change is kept.
func (s *Store) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// LineItems returns a copy of the current line items.
func (s *Store) LineItems() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Find returns the line item with the given key.
func (s *Store) Find(key LineKey) (LineItem, bool) {
	if i := s.indexOf(key); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// AddItem merges p into the cart. An existing line with the same key grows by
// quantity (capped at MaxQuantity); otherwise a new line is appended with the
// price resolved now. Quantities below one count as one, so adding never
// shrinks a line. Anonymous owners are refused without any change.
func (s *Store) AddItem(owner Identity, p Product, selected string, quantity int) (LineItem, error) {
	if !owner.Authenticated() {
		return LineItem{}, ErrSignInRequired
	}
	if quantity < MinQuantity {
		quantity = MinQuantity
	}

	key := KeyFor(p, selected)
	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity = addQuantity(s.items[i].Quantity, quantity)
		return s.items[i], s.notify()
	}

	item := NewLineItem(p, selected, quantity)
	s.items = append(s.items, item)
	return item, s.notify()
}

// UpdateQuantity adjusts the quantity of key by delta within [1, 99]. Unknown
// keys are ignored.
func (s *Store) UpdateQuantity(key LineKey, delta int) error {
	i := s.indexOf(key)
	if i < 0 {
		return nil
	}
	s.items[i].Quantity = addQuantity(s.items[i].Quantity, delta)
	return s.notify()
}

// RemoveItem deletes the line with key. Unknown keys are ignored.
func (s *Store) RemoveItem(key LineKey) error {
	i := s.indexOf(key)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return s.notify()
}

func (s *Store) Clear() error {
	s.items = nil
	return s.notify()
}

// ReplaceWith substitutes the whole sequence, as used by Buy Now.
func (s *Store) ReplaceWith(items []LineItem) error {
	s.items = normalize(items)
	return s.notify()
}

// restore loads items without notifying observers; used for rehydration.
func (s *Store) restore(items []LineItem) {
	s.items = normalize(items)
}

func (s *Store) indexOf(key LineKey) int {
	for i := range s.items {
		if s.items[i].LineKey == key {
			return i
		}
	}
	return -1
}

func (s *Store) notify() error {
	if len(s.observers) == 0 {
		return nil
	}
	snapshot := s.LineItems()
	var errs []error
	for _, fn := range s.observers {
		if err := fn(snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// normalize clamps quantities, fills missing images and merges lines that
// share a key, keeping first-seen order.
func normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[LineKey]int, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if i, ok := index[item.LineKey]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, ClampQuantity(item.Quantity))
			continue
		}
		item.Quantity = ClampQuantity(item.Quantity)
		if len(item.DisplayImages) == 0 {
			item.DisplayImages = []string{PlaceholderImage}
		} else {
			item.DisplayImages = append([]string(nil), item.DisplayImages...)
		}
		index[item.LineKey] = len(out)
		out = append(out, item)
	}
	return out
}
