package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

// Storage is a durable key-value store for serialized carts. Get returns
// (nil, nil) when the key is absent.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// StorageKey is the durable record key for a user's cart.
func StorageKey(id Identity) string {
	return "cart_" + string(id)
}

// recordItem is the stored shape of a line item. Prices are written as JSON
// numbers regardless of how decimals marshal elsewhere in the process.
type recordItem struct {
	LineKey
	Name     string       `json:"name,omitempty"`
	Quantity int          `json:"quantity"`
	Price    json.Number  `json:"price"`
	CutPrice *json.Number `json:"cutPrice"`
	Images   []string     `json:"images"`
}

// EncodeRecord serializes items as a flat JSON array.
func EncodeRecord(items []LineItem) ([]byte, error) {
	record := make([]recordItem, 0, len(items))
	for _, item := range items {
		ri := recordItem{
			LineKey:  item.LineKey,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    json.Number(item.UnitPrice.String()),
			Images:   item.DisplayImages,
		}
		if item.CutPrice.Valid {
			cut := json.Number(item.CutPrice.Decimal.String())
			ri.CutPrice = &cut
		}
		record = append(record, ri)
	}
	return json.Marshal(record)
}

// DecodeRecord parses a durable record. Malformed data decodes to an empty
// cart rather than an error.
func DecodeRecord(data []byte) ([]LineItem, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return normalize(items), true
}

// Adapter mirrors a Store into Storage under the current identity.
type Adapter struct {
	store   *Store
	storage Storage
	owner   Identity
}

// NewAdapter attaches an adapter to store. The store starts signed out.
func NewAdapter(store *Store, storage Storage) *Adapter {
	a := &Adapter{store: store, storage: storage}
	store.Observe(a.write)
	return a
}

func (a *Adapter) Owner() Identity {
	return a.owner
}

// SignIn switches to id and loads its durable record into the store. A
// missing, unreadable or malformed record leaves the cart empty.
func (a *Adapter) SignIn(id Identity) {
	a.owner = id
	a.store.restore(nil)
	if !id.Authenticated() {
		return
	}

	key := StorageKey(id)
	data, err := a.storage.Get(key)
	if err != nil {
		logger.Warn("Failed to read cart record, starting empty", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if data == nil {
		logger.Debug("No cart record found", map[string]interface{}{
			"key": key,
		})
		return
	}

	items, ok := DecodeRecord(data)
	if !ok {
		logger.Warn("Malformed cart record ignored", map[string]interface{}{
			"key": key,
		})
		return
	}
	a.store.restore(items)
	logger.Debug("Cart record restored", map[string]interface{}{
		"key":   key,
		"count": len(items),
	})
}

// SignOut drops the in-memory cart. The durable record is left in place for
// the next sign-in.
func (a *Adapter) SignOut() {
	a.owner = Anonymous
	a.store.restore(nil)
}

func (a *Adapter) write(items []LineItem) error {
	if !a.owner.Authenticated() {
		return nil
	}
	data, err := EncodeRecord(items)
	if err != nil {
		return fmt.Errorf("encode cart record: %w", err)
	}
	key := StorageKey(a.owner)
	if err := a.storage.Set(key, data); err != nil {
		logger.Error("Failed to write cart record", err, map[string]interface{}{
			"key":   key,
			"count": len(items),
		})
		return fmt.Errorf("write cart record %s: %w", key, err)
	}
	return nil
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), value...)
	return nil
}
