package service

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

var (
	// ErrCartNotSaved means the change is live for the session but the
	// durable record could not be written.
	ErrCartNotSaved = errors.New("cart could not be saved")
	ErrEmptyCart    = errors.New("cart is empty")
)

// CartView is the cart as returned to clients.
type CartView struct {
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartNotifier is told about every cart change, e.g. to push it to the
// user's other open sessions.
type CartNotifier interface {
	NotifyCart(userID uint, view CartView)
}

type CartService interface {
	SignIn(userID uint) CartView
	SignOut(userID uint)
	GetCart(userID uint) CartView
	AddToCart(userID uint, productID, variant string, quantity int) (CartView, error)
	UpdateQuantity(userID uint, key cart.LineKey, delta int) (CartView, error)
	RemoveItem(userID uint, key cart.LineKey) (CartView, error)
	ClearCart(userID uint) (CartView, error)
	BuyNow(userID uint, productID, variant string, quantity int) (CartView, error)
	// Checkout runs fn on the current items and clears the cart if fn
	// succeeds. The cart is locked for the duration.
	Checkout(userID uint, fn func(items []cart.LineItem) error) error
	SetNotifier(n CartNotifier)
}

type cartSession struct {
	mu      sync.Mutex
	store   *cart.Store
	adapter *cart.Adapter
}

type cartService struct {
	productRepo repository.ProductRepository
	storage     cart.Storage

	mu       sync.Mutex
	sessions map[uint]*cartSession
	notifier CartNotifier
}

func NewCartService(productRepo repository.ProductRepository, storage cart.Storage) CartService {
	return &cartService{
		productRepo: productRepo,
		storage:     storage,
		sessions:    make(map[uint]*cartSession),
	}
}

func (s *cartService) SetNotifier(n CartNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

func identityOf(userID uint) cart.Identity {
	if userID == 0 {
		return cart.Anonymous
	}
	return cart.Identity(strconv.FormatUint(uint64(userID), 10))
}

func newCartSession(storage cart.Storage, userID uint) *cartSession {
	store := cart.NewStore()
	adapter := cart.NewAdapter(store, storage)
	adapter.SignIn(identityOf(userID))
	return &cartSession{store: store, adapter: adapter}
}

// session returns the live cart for userID, rehydrating it from storage the
// first time. Anonymous callers get a throwaway empty cart.
func (s *cartService) session(userID uint) *cartSession {
	if userID == 0 {
		return newCartSession(s.storage, 0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newCartSession(s.storage, userID)
		s.sessions[userID] = sess
	}
	return sess
}

func viewOf(store *cart.Store) CartView {
	return CartView{
		Items:      store.LineItems(),
		TotalItems: store.TotalItems(),
		TotalPrice: store.TotalPrice(),
	}
}

func (s *cartService) SignIn(userID uint) CartView {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.adapter.SignIn(identityOf(userID))
	view := viewOf(sess.store)

	logger.Info("Cart session signed in", map[string]interface{}{
		"user_id":     userID,
		"line_count":  len(view.Items),
		"total_items": view.TotalItems,
	})
	return view
}

// SignOut drops the in-memory cart; the durable record stays for next time.
func (s *cartService) SignOut(userID uint) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return
	}
	sess.mu.Lock()
	sess.adapter.SignOut()
	sess.mu.Unlock()

	logger.Info("Cart session signed out", map[string]interface{}{
		"user_id": userID,
	})
}

func (s *cartService) GetCart(userID uint) CartView {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return viewOf(sess.store)
}

func (s *cartService) lookupProduct(productID string) (cart.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.Product{}, ErrProductNotFound
		}
		return cart.Product{}, err
	}
	return product.ToCart(), nil
}

// mutate applies fn under the session lock, then reports the new state to
// the notifier. Storage failures are wrapped in ErrCartNotSaved.
func (s *cartService) mutate(userID uint, action string, fn func(store *cart.Store) error) (CartView, error) {
	sess := s.session(userID)
	sess.mu.Lock()
	err := fn(sess.store)
	view := viewOf(sess.store)
	sess.mu.Unlock()

	if errors.Is(err, cart.ErrSignInRequired) {
		logger.Warn("Cart change refused for anonymous visitor", map[string]interface{}{
			"action": action,
		})
		return view, err
	}

	s.broadcast(userID, view)

	if err != nil {
		logger.Error("Cart changed but not saved", err, map[string]interface{}{
			"user_id": userID,
			"action":  action,
		})
		return view, fmt.Errorf("%w: %v", ErrCartNotSaved, err)
	}

	logger.Debug("Cart updated", map[string]interface{}{
		"user_id":     userID,
		"action":      action,
		"line_count":  len(view.Items),
		"total_items": view.TotalItems,
		"total_price": view.TotalPrice.String(),
	})
	return view, nil
}

func (s *cartService) broadcast(userID uint, view CartView) {
	s.mu.Lock()
	n := s.notifier
	s.mu.Unlock()
	if n != nil && userID != 0 {
		n.NotifyCart(userID, view)
	}
}

func (s *cartService) AddToCart(userID uint, productID, variant string, quantity int) (CartView, error) {
	if userID == 0 {
		return CartView{Items: []cart.LineItem{}}, cart.ErrSignInRequired
	}

	product, err := s.lookupProduct(productID)
	if err != nil {
		logger.Warn("Cannot add to cart: product lookup failed", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		return CartView{}, err
	}

	return s.mutate(userID, "add", func(store *cart.Store) error {
		_, err := store.AddItem(identityOf(userID), product, variant, quantity)
		return err
	})
}

func (s *cartService) UpdateQuantity(userID uint, key cart.LineKey, delta int) (CartView, error) {
	return s.mutate(userID, "update_quantity", func(store *cart.Store) error {
		return store.UpdateQuantity(key, delta)
	})
}

func (s *cartService) RemoveItem(userID uint, key cart.LineKey) (CartView, error) {
	return s.mutate(userID, "remove", func(store *cart.Store) error {
		return store.RemoveItem(key)
	})
}

func (s *cartService) ClearCart(userID uint) (CartView, error) {
	return s.mutate(userID, "clear", func(store *cart.Store) error {
		return store.Clear()
	})
}

// BuyNow replaces the whole cart with a single line for the product.
func (s *cartService) BuyNow(userID uint, productID, variant string, quantity int) (CartView, error) {
	if userID == 0 {
		return CartView{Items: []cart.LineItem{}}, cart.ErrSignInRequired
	}

	product, err := s.lookupProduct(productID)
	if err != nil {
		return CartView{}, err
	}

	return s.mutate(userID, "buy_now", func(store *cart.Store) error {
		return store.ReplaceWith([]cart.LineItem{cart.NewLineItem(product, variant, quantity)})
	})
}

func (s *cartService) Checkout(userID uint, fn func(items []cart.LineItem) error) error {
	if userID == 0 {
		return cart.ErrSignInRequired
	}

	sess := s.session(userID)
	sess.mu.Lock()
	items := sess.store.LineItems()
	if len(items) == 0 {
		sess.mu.Unlock()
		return ErrEmptyCart
	}
	if err := fn(items); err != nil {
		sess.mu.Unlock()
		return err
	}
	clearErr := sess.store.Clear()
	view := viewOf(sess.store)
	sess.mu.Unlock()

	s.broadcast(userID, view)
	if clearErr != nil {
		// the order exists; a stale durable cart is recoverable
		logger.Error("Failed to persist cleared cart after checkout", clearErr, map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}
