package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidOrderInput       = errors.New("invalid order input")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// allowed forward moves; anything not listed is rejected
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:   {model.OrderStatusDelivered},
}

type CreateOrderInput struct {
	ShippingAddress string
	Phone           string
	PaymentMethod   model.PaymentMethod
}

type OrderService interface {
	CreateOrderFromCart(userID uint, input CreateOrderInput) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber string) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	carts     CartService
}

func NewOrderService(orderRepo repository.OrderRepository, carts CartService) OrderService {
	return &orderService{orderRepo: orderRepo, carts: carts}
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("GSV-%s-%s", now.Format("20060102"), suffix)
}

func orderItemsFrom(items []cart.LineItem) ([]model.OrderItem, int, decimal.Decimal) {
	orderItems := make([]model.OrderItem, 0, len(items))
	totalItems := 0
	total := decimal.Zero
	for _, item := range items {
		image := ""
		if len(item.DisplayImages) > 0 {
			image = item.DisplayImages[0]
		}
		orderItems = append(orderItems, model.OrderItem{
			ProductID:      item.ProductID,
			ProductName:    item.Name,
			SelectedWeight: item.SelectedWeight,
			SelectedVolume: item.SelectedVolume,
			SelectedPack:   item.SelectedPack,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Image:          image,
		})
		totalItems += item.Quantity
		total = total.Add(item.Subtotal())
	}
	return orderItems, totalItems, total
}

// CreateOrderFromCart places an order for everything in the cart at the
// prices captured when each item was added, then empties the cart.
func (s *orderService) CreateOrderFromCart(userID uint, input CreateOrderInput) (*model.Order, error) {
	input.ShippingAddress = strings.TrimSpace(input.ShippingAddress)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.PaymentMethod == "" {
		input.PaymentMethod = model.PaymentMethodCOD
	}
	if input.ShippingAddress == "" || input.Phone == "" || !input.PaymentMethod.Valid() {
		return nil, ErrInvalidOrderInput
	}

	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
	})

	var order *model.Order
	err := s.carts.Checkout(userID, func(items []cart.LineItem) error {
		orderItems, totalItems, total := orderItemsFrom(items)
		order = &model.Order{
			OrderNumber:     newOrderNumber(time.Now()),
			UserID:          userID,
			TotalItems:      totalItems,
			TotalAmount:     total,
			Status:          model.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   model.PaymentStatusPending,
			ShippingAddress: input.ShippingAddress,
			Phone:           input.Phone,
			OrderItems:      orderItems,
		}
		return s.orderRepo.Create(order)
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) {
			logger.Error("Failed to create order from cart", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.String(),
	})
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

// GetOrderByID returns the order only to its owner.
func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func canTransition(from, to model.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateOrderStatus moves an order along its lifecycle. Cash-on-delivery
// orders are marked paid once delivered.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !status.Valid() || !canTransition(order.Status, status) {
		logger.Warn("Rejected order status change", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, ErrInvalidStatusTransition
	}

	if err := s.orderRepo.UpdateStatus(orderID, status, strings.TrimSpace(trackingNumber)); err != nil {
		return nil, err
	}
	if status == model.OrderStatusDelivered && order.PaymentMethod == model.PaymentMethodCOD {
		if err := s.orderRepo.UpdatePaymentStatus(orderID, model.PaymentStatusCompleted); err != nil {
			return nil, err
		}
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       status,
	})
	return s.orderRepo.FindByID(orderID)
}
