package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderController struct {
	orderService service.OrderService
	authService  service.AuthService
}

func NewOrderController(orderService service.OrderService, authService service.AuthService) *OrderController {
	return &OrderController{
		orderService: orderService,
		authService:  authService,
	}
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	PaymentMethod   string `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}

func respondOrderError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrEmptyCart):
		apperrors.BadRequest(c, apperrors.OrderEmptyCart, "Your cart is empty")
	case errors.Is(err, service.ErrInvalidOrderInput):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Shipping address, phone and a valid payment method are required")
	case errors.Is(err, service.ErrInvalidStatusTransition):
		apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "The order cannot move to that status")
	default:
		middleware.GetLoggerFromContext(c).Error("Order request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// CreateOrder checks out the cart
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Shipping address and phone are required")
		return
	}

	order, err := ctrl.orderService.CreateOrderFromCart(userID, service.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondOrderError(c, err, "create order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":      userID,
		"order_number": order.OrderNumber,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}

// GetOrders lists the user's orders
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		respondOrderError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one of the user's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID)
	if err != nil {
		respondOrderError(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// DownloadInvoice streams the order invoice as a spreadsheet
// GET /api/v1/orders/:id/invoice
func (ctrl *OrderController) DownloadInvoice(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID)
	if err != nil {
		respondOrderError(c, err, "get order")
		return
	}
	customer, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondOrderError(c, err, "get customer")
		return
	}

	buf, err := service.RenderInvoice(order, customer)
	if err != nil {
		log.Error("Failed to render invoice", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "Failed to generate invoice")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.xlsx"`, order.OrderNumber))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateOrderStatus moves an order along its lifecycle (admin)
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status is required")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(orderID, model.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		respondOrderError(c, err, "update order status")
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}
