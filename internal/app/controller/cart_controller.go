package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
	"github.com/gausamvardhan/storefront-backend/internal/websocket"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

type CartController struct {
	cartService service.CartService
	hub         *websocket.Hub
	upgrader    gorillaws.Upgrader
}

// NewCartController builds the cart handlers. hub may be nil, which disables
// the live sync endpoint.
func NewCartController(cartService service.CartService, hub *websocket.Hub, allowedOrigins []string) *CartController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &CartController{
		cartService: cartService,
		hub:         hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1,max=99"`
}

// LineKeyRequest names one line item. Only the field matching the product's
// variant kind is set.
type LineKeyRequest struct {
	ProductID      string `json:"product_id" form:"product_id" binding:"required"`
	SelectedWeight string `json:"selected_weight" form:"weight"`
	SelectedVolume string `json:"selected_volume" form:"volume"`
	SelectedPack   string `json:"selected_pack" form:"pack"`
}

func (r LineKeyRequest) Key() cart.LineKey {
	return cart.LineKey{
		ProductID:      strings.TrimSpace(r.ProductID),
		SelectedWeight: strings.TrimSpace(r.SelectedWeight),
		SelectedVolume: strings.TrimSpace(r.SelectedVolume),
		SelectedPack:   strings.TrimSpace(r.SelectedPack),
	}
}

type UpdateQuantityRequest struct {
	LineKeyRequest
	Delta int `json:"delta" binding:"required,oneof=-1 1"`
}

// respondCart writes the cart or maps a cart error to its response.
func respondCart(c *gin.Context, status int, view service.CartView, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case err == nil:
		c.JSON(status, gin.H{"cart": view})
	case errors.Is(err, cart.ErrSignInRequired):
		apperrors.SignInRequired(c)
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCartNotSaved):
		log.Error("Cart change not persisted", err, map[string]interface{}{
			"action": action,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CartNotSaved, "Your cart could not be saved. Please try again")
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.InternalError(c, "")
	}
}

// GetCart returns the signed-in user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	respondCart(c, http.StatusOK, ctrl.cartService.GetCart(userID), nil, "get")
}

// AddToCart adds a product selection. Visitors get a sign-in prompt.
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required and quantity must be 1 to 99")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	userID, _ := middleware.GetUserID(c)
	view, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Variant, req.Quantity)
	respondCart(c, http.StatusOK, view, err, "add")
}

// UpdateQuantity steps a line item's quantity by one
// PATCH /api/v1/cart/items
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id and a delta of 1 or -1 are required")
		return
	}

	view, err := ctrl.cartService.UpdateQuantity(userID, req.Key(), req.Delta)
	respondCart(c, http.StatusOK, view, err, "update_quantity")
}

// RemoveItem removes one line item
// DELETE /api/v1/cart/items?product_id=&weight=&volume=&pack=
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req LineKeyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "product_id is required")
		return
	}

	view, err := ctrl.cartService.RemoveItem(userID, req.Key())
	respondCart(c, http.StatusOK, view, err, "remove")
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	view, err := ctrl.cartService.ClearCart(userID)
	respondCart(c, http.StatusOK, view, err, "clear")
}

// BuyNow replaces the cart with a single selection
// POST /api/v1/cart/buy-now
func (ctrl *CartController) BuyNow(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required and quantity must be 1 to 99")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	userID, _ := middleware.GetUserID(c)
	view, err := ctrl.cartService.BuyNow(userID, req.ProductID, req.Variant, req.Quantity)
	respondCart(c, http.StatusOK, view, err, "buy_now")
}

// Connect upgrades to a websocket that receives cart updates
// GET /api/v1/cart/ws?token=
func (ctrl *CartController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	if ctrl.hub == nil {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Live cart sync is not enabled")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := websocket.NewClient(ctrl.hub, &websocket.Conn{Conn: conn}, userID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	logger.Info("Cart sync connection established", map[string]interface{}{
		"user_id": userID,
	})
}
