package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	"github.com/gausamvardhan/storefront-backend/internal/db"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
	"github.com/gausamvardhan/storefront-backend/pkg/util"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	// Responses are asserted with prices as JSON numbers, as cmd/server sets.
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	carts    service.CartService
	products map[string]*model.Product
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRecordRepository(testDB)

	cartService := service.NewCartService(productRepo, cartRepo)
	productService := service.NewProductService(productRepo)
	authService := service.NewAuthService(userRepo, cartService, nil, testSecret, 15*time.Minute, time.Hour)
	orderService := service.NewOrderService(orderRepo, cartService)

	authCtrl := NewAuthController(authService)
	productCtrl := NewProductController(productService)
	cartCtrl := NewCartController(cartService, nil, []string{"http://localhost:3000"})
	orderCtrl := NewOrderController(orderService, authService)

	mw := middleware.NewAuthMiddleware(testSecret, nil)
	router := gin.New()

	auth := router.Group("/auth")
	auth.POST("/register", authCtrl.Register)
	auth.POST("/login", authCtrl.Login)
	auth.POST("/logout", mw.Authenticate(), authCtrl.Logout)
	auth.GET("/me", mw.Authenticate(), authCtrl.GetMe)
	auth.PUT("/me", mw.Authenticate(), authCtrl.UpdateMe)

	router.GET("/products", productCtrl.ListProducts)
	router.GET("/products/:id", productCtrl.GetProduct)
	router.GET("/products/:id/price", productCtrl.GetPrice)

	carts := router.Group("/cart")
	carts.POST("/items", mw.OptionalAuthenticate(), cartCtrl.AddToCart)
	carts.POST("/buy-now", mw.OptionalAuthenticate(), cartCtrl.BuyNow)
	carts.Use(mw.Authenticate())
	carts.GET("", cartCtrl.GetCart)
	carts.PATCH("/items", cartCtrl.UpdateQuantity)
	carts.DELETE("/items", cartCtrl.RemoveItem)
	carts.DELETE("", cartCtrl.ClearCart)

	orders := router.Group("/orders", mw.Authenticate())
	orders.POST("", orderCtrl.CreateOrder)
	orders.GET("", orderCtrl.GetOrders)
	orders.GET("/:id", orderCtrl.GetOrderByID)
	orders.GET("/:id/invoice", orderCtrl.DownloadInvoice)

	admin := router.Group("/admin", mw.Authenticate(), mw.RequireRole(model.RoleAdmin))
	admin.POST("/products", productCtrl.CreateProduct)
	admin.PUT("/products/:id", productCtrl.UpdateProduct)
	admin.DELETE("/products/:id", productCtrl.DeleteProduct)
	admin.PUT("/orders/:id/status", orderCtrl.UpdateOrderStatus)

	return &testEnv{
		db:       testDB,
		router:   router,
		carts:    cartService,
		products: seedProducts(t, testDB),
	}
}

func seedProducts(t *testing.T, testDB *gorm.DB) map[string]*model.Product {
	products := map[string]*model.Product{
		"pickle": {
			Name:         "Mango Pickle",
			Category:     model.CategoryPickle,
			Price:        decimal.RequireFromString("90"),
			PricePerGram: "250g=100,500g=180",
		},
		"ghee": {
			Name:     "A2 Ghee",
			Category: model.CategoryGhee,
			Price:    decimal.RequireFromString("850"),
			Volumes:  `[{"volume":"500ml","price":850},{"volume":"1L","price":1600}]`,
		},
		"soap": {
			Name:     "Panchgavya Soap",
			Category: model.CategoryOther,
			Price:    decimal.RequireFromString("75"),
		},
	}
	for _, p := range products {
		require.NoError(t, testDB.Create(p).Error)
	}
	return products
}

func (e *testEnv) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Test User", Role: role}
	require.NoError(t, e.db.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// cartOf extracts the "cart" object of a cart response.
func cartOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decodeJSON(t, w)
	c, ok := response["cart"].(map[string]interface{})
	require.True(t, ok, "missing cart in %s", w.Body.String())
	return c
}
