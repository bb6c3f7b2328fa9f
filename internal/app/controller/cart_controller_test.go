package controller

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
)

func TestCartController_AddToCart_Anonymous(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{
		ProductID: env.products["soap"].ID,
		Quantity:  1,
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CartSignInRequired, decodeJSON(t, w)["error"])
}

func TestCartController_AddToCart_MergesVariants(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	pickle := env.products["pickle"].ID

	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: pickle, Variant: "250g", Quantity: 1}, token))
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: pickle, Variant: "500g"}, token))
	body := cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: pickle, Variant: "250g", Quantity: 2}, token))

	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "250g", first["selectedWeight"])
	assert.Equal(t, float64(3), first["quantity"])
	assert.Equal(t, float64(100), first["price"])
	assert.Equal(t, float64(4), body["total_items"])
	assert.Equal(t, float64(480), body["total_price"])
}

func TestCartController_AddToCart_UnknownProduct(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)

	w := env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: "missing", Quantity: 1}, token)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ProductNotFound, decodeJSON(t, w)["error"])
}

func TestCartController_AddToCart_MissingProductID(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)

	w := env.do(t, http.MethodPost, "/cart/items", map[string]interface{}{"quantity": 1}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_AddToCart_QuantityOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "Negative", quantity: -7},
		{name: "Above ceiling", quantity: 100},
		{name: "Huge", quantity: 1 << 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
			soap := env.products["soap"].ID

			cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: soap, Quantity: 10}, token))

			w := env.do(t, http.MethodPost, "/cart/items", map[string]interface{}{
				"product_id": soap,
				"quantity":   tt.quantity,
			}, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := cartOf(t, env.do(t, http.MethodGet, "/cart", nil, token))
			assert.Equal(t, float64(10), body["total_items"])
		})
	}
}

func TestCartController_AddToCart_SaturatesAtCeiling(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	soap := env.products["soap"].ID

	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: soap, Quantity: 60}, token))
	body := cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: soap, Quantity: 60}, token))

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(99), items[0].(map[string]interface{})["quantity"])
}

func TestCartController_GetCart_RequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/cart", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_GetCart_Empty(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)

	body := cartOf(t, env.do(t, http.MethodGet, "/cart", nil, token))
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["total_items"])
	assert.Equal(t, float64(0), body["total_price"])
}

func TestCartController_UpdateQuantity(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	ghee := env.products["ghee"].ID
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: ghee, Variant: "1L", Quantity: 1}, token))

	key := LineKeyRequest{ProductID: ghee, SelectedVolume: "1L"}
	body := cartOf(t, env.do(t, http.MethodPatch, "/cart/items", UpdateQuantityRequest{LineKeyRequest: key, Delta: 1}, token))
	assert.Equal(t, float64(2), body["total_items"])
	assert.Equal(t, float64(3200), body["total_price"])

	cartOf(t, env.do(t, http.MethodPatch, "/cart/items", UpdateQuantityRequest{LineKeyRequest: key, Delta: -1}, token))
	body = cartOf(t, env.do(t, http.MethodPatch, "/cart/items", UpdateQuantityRequest{LineKeyRequest: key, Delta: -1}, token))
	assert.Equal(t, float64(1), body["total_items"])
}

func TestCartController_UpdateQuantity_InvalidDelta(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)

	w := env.do(t, http.MethodPatch, "/cart/items", UpdateQuantityRequest{
		LineKeyRequest: LineKeyRequest{ProductID: env.products["soap"].ID},
		Delta:          5,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_RemoveItem(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	pickle := env.products["pickle"].ID
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: pickle, Variant: "250g"}, token))
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: pickle, Variant: "500g"}, token))

	query := url.Values{"product_id": {pickle}, "weight": {"250g"}}
	body := cartOf(t, env.do(t, http.MethodDelete, "/cart/items?"+query.Encode(), nil, token))

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "500g", items[0].(map[string]interface{})["selectedWeight"])

	// removing again is a no-op
	body = cartOf(t, env.do(t, http.MethodDelete, "/cart/items?"+query.Encode(), nil, token))
	assert.Len(t, body["items"], 1)

	w := env.do(t, http.MethodDelete, "/cart/items", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_ClearCart(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: env.products["soap"].ID, Quantity: 3}, token))

	body := cartOf(t, env.do(t, http.MethodDelete, "/cart", nil, token))
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["total_price"])
}

func TestCartController_BuyNow_ReplacesCart(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: env.products["soap"].ID, Quantity: 3}, token))

	body := cartOf(t, env.do(t, http.MethodPost, "/cart/buy-now", AddToCartRequest{ProductID: env.products["ghee"].ID, Variant: "500ml"}, token))

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, env.products["ghee"].ID, item["productId"])
	assert.Equal(t, "500ml", item["selectedVolume"])
	assert.Equal(t, float64(850), body["total_price"])

	w := env.do(t, http.MethodPost, "/cart/buy-now", AddToCartRequest{ProductID: env.products["ghee"].ID}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_CartSurvivesLogout(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.createUser(t, "buyer@example.com", model.RoleUser)
	cartOf(t, env.do(t, http.MethodPost, "/cart/items", AddToCartRequest{ProductID: env.products["soap"].ID, Quantity: 2}, token))

	w := env.do(t, http.MethodPost, "/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	view := env.carts.SignIn(user.ID)
	assert.Equal(t, 2, view.TotalItems)
}
