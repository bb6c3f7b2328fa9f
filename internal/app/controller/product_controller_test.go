package controller

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
)

func TestProductController_ListProducts(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeJSON(t, w)
	assert.Equal(t, float64(3), response["total"])

	w = env.do(t, http.MethodGet, "/products?category=ghee", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeJSON(t, w)
	assert.Equal(t, float64(1), response["total"])
	product := response["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "A2 Ghee", product["name"])
	pricing := product["pricing"].(map[string]interface{})
	assert.Len(t, pricing["options"], 2)

	w = env.do(t, http.MethodGet, "/products?search=mango&limit=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeJSON(t, w)["count"])

	w = env.do(t, http.MethodGet, "/products?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_GetProduct(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/products/"+env.products["pickle"].ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	product := decodeJSON(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "Mango Pickle", product["name"])

	w = env.do(t, http.MethodGet, "/products/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ProductNotFound, decodeJSON(t, w)["error"])
}

func TestProductController_GetPrice(t *testing.T) {
	env := setupTestEnv(t)
	id := env.products["pickle"].ID

	tests := []struct {
		name        string
		variant     string
		wantPrice   float64
		wantMatched bool
	}{
		{name: "Listed weight", variant: "500g", wantPrice: 180, wantMatched: true},
		{name: "Unlisted weight", variant: "1kg", wantPrice: 90, wantMatched: false},
		{name: "No variant", variant: "", wantPrice: 90, wantMatched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/products/"+id+"/price?variant="+tt.variant, nil, "")
			require.Equal(t, http.StatusOK, w.Code)
			response := decodeJSON(t, w)
			assert.Equal(t, tt.wantPrice, response["price"])
			assert.Equal(t, tt.wantMatched, response["matched"])
		})
	}
}

func TestProductController_AdminCRUD(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)
	_, userToken := env.createUser(t, "user@example.com", model.RoleUser)

	cut := decimal.RequireFromString("450")
	req := ProductRequest{
		Name:     "Cow Ghee Diya",
		Category: "agarbatti",
		Price:    decimal.RequireFromString("120"),
		CutPrice: &cut,
		Packs:    []byte(`[{"name":"Pack of 12","price":400}]`),
	}

	w := env.do(t, http.MethodPost, "/admin/products", req, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/admin/products", req, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON(t, w)["product"].(map[string]interface{})
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, float64(450), created["cut_price"])

	w = env.do(t, http.MethodGet, "/products/"+id+"/price?variant=Pack%20of%2012", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(400), decodeJSON(t, w)["price"])

	req.Name = "Cow Ghee Diya (Large)"
	req.Price = decimal.RequireFromString("150")
	w = env.do(t, http.MethodPut, "/admin/products/"+id, req, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Cow Ghee Diya (Large)", decodeJSON(t, w)["product"].(map[string]interface{})["name"])

	w = env.do(t, http.MethodDelete, "/admin/products/"+id, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/products/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/admin/products/"+id, nil, adminToken).Code)
}

func TestProductController_CreateProduct_Invalid(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)

	w := env.do(t, http.MethodPost, "/admin/products", ProductRequest{
		Name:  "   ",
		Price: decimal.RequireFromString("10"),
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ProductInvalid, decodeJSON(t, w)["error"])

	w = env.do(t, http.MethodPost, "/admin/products", ProductRequest{
		Name:  "Negative",
		Price: decimal.RequireFromString("-1"),
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRawTable(t *testing.T) {
	assert.Equal(t, "", rawTable(nil))
	assert.Equal(t, "", rawTable([]byte("null")))
	assert.Equal(t, `[{"name":"6","price":1}]`, rawTable([]byte(`[{"name":"6","price":1}]`)))
	assert.Equal(t, `[{"name":"6"}]`, rawTable([]byte(`"[{\"name\":\"6\"}]"`)))
}
