package repository

import (
	"testing"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, OrderRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	user := newTestUser("buyer@example.com")
	require.NoError(t, testDB.Create(user).Error)

	return testDB, NewOrderRepository(testDB), user
}

func newTestOrder(userID uint, number string) *model.Order {
	return &model.Order{
		OrderNumber:     number,
		UserID:          userID,
		TotalItems:      3,
		TotalAmount:     decimal.RequireFromString("460"),
		Status:          model.OrderStatusPending,
		PaymentMethod:   model.PaymentMethodCOD,
		PaymentStatus:   model.PaymentStatusPending,
		ShippingAddress: "12 MG Road, Pune",
		Phone:           "9876543210",
		OrderItems: []model.OrderItem{
			{ProductID: "P1", ProductName: "Mango Pickle", SelectedWeight: "250g", Quantity: 2, UnitPrice: decimal.RequireFromString("180")},
			{ProductID: "P2", ProductName: "Agarbatti", SelectedPack: "Pack of 1", Quantity: 1, UnitPrice: decimal.RequireFromString("100")},
		},
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	_, repo, user := setupOrderTest(t)

	order := newTestOrder(user.ID, "GSV-0001")
	require.NoError(t, repo.Create(order))
	assert.NotZero(t, order.ID)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "GSV-0001", found.OrderNumber)
	assert.True(t, decimal.RequireFromString("460").Equal(found.TotalAmount))
	require.Len(t, found.OrderItems, 2)
	assert.Equal(t, "250g", found.OrderItems[0].Variant())
	assert.Equal(t, "Pack of 1", found.OrderItems[1].Variant())
	assert.True(t, decimal.RequireFromString("360").Equal(found.OrderItems[0].Subtotal()))

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_DuplicateOrderNumber(t *testing.T) {
	_, repo, user := setupOrderTest(t)

	require.NoError(t, repo.Create(newTestOrder(user.ID, "GSV-0001")))
	assert.Error(t, repo.Create(newTestOrder(user.ID, "GSV-0001")))
}

func TestOrderRepository_FindByUserID(t *testing.T) {
	testDB, repo, user := setupOrderTest(t)

	other := newTestUser("other@example.com")
	require.NoError(t, testDB.Create(other).Error)

	require.NoError(t, repo.Create(newTestOrder(user.ID, "GSV-0001")))
	require.NoError(t, repo.Create(newTestOrder(user.ID, "GSV-0002")))
	require.NoError(t, repo.Create(newTestOrder(other.ID, "GSV-0003")))

	orders, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, user.ID, order.UserID)
		assert.Len(t, order.OrderItems, 2)
	}
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	_, repo, user := setupOrderTest(t)
	order := newTestOrder(user.ID, "GSV-0001")
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.UpdateStatus(order.ID, model.OrderStatusShipped, "DTDC123"))
	require.NoError(t, repo.UpdateStatus(order.ID, model.OrderStatusDelivered, ""))

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, found.Status)
	assert.Equal(t, "DTDC123", found.TrackingNumber)

	assert.ErrorIs(t, repo.UpdateStatus(9999, model.OrderStatusShipped, ""), gorm.ErrRecordNotFound)
}

func TestOrderRepository_UpdatePaymentStatus(t *testing.T) {
	_, repo, user := setupOrderTest(t)
	order := newTestOrder(user.ID, "GSV-0001")
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.UpdatePaymentStatus(order.ID, model.PaymentStatusCompleted))

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, found.PaymentStatus)
}
