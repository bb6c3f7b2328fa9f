package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

type catalogFixture struct {
	pickle  *model.Product
	ghee    *model.Product
	incense *model.Product
	soap    *model.Product
}

func seedCatalog(t *testing.T, testDB *gorm.DB) catalogFixture {
	fx := catalogFixture{
		pickle: &model.Product{
			Name:         "Mango Pickle",
			Category:     model.CategoryPickle,
			Price:        decimal.RequireFromString("90"),
			PricePerGram: "250g=100,500g=180",
			Images:       model.ImageList{"/img/mango.jpg"},
		},
		ghee: &model.Product{
			Name:     "A2 Ghee",
			Category: model.CategoryGhee,
			Price:    decimal.RequireFromString("850"),
			CutPrice: decimal.NewNullDecimal(decimal.RequireFromString("999")),
			Volumes:  `[{"volume":"500ml","price":"850"},{"volume":"1L","price":1600}]`,
		},
		incense: &model.Product{
			Name:     "Gomay Agarbatti",
			Category: model.CategoryAgarbatti,
			Price:    decimal.RequireFromString("60"),
			Packs:    `[{"name":"Pack of 6","price":330}]`,
		},
		soap: &model.Product{
			Name:     "Panchgavya Soap",
			Category: model.CategoryOther,
			Price:    decimal.RequireFromString("75"),
		},
	}
	for _, p := range []*model.Product{fx.pickle, fx.ghee, fx.incense, fx.soap} {
		require.NoError(t, testDB.Create(p).Error)
	}
	return fx
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Test User", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}
