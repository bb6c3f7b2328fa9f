package repository

import (
	"testing"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewProductRepository(testDB)
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	_, repo := setupProductTest(t)

	product := &model.Product{
		Name:         "Lemon Pickle",
		Category:     model.CategoryPickle,
		Price:        decimal.RequireFromString("150"),
		CutPrice:     decimal.NewNullDecimal(decimal.RequireFromString("199.50")),
		PricePerGram: "250g=150,500g=280",
		Images:       model.ImageList{"/img/lemon-1.jpg", "/img/lemon-2.jpg"},
	}
	require.NoError(t, repo.Create(product))
	assert.Len(t, product.ID, 36)

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lemon Pickle", found.Name)
	assert.True(t, decimal.RequireFromString("150").Equal(found.Price))
	require.True(t, found.CutPrice.Valid)
	assert.True(t, decimal.RequireFromString("199.5").Equal(found.CutPrice.Decimal))
	assert.Equal(t, model.ImageList{"/img/lemon-1.jpg", "/img/lemon-2.jpg"}, found.Images)

	pricing := found.Pricing()
	assert.Equal(t, cart.ByWeight, pricing.Kind)
	assert.Len(t, pricing.Options, 2)

	_, err = repo.FindByID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_NullCutPriceAndNoImages(t *testing.T) {
	_, repo := setupProductTest(t)

	product := &model.Product{Name: "Soap", Price: decimal.RequireFromString("75")}
	require.NoError(t, repo.Create(product))

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.False(t, found.CutPrice.Valid)
	assert.Empty(t, found.Images)
	assert.Equal(t, model.CategoryOther, found.Category)
}

func TestProductRepository_FindWithFilter(t *testing.T) {
	_, repo := setupProductTest(t)

	require.NoError(t, repo.CreateBatch([]model.Product{
		{Name: "Mango Pickle", Category: model.CategoryPickle, Price: decimal.NewFromInt(180)},
		{Name: "Chilli Pickle", Category: model.CategoryPickle, Price: decimal.NewFromInt(160)},
		{Name: "A2 Ghee", Category: model.CategoryGhee, Price: decimal.NewFromInt(850), Description: "Bilona ghee"},
	}))

	pickle := model.CategoryPickle
	tests := []struct {
		name      string
		filter    ProductFilter
		wantCount int
		wantTotal int64
	}{
		{name: "All", filter: ProductFilter{}, wantCount: 3, wantTotal: 3},
		{name: "By category", filter: ProductFilter{Category: &pickle}, wantCount: 2, wantTotal: 2},
		{name: "Search description", filter: ProductFilter{Search: "BILONA"}, wantCount: 1, wantTotal: 1},
		{name: "Paged", filter: ProductFilter{Limit: 2}, wantCount: 2, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := repo.FindWithFilter(tt.filter)
			require.NoError(t, err)
			assert.Len(t, products, tt.wantCount)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestProductRepository_UpdateAndDelete(t *testing.T) {
	_, repo := setupProductTest(t)

	product := &model.Product{Name: "Mustard Oil", Category: model.CategoryOil, Price: decimal.NewFromInt(260)}
	require.NoError(t, repo.Create(product))

	product.Volumes = `[{"volume":"1L","price":260}]`
	require.NoError(t, repo.Update(product))

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ByVolume, found.Pricing().Kind)

	require.NoError(t, repo.Delete(product.ID))
	_, err = repo.FindByID(product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(product.ID), gorm.ErrRecordNotFound)
}
