package db

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

func models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.CartRecord{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations and seeds a starter catalog
func Migrate() error {
	logger.Info("Running database migrations")

	all := models()
	if err := DB.AutoMigrate(all...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedProducts(DB); err != nil {
		logger.Error("Failed to seed products during migration", err)
		return err
	}

	logger.Info("Database migrations completed", map[string]interface{}{
		"models_count": len(all),
	})
	return nil
}

// SeedProducts inserts a starter catalog when the products table is empty.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Products already seeded, skipping", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	products := []model.Product{
		{
			Name:         "Mango Pickle",
			Description:  "Sun-cured raw mango in cold-pressed mustard oil.",
			Category:     model.CategoryPickle,
			Price:        decimal.RequireFromString("180"),
			CutPrice:     decimal.NewNullDecimal(decimal.RequireFromString("220")),
			PricePerGram: "250g=180,500g=340,1kg=650",
			Images:       model.ImageList{"/images/mango-pickle.jpg"},
		},
		{
			Name:         "Garam Masala",
			Description:  "Stone-ground whole spice blend.",
			Category:     model.CategoryMasala,
			Price:        decimal.RequireFromString("120"),
			PricePerGram: "100g=120,250g=280",
			Images:       model.ImageList{"/images/garam-masala.jpg"},
		},
		{
			Name:        "A2 Desi Cow Ghee",
			Description: "Bilona-churned ghee from Gir cow milk.",
			Category:    model.CategoryGhee,
			Price:       decimal.RequireFromString("850"),
			CutPrice:    decimal.NewNullDecimal(decimal.RequireFromString("999")),
			Volumes:     `[{"volume":"500ml","price":850},{"volume":"1L","price":1600}]`,
			Images:      model.ImageList{"/images/a2-ghee.jpg"},
		},
		{
			Name:        "Cold Pressed Mustard Oil",
			Description: "Wood-pressed kachi ghani oil.",
			Category:    model.CategoryOil,
			Price:       decimal.RequireFromString("260"),
			Volumes:     `[{"volume":"1L","price":260},{"volume":"5L","price":1250}]`,
		},
		{
			Name:        "Gomay Agarbatti",
			Description: "Cow dung incense sticks with natural herbs.",
			Category:    model.CategoryAgarbatti,
			Price:       decimal.RequireFromString("60"),
			Packs:       `[{"name":"Pack of 1","price":60},{"name":"Pack of 6","price":330}]`,
			Images:      model.ImageList{"/images/agarbatti.jpg"},
		},
		{
			Name:        "Panchgavya Soap",
			Description: "Handmade herbal soap.",
			Category:    model.CategoryOther,
			Price:       decimal.RequireFromString("75"),
		},
	}

	if err := db.Create(&products).Error; err != nil {
		return err
	}

	logger.Info("Products seeded", map[string]interface{}{
		"total_products": len(products),
	})
	return nil
}
