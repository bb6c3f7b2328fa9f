package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRecordRepository stores serialized carts in the cart_records table. It
// satisfies cart.Storage.
type CartRecordRepository interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	DeleteUpdatedBefore(cutoff time.Time) (int64, error)
}

type cartRecordRepository struct {
	db *gorm.DB
}

func NewCartRecordRepository(db *gorm.DB) CartRecordRepository {
	return &cartRecordRepository{db: db}
}

// Get returns (nil, nil) when no record exists for key.
func (r *cartRecordRepository) Get(key string) ([]byte, error) {
	var record model.CartRecord
	err := r.db.Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to load cart record", err, map[string]interface{}{
			"key": key,
		})
		return nil, fmt.Errorf("load cart record: %w", err)
	}
	return []byte(record.Payload), nil
}

func (r *cartRecordRepository) Set(key string, value []byte) error {
	record := model.CartRecord{
		Key:       key,
		Payload:   string(value),
		UpdatedAt: time.Now(),
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save cart record: %w", err)
	}

	logger.Debug("Cart record saved", map[string]interface{}{
		"key":   key,
		"bytes": len(value),
	})
	return nil
}

// DeleteUpdatedBefore purges records last written before cutoff.
func (r *cartRecordRepository) DeleteUpdatedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", cutoff).Delete(&model.CartRecord{})
	if result.Error != nil {
		logger.Error("Failed to purge stale cart records", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
