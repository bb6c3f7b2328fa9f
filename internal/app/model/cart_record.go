package model

import "time"

// CartRecord is the durable copy of one user's cart, keyed by the cart
// storage key.
type CartRecord struct {
	Key       string    `gorm:"type:varchar(128);primarykey" json:"key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (CartRecord) TableName() string {
	return "cart_records"
}
