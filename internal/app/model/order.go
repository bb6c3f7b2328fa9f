package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"

	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	TotalItems      int             `gorm:"not null" json:"total_items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	TrackingNumber  string          `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	Phone           string          `gorm:"type:varchar(20);not null" json:"phone"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User       User        `gorm:"foreignKey:UserID" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots one cart line at checkout; later catalog edits do not
// change it.
type OrderItem struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	ProductID      string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	ProductName    string          `gorm:"not null" json:"product_name"`
	SelectedWeight string          `gorm:"type:varchar(32)" json:"selected_weight,omitempty"`
	SelectedVolume string          `gorm:"type:varchar(32)" json:"selected_volume,omitempty"`
	SelectedPack   string          `gorm:"type:varchar(64)" json:"selected_pack,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Image          string          `json:"image,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Variant returns whichever variant label was selected, if any.
func (i OrderItem) Variant() string {
	switch {
	case i.SelectedWeight != "":
		return i.SelectedWeight
	case i.SelectedVolume != "":
		return i.SelectedVolume
	default:
		return i.SelectedPack
	}
}

// Subtotal is UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
