package model

import (
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentStripe         PaymentMethod = "Stripe"
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
)

// Order is the immutable snapshot taken from a cart at checkout: the lines,
// the four price fields, the shipping address and the chosen payment method.
type Order struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	ItemsPrice    string `gorm:"type:varchar(20);not null" json:"items_price"`
	ShippingPrice string `gorm:"type:varchar(20);not null" json:"shipping_price"`
	TaxPrice      string `gorm:"type:varchar(20);not null" json:"tax_price"`
	TotalPrice    string `gorm:"type:varchar(20);not null" json:"total_price"`

	ShippingFullName string        `gorm:"not null" json:"shipping_full_name"`
	ShippingAddress  string        `gorm:"not null" json:"shipping_address"`
	ShippingCity     string        `json:"shipping_city"`
	ShippingPostal   string        `json:"shipping_postal_code"`
	ShippingCountry  string        `json:"shipping_country"`
	PaymentMethod    PaymentMethod `gorm:"type:varchar(30);not null" json:"payment_method"`

	IsPaid      bool       `gorm:"default:false" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsDelivered bool       `gorm:"default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       User        `gorm:"foreignKey:UserID" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	OrderID   uint   `gorm:"not null;index" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null" json:"name"`
	Slug      string `gorm:"not null" json:"slug"`
	Price     string `gorm:"type:varchar(20);not null" json:"price"`
	Image     string `json:"image"`
	Qty       int    `gorm:"not null" json:"qty"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
