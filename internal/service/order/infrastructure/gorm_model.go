package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表，订单行与状态历史以 JSON 列保存。
type OrderModel struct {
	ID              string          `gorm:"primaryKey;size:36"`
	OrderNumber     string          `gorm:"size:32;uniqueIndex"`
	UserID          string          `gorm:"size:64;index"`
	UserEmail       string          `gorm:"size:255"`
	Items           []ItemRecord    `gorm:"serializer:json;type:text"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2)"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2)"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Discount        decimal.Decimal `gorm:"type:decimal(12,2)"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2)"`
	RefundedAmount  decimal.Decimal `gorm:"type:decimal(12,2)"`
	ShippingAddress AddressRecord   `gorm:"serializer:json;type:text"`
	PaymentMethod   string          `gorm:"size:32"`
	Status          string          `gorm:"size:16;index"`
	PaymentStatus   string          `gorm:"size:24"`
	History         []HistoryRecord `gorm:"serializer:json;type:text"`
	CancelReason    string          `gorm:"size:512"`
	Version         int             `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

type ItemRecord struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type AddressRecord struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type HistoryRecord struct {
	Status string    `json:"status"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}
