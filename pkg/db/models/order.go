package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

// Order is the persisted record of a submitted storefront order. The snapshot columns
// (items, customer_info, total, language) are written once; only status and
// delivery_reference change afterwards.
type Order struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Status            enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	Items             types.OrderLines   `gorm:"column:items;type:jsonb;serializer:json;not null"`
	CustomerInfo      types.CustomerInfo `gorm:"column:customer_info;type:jsonb;serializer:json;not null"`
	Total             decimal.Decimal    `gorm:"column:total;type:numeric(14,2);not null"`
	Language          string             `gorm:"column:language;type:text;not null"`
	DeliveryReference *string            `gorm:"column:delivery_reference;type:text"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
