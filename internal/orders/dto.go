package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/pkg/db/models"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

// PersistedOrder is the admin-facing view of a stored order.
type PersistedOrder struct {
	ID                uuid.UUID          `json:"id"`
	Status            enums.OrderStatus  `json:"status"`
	Items             types.OrderLines   `json:"items"`
	CustomerInfo      types.CustomerInfo `json:"customerInfo"`
	Total             decimal.Decimal    `json:"total"`
	Language          string             `json:"language"`
	DeliveryReference *string            `json:"deliveryReference,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// ListQuery filters the admin order list.
type ListQuery struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

type ListResult struct {
	Orders      []PersistedOrder  `json:"orders"`
	Cursor      string            `json:"cursor"`
	StorageMode enums.StorageMode `json:"storageMode"`
}

// Stats counts orders by status. Every status is present, zero when unused.
type Stats struct {
	Counts      map[enums.OrderStatus]int64 `json:"counts"`
	Total       int64                       `json:"total"`
	StorageMode enums.StorageMode           `json:"storageMode"`
}

func mapPersistedOrder(order models.Order) PersistedOrder {
	items := order.Items
	if items == nil {
		items = types.OrderLines{}
	}
	return PersistedOrder{
		ID:                order.ID,
		Status:            order.Status,
		Items:             items,
		CustomerInfo:      order.CustomerInfo,
		Total:             order.Total,
		Language:          order.Language,
		DeliveryReference: order.DeliveryReference,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func newOrderRecord(order *Order, deliveryRef string, now time.Time) *models.Order {
	record := &models.Order{
		ID:           uuid.New(),
		Status:       enums.OrderStatusPending,
		Items:        order.Lines,
		CustomerInfo: order.Customer,
		Total:        order.Total,
		Language:     order.Language,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if deliveryRef != "" {
		ref := deliveryRef
		record.DeliveryReference = &ref
	}
	return record
}
