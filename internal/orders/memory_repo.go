package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/pkg/db/models"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	"github.com/angelmondragon/rattanstore-backend/pkg/pagination"
)

type memoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]models.Order
}

// NewMemoryRepository keeps orders in process memory. Contents are lost on restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{orders: map[uuid.UUID]models.Order{}}
}

func (r *memoryRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (r *memoryRepository) List(_ context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	r.mu.RLock()
	rows := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if params.Status != nil && order.Status != *params.Status {
			continue
		}
		if params.Cursor != nil && !params.Cursor.After(order.CreatedAt, order.ID) {
			continue
		}
		rows = append(rows, cloneOrder(order))
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})

	normalized := pagination.NormalizeLimit(params.Limit)
	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = now
	r.orders[id] = order
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryRepository) CountByStatus(_ context.Context) (map[enums.OrderStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[enums.OrderStatus]int64{}
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func cloneOrder(order models.Order) models.Order {
	out := order
	if order.Items != nil {
		out.Items = append(order.Items[:0:0], order.Items...)
	}
	if order.DeliveryReference != nil {
		ref := *order.DeliveryReference
		out.DeliveryReference = &ref
	}
	return out
}
