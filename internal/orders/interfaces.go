package orders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/pkg/db/models"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/pagination"
)

// ErrOrderNotFound is returned for unknown order ids by every repository.
var ErrOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

// Repository defines persistence operations for the orders table.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, now time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

type listOrdersParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}
