package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/pkg/db/models"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/metrics"
	"github.com/angelmondragon/rattanstore-backend/pkg/pagination"
)

const degradedNotice = "Order storage is unavailable. New orders are kept in memory only and will be lost on restart."

// Store persists orders and enforces the status lifecycle. Persistence is best
// effort: when the primary repository fails, the store switches to the in-memory
// fallback for the rest of the process lifetime and keeps accepting writes.
type Store interface {
	Persist(ctx context.Context, order *Order, deliveryRef string) (*PersistedOrder, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*PersistedOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*PersistedOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
	StorageMode() enums.StorageMode
}

type StoreParams struct {
	Primary  Repository
	Fallback Repository
	Sink     notifications.Sink
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

type store struct {
	mu       sync.RWMutex
	primary  Repository
	fallback Repository
	mode     enums.StorageMode
	sink     notifications.Sink
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewStore wires the order store. A nil primary starts the store in memory mode.
func NewStore(params StoreParams) (Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &store{
		primary:  params.Primary,
		fallback: params.Fallback,
		mode:     enums.StorageModeDatabase,
		sink:     params.Sink,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}
	if s.fallback == nil {
		s.fallback = NewMemoryRepository()
	}
	if s.sink == nil {
		s.sink = notifications.Discard{}
	}
	if s.primary == nil {
		s.degrade(context.Background(), "init", fmt.Errorf("no primary order repository configured"))
	} else {
		s.metrics.SetMemoryMode(false)
	}
	return s, nil
}

func (s *store) StorageMode() enums.StorageMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *store) active() (Repository, enums.StorageMode) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode.IsDegraded() {
		return s.fallback, s.mode
	}
	return s.primary, s.mode
}

// degrade flips the store to memory mode once; later calls are no-ops.
func (s *store) degrade(ctx context.Context, op string, cause error) {
	s.mu.Lock()
	if s.mode.IsDegraded() {
		s.mu.Unlock()
		return
	}
	s.mode = enums.StorageModeMemory
	s.mu.Unlock()

	s.metrics.SetMemoryMode(true)
	logCtx := s.logg.WithFields(ctx, map[string]any{"operation": op})
	s.logg.Error(logCtx, "order.store.degraded", cause)
	s.sink.Notify(ctx, degradedNotice, notifications.SeverityWarning)
}

// run executes fn on the active repository. A storage failure on the primary
// degrades the store and retries fn once on the fallback. A cancelled or expired
// request context is the caller's failure and never degrades the store.
func (s *store) run(ctx context.Context, op string, fn func(Repository) error) (enums.StorageMode, error) {
	repo, mode := s.active()
	err := fn(repo)
	if err == nil || mode.IsDegraded() || !isStorageFailure(err) {
		return mode, err
	}
	if ctx.Err() != nil || isContextError(err) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"operation": op, "error": err.Error()}), "order.store.request_aborted")
		return mode, err
	}
	s.degrade(ctx, op, err)
	return enums.StorageModeMemory, fn(s.fallback)
}

func isContextError(err error) bool {
	return stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded)
}

func isStorageFailure(err error) bool {
	if stdErrors.Is(err, ErrOrderNotFound) {
		return false
	}
	var transition *InvalidTransitionError
	if stdErrors.As(err, &transition) {
		return false
	}
	return !pkgerrors.IsCode(err, pkgerrors.CodeValidation)
}

func (s *store) Persist(ctx context.Context, order *Order, deliveryRef string) (*PersistedOrder, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	record := newOrderRecord(order, deliveryRef, s.now().UTC())

	mode, err := s.run(ctx, "persist", func(repo Repository) error {
		row := *record
		if err := repo.Create(ctx, &row); err != nil {
			return err
		}
		*record = row
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     record.ID.String(),
		"storage_mode": mode.String(),
	})
	s.logg.Info(ctx, "order.store.persisted")

	out := mapPersistedOrder(*record)
	return &out, nil
}

func (s *store) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	params := listOrdersParams{Limit: query.Limit}
	if query.Status != nil {
		if !query.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
				WithDetails(map[string]any{"status": string(*query.Status)})
		}
		params.Status = query.Status
	}
	if query.Cursor != "" {
		cursor, err := pagination.ParseCursor(query.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	var (
		rows []models.Order
		next *pagination.Cursor
	)
	mode, err := s.run(ctx, "list", func(repo Repository) error {
		var err error
		rows, next, err = repo.List(ctx, params)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	result := &ListResult{Orders: make([]PersistedOrder, 0, len(rows)), StorageMode: mode}
	for _, row := range rows {
		result.Orders = append(result.Orders, mapPersistedOrder(row))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *store) Get(ctx context.Context, id uuid.UUID) (*PersistedOrder, error) {
	var record *models.Order
	_, err := s.run(ctx, "get", func(repo Repository) error {
		var err error
		record, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, wrapStoreError(err, "get order")
	}
	out := mapPersistedOrder(*record)
	return &out, nil
}

// UpdateStatus moves an order along the lifecycle graph. Re-applying the current
// status returns the order unchanged.
func (s *store) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*PersistedOrder, error) {
	var record *models.Order
	_, err := s.run(ctx, "update_status", func(repo Repository) error {
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(current.Status, status); err != nil {
			return err
		}
		if current.Status == status {
			record = current
			return nil
		}
		now := s.now().UTC()
		if err := repo.UpdateStatus(ctx, id, status, now); err != nil {
			return err
		}
		current.Status = status
		current.UpdatedAt = now
		record = current
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err, "update order status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": id.String(), "status": status.String()})
	s.logg.Info(ctx, "order.store.status_updated")

	out := mapPersistedOrder(*record)
	return &out, nil
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.run(ctx, "delete", func(repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return wrapStoreError(err, "delete order")
	}
	return nil
}

func (s *store) Stats(ctx context.Context) (*Stats, error) {
	var counts map[enums.OrderStatus]int64
	mode, err := s.run(ctx, "stats", func(repo Repository) error {
		var err error
		counts, err = repo.CountByStatus(ctx)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order stats")
	}

	stats := &Stats{Counts: make(map[enums.OrderStatus]int64), StorageMode: mode}
	for _, status := range enums.OrderStatuses() {
		stats.Counts[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// wrapStoreError keeps coded domain errors as they are and wraps storage failures.
func wrapStoreError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
