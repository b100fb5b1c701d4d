package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/api/validators"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

const (
	defaultOrderPageSize = 25
	maxOrderPageSize     = 100
)

type adminCreateOrderRequest struct {
	Items             types.OrderLines   `json:"items" validate:"required,min=1"`
	CustomerInfo      types.CustomerInfo `json:"customerInfo"`
	Language          string             `json:"language" validate:"omitempty,oneof=ru uz en"`
	DeliveryReference string             `json:"deliveryReference,omitempty" validate:"max=128"`
}

type adminUpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminCreateOrder stores an order snapshot without sending it to the chat.
// Totals are recomputed from the lines.
func AdminCreateOrder(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		var req adminCreateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orders.FromSnapshot(req.Items, req.CustomerInfo, req.Language)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		persisted, err := store.Persist(r.Context(), order, strings.TrimSpace(req.DeliveryReference))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"orderId": persisted.ID.String()})
	}
}

// AdminListOrders pages through orders newest first, optionally filtered by status.
func AdminListOrders(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		query := orders.ListQuery{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}

		limit, err := validators.ParseQueryInt(r, "limit", defaultOrderPageSize, 1, maxOrderPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Limit = limit

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := parseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			query.Status = &status
		}

		result, err := store.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminOrderDetail(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := store.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminUpdateOrderStatus moves an order along the status graph. Illegal moves
// answer 422 with the from/to pair.
func AdminUpdateOrderStatus(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adminUpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, id.String())
		}
		order, err := store.UpdateStatus(ctx, id, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "status", string(order.Status)), "order.status.updated")
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminDeleteOrder(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func AdminOrderStats(store orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			serviceUnavailable(w, r, logg, "order store")
			return
		}

		stats, err := store.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func parseOrderStatus(raw string) (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"status": raw, "allowed": enums.OrderStatuses()})
	}
	return status, nil
}
