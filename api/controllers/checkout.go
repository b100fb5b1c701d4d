package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/api/validators"
	"github.com/angelmondragon/rattanstore-backend/internal/checkout"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

// submitOrderRequest leaves name/phone checks to the order builder so the
// storefront gets a stable reason code for each missing field.
type submitOrderRequest struct {
	SessionID    string             `json:"sessionId" validate:"required,uuid"`
	CustomerInfo types.CustomerInfo `json:"customerInfo"`
	Consent      bool               `json:"consent"`
	Language     string             `json:"language" validate:"omitempty,oneof=ru uz en"`
}

type submitOrderResponse struct {
	OrderID string          `json:"orderId,omitempty"`
	Total   decimal.Decimal `json:"total"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
}

// SubmitOrder places the session's cart as an order. The response never
// carries provider diagnostics; operators see those through notices.
func SubmitOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "checkout service")
			return
		}

		var req submitOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, req.SessionID)
		}

		result, err := svc.SubmitCart(ctx, req.SessionID, checkout.CustomerInput{
			Customer:     req.CustomerInfo,
			ConsentGiven: req.Consent,
			Language:     req.Language,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := submitOrderResponse{
			Total:   result.Order.Total,
			Status:  result.Status,
			Message: result.Message,
		}
		if result.Persisted != nil {
			resp.OrderID = result.Persisted.ID.String()
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
