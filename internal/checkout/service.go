// Package checkout runs an order submission end to end: build, deliver, persist,
// classify and hand configuration failures to the channel wizard.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/metrics"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

const (
	defaultSendTimeout    = 15 * time.Second
	defaultPersistTimeout = 10 * time.Second
)

const (
	outcomeDelivered   = "delivered"
	outcomeTransient   = "failed_transient"
	outcomeDestination = "failed_destination"
	outcomeInvalid     = "invalid"
	outcomeError       = "error"
)

// Service executes order submissions.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
	SubmitCart(ctx context.Context, sessionID string, input CustomerInput) (*Result, error)
}

// CustomerInput is what the storefront form collects.
type CustomerInput struct {
	Customer     types.CustomerInfo
	ConsentGiven bool
	Language     string
}

type SubmitInput struct {
	Lines []cart.Line
	CustomerInput
}

// Result is the outcome of one submission. Delivery diagnostics are for
// operators; customers only get Status and Message.
type Result struct {
	Order           *orders.Order
	Persisted       *orders.PersistedOrder
	Delivery        delivery.Result
	StorageMode     enums.StorageMode
	WizardSessionID *uuid.UUID
	Status          string
	Message         string
}

type orderSender interface {
	Send(ctx context.Context, order *orders.Order) delivery.Result
}

type wizardStarter interface {
	Resume(ctx context.Context, trigger string) (wizard.View, bool)
}

type cartSource interface {
	Lines(ctx context.Context, sessionID string) ([]cart.Line, error)
	Clear(ctx context.Context, sessionID string) error
}

type ServiceParams struct {
	Builder     *orders.Builder
	Channel     orderSender
	Store       orders.Store
	Wizard      wizardStarter
	Carts       cartSource
	Sink        notifications.Sink
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
	SendTimeout time.Duration
}

type service struct {
	builder     *orders.Builder
	channel     orderSender
	store       orders.Store
	wizard      wizardStarter
	carts       cartSource
	sink        notifications.Sink
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	sendTimeout time.Duration
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Builder == nil {
		return nil, fmt.Errorf("order builder required")
	}
	if params.Channel == nil {
		return nil, fmt.Errorf("delivery channel required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Wizard == nil {
		return nil, fmt.Errorf("wizard manager required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	timeout := params.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &service{
		builder:     params.Builder,
		channel:     params.Channel,
		store:       params.Store,
		wizard:      params.Wizard,
		carts:       params.Carts,
		sink:        sink,
		metrics:     params.Metrics,
		logg:        params.Logger,
		sendTimeout: timeout,
		now:         time.Now,
	}, nil
}

// SubmitCart submits the session's cart and empties it once the order is accepted.
func (s *service) SubmitCart(ctx context.Context, sessionID string, input CustomerInput) (*Result, error) {
	lines, err := s.carts.Lines(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := s.Submit(ctx, SubmitInput{Lines: lines, CustomerInput: input})
	if err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "order.submit.cart_clear_failed", err)
	}
	return result, nil
}

// Submit builds the order, sends it once and persists it regardless of the
// delivery outcome. A validation failure stops before any network call.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	started := s.now()

	order, err := s.builder.Build(orders.BuildInput{
		Lines:        input.Lines,
		Customer:     input.Customer,
		ConsentGiven: input.ConsentGiven,
		Language:     input.Language,
	})
	if err != nil {
		s.metrics.ObserveSubmission(outcomeInvalid, s.now().Sub(started))
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	res := s.channel.Send(sendCtx, order)
	cancel()
	if !res.OK() && res.Failure == nil {
		res = delivery.Failed(0, "no delivery reply")
	}

	// The order was already sent, so the write outlives a disconnecting client.
	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), defaultPersistTimeout)
	persisted, persistErr := s.store.Persist(persistCtx, order, res.Reference)
	cancelPersist()

	result := &Result{
		Order:       order,
		Persisted:   persisted,
		Delivery:    res,
		StorageMode: s.store.StorageMode(),
		Status:      StatusReceived,
		Message:     customerMessage(order.Language, res.OK()),
	}
	if !res.OK() {
		result.Status = StatusPendingConfirmation
	}

	orderLabel := "unsaved"
	if persisted != nil {
		orderLabel = persisted.ID.String()
		ctx = s.logg.WithOrderID(ctx, orderLabel)
	}
	if persistErr != nil {
		s.logg.Error(ctx, "order.submit.persist_failed", persistErr)
		s.sink.Notify(ctx, fmt.Sprintf("Order could not be saved: %v", persistErr), notifications.SeverityError)
	}

	outcome := outcomeDelivered
	if res.OK() {
		s.logg.Info(s.logg.WithField(ctx, "delivery_reference", res.Reference), "order.submit.delivered")
	} else {
		outcome = s.handleDeliveryFailure(ctx, orderLabel, res, result)
	}

	if persistErr != nil && !res.OK() {
		s.metrics.ObserveSubmission(outcomeError, s.now().Sub(started))
		err := multierr.Combine(
			fmt.Errorf("delivery failed: %s", res.Failure.ProviderMessage),
			persistErr,
		)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order was neither delivered nor saved")
	}

	s.metrics.ObserveSubmission(outcome, s.now().Sub(started))
	return result, nil
}

func (s *service) handleDeliveryFailure(ctx context.Context, orderLabel string, res delivery.Result, result *Result) string {
	failure := res.Failure
	kind := res.Kind()
	s.metrics.IncDeliveryFailure(kind.String())

	ctx = s.logg.WithFields(ctx, map[string]any{
		"http_status":      failure.HTTPStatus,
		"provider_message": failure.ProviderMessage,
		"failure_kind":     kind.String(),
	})
	s.logg.Warn(ctx, "order.submit.delivery_failed")

	if kind == delivery.FailureDestinationNotConfigured {
		view, reused := s.wizard.Resume(ctx, wizard.TriggerDeliveryFailure)
		id := view.ID
		result.WizardSessionID = &id
		if reused {
			s.logg.Info(s.logg.WithField(ctx, "wizard_session_id", id.String()), "wizard.session.reused")
		}
		s.sink.Notify(ctx, fmt.Sprintf(
			"Order %s was not delivered: the destination chat is not configured (HTTP %d: %s). Open channel wizard session %s to pick a new chat.",
			orderLabel, failure.HTTPStatus, failure.ProviderMessage, id,
		), notifications.SeverityWarning)
		return outcomeDestination
	}

	s.sink.Notify(ctx, fmt.Sprintf(
		"Order %s may not have reached the chat (HTTP %d: %s). Contact the customer to confirm.",
		orderLabel, failure.HTTPStatus, failure.ProviderMessage,
	), notifications.SeverityWarning)
	return outcomeTransient
}
