package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

type stubSender struct {
	sendFn func(ctx context.Context, order *orders.Order) delivery.Result
	calls  int
}

func (s *stubSender) Send(ctx context.Context, order *orders.Order) delivery.Result {
	s.calls++
	if s.sendFn != nil {
		return s.sendFn(ctx, order)
	}
	return delivery.Delivered("1")
}

type countingStore struct {
	orders.Store
	persistErr error
	persists   int
	lastRef    string
	ctxErr     error
	deadline   bool
}

func (c *countingStore) Persist(ctx context.Context, order *orders.Order, ref string) (*orders.PersistedOrder, error) {
	c.persists++
	c.lastRef = ref
	c.ctxErr = ctx.Err()
	_, c.deadline = ctx.Deadline()
	if c.persistErr != nil {
		return nil, c.persistErr
	}
	return c.Store.Persist(ctx, order, ref)
}

type stubCarts struct {
	lines   []cart.Line
	cleared []string
}

func (s *stubCarts) Lines(context.Context, string) ([]cart.Line, error) {
	return s.lines, nil
}

func (s *stubCarts) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type noChats struct{}

func (noChats) Discover(context.Context) ([]delivery.DiscoveredChat, error) { return nil, nil }
func (noChats) SendTest(context.Context, string) delivery.Result          { return delivery.Delivered("1") }

type fixture struct {
	svc     Service
	sender  *stubSender
	store   *countingStore
	wizards *wizard.Manager
	inbox   *notifications.Inbox
	carts   *stubCarts
}

func newFixture(t *testing.T, sendFn func(ctx context.Context, order *orders.Order) delivery.Result) *fixture {
	t.Helper()
	logg := logger.Nop()
	inbox := notifications.NewInbox(0)

	base, err := orders.NewStore(orders.StoreParams{Primary: orders.NewMemoryRepository(), Sink: inbox, Logger: logg})
	require.NoError(t, err)
	store := &countingStore{Store: base}

	wizards, err := wizard.NewManager(wizard.ManagerParams{Discoverer: noChats{}, TestSender: noChats{}, TTL: time.Hour, Logger: logg})
	require.NoError(t, err)

	sender := &stubSender{sendFn: sendFn}
	carts := &stubCarts{lines: exampleLines()}
	svc, err := NewService(ServiceParams{
		Builder:     orders.NewBuilder(pricing.NewEngine(pricing.DefaultSchedule())),
		Channel:     sender,
		Store:       store,
		Wizard:      wizards,
		Carts:       carts,
		Sink:        inbox,
		Logger:      logg,
		SendTimeout: time.Second,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, sender: sender, store: store, wizards: wizards, inbox: inbox, carts: carts}
}

func exampleLines() []cart.Line {
	c := cart.New()
	c.Add(catalog.Product{ID: "rattan-thread", Name: "Rattan thread", Category: enums.ProductCategoryMaterials}, nil, 0)
	c.Add(catalog.Product{ID: "planter-classic", Name: "Classic", Category: enums.ProductCategoryPlanter, Size: "10л"}, nil, 0)
	return c.Lines()
}

func validInput() CustomerInput {
	return CustomerInput{
		Customer:     types.CustomerInfo{Name: "Dilnoza", Phone: "+998901234567"},
		ConsentGiven: true,
	}
}

func listNotices(t *testing.T, inbox *notifications.Inbox) []notifications.Notice {
	t.Helper()
	svc, err := notifications.NewService(inbox)
	require.NoError(t, err)
	result, err := svc.List(context.Background(), notifications.ListParams{})
	require.NoError(t, err)
	return result.Items
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestSubmitChatNotFoundScenario(t *testing.T) {
	f := newFixture(t, func(context.Context, *orders.Order) delivery.Result {
		return delivery.Failed(400, "Bad Request: chat not found")
	})
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)

	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(367000)))
	require.NotNil(t, result.Persisted)
	assert.Equal(t, enums.OrderStatusPending, result.Persisted.Status)
	assert.Nil(t, result.Persisted.DeliveryReference)
	assert.Equal(t, delivery.FailureDestinationNotConfigured, result.Delivery.Kind())
	assert.Equal(t, StatusPendingConfirmation, result.Status)
	assert.NotContains(t, result.Message, "chat not found")

	require.NotNil(t, result.WizardSessionID)
	view, err := f.wizards.Get(ctx, *result.WizardSessionID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSearch, view.State)
	assert.Equal(t, wizard.TriggerDeliveryFailure, view.Trigger)

	notices := listNotices(t, f.inbox)
	require.Len(t, notices, 1)
	assert.Equal(t, notifications.SeverityWarning, notices[0].Severity)
	assert.Contains(t, notices[0].Message, "Bad Request: chat not found")
	assert.Contains(t, notices[0].Message, result.WizardSessionID.String())
}

func TestSubmitPersistsOnceForEveryOutcome(t *testing.T) {
	outcomes := map[string]delivery.Result{
		"delivered":   delivery.Delivered("555"),
		"transient":   delivery.Failed(500, "internal error"),
		"timeout":     delivery.Failed(0, "context deadline exceeded"),
		"destination": delivery.Failed(400, "Bad Request: chat not found"),
		"no reply":    {},
	}

	for name, res := range outcomes {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(context.Context, *orders.Order) delivery.Result { return res })

			result, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
			require.NoError(t, err)
			assert.Equal(t, 1, f.sender.calls)
			assert.Equal(t, 1, f.store.persists)
			require.NotNil(t, result.Persisted)
			assert.Equal(t, enums.OrderStatusPending, result.Persisted.Status)

			if res.OK() {
				assert.Equal(t, "555", f.store.lastRef)
				assert.Equal(t, StatusReceived, result.Status)
				assert.Nil(t, result.WizardSessionID)
				assert.Empty(t, listNotices(t, f.inbox))
			} else {
				assert.Empty(t, f.store.lastRef)
				assert.Equal(t, StatusPendingConfirmation, result.Status)
			}
		})
	}
}

func TestSubmitTransientDoesNotOpenWizard(t *testing.T) {
	f := newFixture(t, func(context.Context, *orders.Order) delivery.Result {
		return delivery.Failed(400, "Bad Request: message text is empty")
	})

	result, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)
	assert.Nil(t, result.WizardSessionID)
	assert.Equal(t, delivery.FailureTransient, result.Delivery.Kind())
	assert.Len(t, listNotices(t, f.inbox), 1)
}

func TestSubmitValidationMakesNoCalls(t *testing.T) {
	f := newFixture(t, nil)
	input := validInput()
	input.ConsentGiven = false

	_, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: input})
	var verr *orders.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, orders.ReasonConsentRequired, verr.Reason)
	assert.Zero(t, f.sender.calls)
	assert.Zero(t, f.store.persists)
}

func TestSubmitAppliesSendTimeout(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, _ *orders.Order) delivery.Result {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("send context has no deadline")
		}
		return delivery.Delivered("1")
	})
	_, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)
}

func TestSubmitPersistFailureAfterDelivery(t *testing.T) {
	f := newFixture(t, nil)
	f.store.persistErr = errors.New("disk full")

	result, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)
	assert.Nil(t, result.Persisted)
	assert.Equal(t, StatusReceived, result.Status)

	notices := listNotices(t, f.inbox)
	require.Len(t, notices, 1)
	assert.Equal(t, notifications.SeverityError, notices[0].Severity)
}

func TestSubmitFailsWhenNeitherDeliveredNorSaved(t *testing.T) {
	f := newFixture(t, func(context.Context, *orders.Order) delivery.Result {
		return delivery.Failed(502, "Bad Gateway")
	})
	f.store.persistErr = errors.New("disk full")

	_, err := f.svc.Submit(context.Background(), SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestSubmitCartClearsSession(t *testing.T) {
	f := newFixture(t, nil)
	session := uuid.NewString()

	result, err := f.svc.SubmitCart(context.Background(), session, validInput())
	require.NoError(t, err)
	assert.Len(t, result.Order.Lines, 2)
	assert.Equal(t, []string{session}, f.carts.cleared)
}

func TestCustomerMessageFallsBackToRussian(t *testing.T) {
	assert.Equal(t, messagesByLanguage["ru"].pending, customerMessage("fr", false))
	assert.Equal(t, messagesByLanguage["en"].received, customerMessage("EN", true))
}

func TestSubmitPersistsAfterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, func(context.Context, *orders.Order) delivery.Result {
		cancel()
		return delivery.Delivered("55")
	})

	result, err := f.svc.Submit(ctx, SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)
	require.NotNil(t, result.Persisted)
	assert.Equal(t, 1, f.store.persists)
	assert.NoError(t, f.store.ctxErr)
	assert.True(t, f.store.deadline, "persist runs under its own timeout")
	assert.Equal(t, enums.StorageModeDatabase, result.StorageMode)
}

func TestSubmitReusesOpenWizardSession(t *testing.T) {
	f := newFixture(t, func(context.Context, *orders.Order) delivery.Result {
		return delivery.Failed(400, "Bad Request: chat not found")
	})
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, SubmitInput{Lines: exampleLines(), CustomerInput: validInput()})
	require.NoError(t, err)

	require.NotNil(t, first.WizardSessionID)
	require.NotNil(t, second.WizardSessionID)
	assert.Equal(t, *first.WizardSessionID, *second.WizardSessionID)

	notices := listNotices(t, f.inbox)
	require.Len(t, notices, 2)
	for _, notice := range notices {
		assert.Contains(t, notice.Message, first.WizardSessionID.String())
	}
}
