package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/metrics"
)

const (
	TriggerDeliveryFailure = "delivery_failure"
	TriggerOperator        = "operator"
)

// Manager keeps wizard sessions in memory. Nothing survives a restart and every
// Start begins at Search with no carried-over data.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	discover Discoverer
	tester   TestSender
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

type ManagerParams struct {
	Discoverer Discoverer
	TestSender TestSender
	TTL        time.Duration
	Metrics    *metrics.OrderMetrics
	Logger     *logger.Logger
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Discoverer == nil {
		return nil, fmt.Errorf("channel discoverer required")
	}
	if params.TestSender == nil {
		return nil, fmt.Errorf("test sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Manager{
		sessions: map[uuid.UUID]*Session{},
		ttl:      params.TTL,
		discover: params.Discoverer,
		tester:   params.TestSender,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (m *Manager) Start(ctx context.Context, trigger string) View {
	if trigger == "" {
		trigger = TriggerOperator
	}
	session := newSession(trigger, m.discover, m.tester, m.now)

	m.mu.Lock()
	m.pruneLocked()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.metrics.IncWizardSession(trigger)
	ctx = m.logg.WithFields(ctx, map[string]any{"wizard_session_id": session.ID.String(), "trigger": trigger})
	m.logg.Info(ctx, "wizard.session.started")
	return session.View()
}

// Resume returns the newest open session started by trigger, or starts one.
// The bool reports whether an existing session was reused.
func (m *Manager) Resume(ctx context.Context, trigger string) (View, bool) {
	m.mu.Lock()
	m.pruneLocked()
	var open *Session
	for _, session := range m.sessions {
		if session.Trigger != trigger {
			continue
		}
		if open == nil || session.CreatedAt.After(open.CreatedAt) {
			open = session
		}
	}
	m.mu.Unlock()

	if open == nil {
		return m.Start(ctx, trigger), false
	}
	return open.View(), true
}

func (m *Manager) Get(_ context.Context, id uuid.UUID) (View, error) {
	session, err := m.session(id)
	if err != nil {
		return View{}, err
	}
	return session.View(), nil
}

func (m *Manager) Search(ctx context.Context, id uuid.UUID) (View, error) {
	session, err := m.session(id)
	if err != nil {
		return View{}, err
	}
	view, err := session.Search(ctx)
	if err == nil && view.StepError != "" {
		ctx = m.logg.WithFields(ctx, map[string]any{"wizard_session_id": id.String(), "step_error": view.StepError})
		m.logg.Warn(ctx, "wizard.search.failed")
	}
	return view, err
}

func (m *Manager) Test(ctx context.Context, id uuid.UUID, channelID string) (View, error) {
	session, err := m.session(id)
	if err != nil {
		return View{}, err
	}
	return session.Test(ctx, channelID)
}

// Apply feeds an I/O-free event. A session that reaches done is removed.
func (m *Manager) Apply(ctx context.Context, id uuid.UUID, ev Event) (View, error) {
	session, err := m.session(id)
	if err != nil {
		return View{}, err
	}
	view, err := session.Apply(ev)
	if err != nil {
		return view, err
	}
	if view.Done {
		m.remove(id)
		ctx = m.logg.WithFields(ctx, map[string]any{"wizard_session_id": id.String(), "selected_chat_id": view.SelectedID})
		m.logg.Info(ctx, "wizard.session.finished")
	}
	return view, nil
}

// Dismiss drops a session from any state.
func (m *Manager) Dismiss(_ context.Context, id uuid.UUID) error {
	if _, err := m.session(id); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func (m *Manager) session(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	session, ok := m.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wizard session not found")
	}
	return session, nil
}

func (m *Manager) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) pruneLocked() {
	now := m.now().UTC()
	for id, session := range m.sessions {
		if session.expired(now, m.ttl) {
			delete(m.sessions, id)
		}
	}
}
