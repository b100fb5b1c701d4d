package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
)

type Discoverer interface {
	Discover(ctx context.Context) ([]delivery.DiscoveredChat, error)
}

type TestSender interface {
	SendTest(ctx context.Context, chatID string) delivery.Result
}

var setupInstructions = []string{
	"Add the bot to the chat or group that should receive orders.",
	"Allow the bot to post messages there (make it an admin in channels).",
	"Send any message in that chat so the bot can see it.",
	"Run the search again.",
}

// Session is one operator's pass through the wizard. stepMu serializes steps,
// including their provider I/O. mu guards the snapshot and is never held
// across I/O, so reads and expiry checks do not wait on the provider.
type Session struct {
	ID        uuid.UUID
	Trigger   string
	CreatedAt time.Time

	stepMu    sync.Mutex
	mu        sync.Mutex
	snap      Snapshot
	touchedAt atomic.Int64
	discover  Discoverer
	tester    TestSender
	now       func() time.Time
}

// View is the operator-facing rendering of a session.
type View struct {
	ID           uuid.UUID   `json:"id"`
	Trigger      string      `json:"trigger,omitempty"`
	State        State       `json:"state"`
	Step         int         `json:"step"`
	Candidates   []Candidate `json:"candidates"`
	SelectedID   string      `json:"selectedId,omitempty"`
	StepError    string      `json:"stepError,omitempty"`
	Instructions []string    `json:"instructions,omitempty"`
	Done         bool        `json:"done"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func newSession(trigger string, discover Discoverer, tester TestSender, now func() time.Time) *Session {
	created := now().UTC()
	s := &Session{
		ID:        uuid.New(),
		Trigger:   trigger,
		CreatedAt: created,
		snap:      Initial(),
		discover:  discover,
		tester:    tester,
		now:       now,
	}
	s.touchedAt.Store(created.UnixNano())
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	snap := s.snap.clone()
	v := View{
		ID:         s.ID,
		Trigger:    s.Trigger,
		State:      snap.State,
		Step:       int(snap.State),
		Candidates: snap.Candidates,
		SelectedID: snap.SelectedID,
		StepError:  snap.StepError,
		Done:       snap.Done,
		CreatedAt:  s.CreatedAt,
	}
	if snap.State == StateSetupInstructions {
		v.Instructions = append([]string{}, setupInstructions...)
	}
	return v
}

// Search runs channel discovery. A failed query is recorded as a step error and
// can be retried; it is not returned as an error.
func (s *Session) Search(ctx context.Context) (View, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	// Reject up front so an illegal search never reaches the provider.
	if view, err := s.check(SearchFailed("")); err != nil {
		return view, err
	}

	chats, err := s.discover.Discover(ctx)
	ev := SearchCompleted(chats)
	if err != nil {
		ev = SearchFailed(err.Error())
	}
	return s.apply(ev)
}

// Test sends the literal test message to a candidate and records the outcome.
func (s *Session) Test(ctx context.Context, channelID string) (View, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if view, err := s.check(TestCompleted(channelID, false, "")); err != nil {
		return view, err
	}

	result := s.tester.SendTest(ctx, channelID)
	msg := ""
	if result.Failure != nil {
		msg = result.Failure.ProviderMessage
	}
	return s.apply(TestCompleted(channelID, result.OK(), msg))
}

// Apply feeds an operator event that needs no I/O.
func (s *Session) Apply(ev Event) (View, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	return s.apply(ev)
}

// check reports whether ev is legal in the current state without applying it.
func (s *Session) check(ev Event) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := Transition(s.snap, ev); err != nil {
		return s.viewLocked(), err
	}
	return View{}, nil
}

func (s *Session) apply(ev Event) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Transition(s.snap, ev)
	if err != nil {
		return s.viewLocked(), err
	}
	s.snap = next
	s.touchedAt.Store(s.now().UTC().UnixNano())
	return s.viewLocked(), nil
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(time.Unix(0, s.touchedAt.Load())) > ttl
}
