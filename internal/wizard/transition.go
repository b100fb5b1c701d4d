package wizard

import (
	"strings"

	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

type EventKind string

const (
	EventSearchCompleted EventKind = "search_completed"
	EventSearchFailed    EventKind = "search_failed"
	EventSkip            EventKind = "skip"
	EventBack            EventKind = "back"
	EventSelect          EventKind = "select"
	EventTestCompleted   EventKind = "test_completed"
	EventProceed         EventKind = "proceed"
	EventDone            EventKind = "done"
)

type Event struct {
	Kind      EventKind
	Channels  []delivery.DiscoveredChat
	ChannelID string
	OK        bool
	Message   string
}

func SearchCompleted(channels []delivery.DiscoveredChat) Event {
	return Event{Kind: EventSearchCompleted, Channels: channels}
}

func SearchFailed(message string) Event {
	return Event{Kind: EventSearchFailed, Message: message}
}

func Skip() Event    { return Event{Kind: EventSkip} }
func Back() Event    { return Event{Kind: EventBack} }
func Proceed() Event { return Event{Kind: EventProceed} }
func Done() Event    { return Event{Kind: EventDone} }

func Select(channelID string) Event {
	return Event{Kind: EventSelect, ChannelID: channelID}
}

func TestCompleted(channelID string, ok bool, message string) Event {
	return Event{Kind: EventTestCompleted, ChannelID: channelID, OK: ok, Message: message}
}

// Transition applies ev to s and returns the next snapshot. Illegal events leave
// s untouched and fail with STATE_CONFLICT.
func Transition(s Snapshot, ev Event) (Snapshot, error) {
	if s.Done {
		return s, illegal(s, ev)
	}
	next := s.clone()

	switch ev.Kind {
	case EventSearchCompleted:
		if s.State != StateSearch && s.State != StateSetupInstructions {
			return s, illegal(s, ev)
		}
		next.Candidates = candidatesFrom(ev.Channels)
		next.StepError = ""
		if next.candidateIndex(next.SelectedID) < 0 {
			next.SelectedID = ""
		}
		if len(next.Candidates) > 0 {
			next.State = StateSelectChannel
		} else {
			next.State = StateSetupInstructions
		}

	case EventSearchFailed:
		if s.State != StateSearch && s.State != StateSetupInstructions {
			return s, illegal(s, ev)
		}
		next.StepError = strings.TrimSpace(ev.Message)
		if next.StepError == "" {
			next.StepError = "channel search failed"
		}

	case EventSkip:
		if s.State != StateSearch {
			return s, illegal(s, ev)
		}
		next.State = StateSetupInstructions
		next.StepError = ""

	case EventBack:
		prev, ok := s.State.predecessor()
		if !ok {
			return s, illegal(s, ev)
		}
		next.State = prev
		next.StepError = ""

	case EventSelect:
		if s.State != StateSelectChannel {
			return s, illegal(s, ev)
		}
		if next.candidateIndex(ev.ChannelID) < 0 {
			return s, unknownCandidate(ev.ChannelID)
		}
		next.SelectedID = ev.ChannelID

	case EventTestCompleted:
		if s.State != StateSelectChannel {
			return s, illegal(s, ev)
		}
		i := next.candidateIndex(ev.ChannelID)
		if i < 0 {
			return s, unknownCandidate(ev.ChannelID)
		}
		if ev.OK {
			next.Candidates[i].Test = TestOK
			next.Candidates[i].TestError = ""
		} else {
			next.Candidates[i].Test = TestFailed
			next.Candidates[i].TestError = strings.TrimSpace(ev.Message)
		}

	case EventProceed:
		// A successful test-send is advisory; only a selection is required.
		if s.State != StateSelectChannel || s.SelectedID == "" {
			return s, illegal(s, ev)
		}
		next.State = StateFinalize
		next.StepError = ""

	case EventDone:
		if s.State != StateFinalize {
			return s, illegal(s, ev)
		}
		next.Done = true

	default:
		return s, illegal(s, ev)
	}
	return next, nil
}

func candidatesFrom(channels []delivery.DiscoveredChat) []Candidate {
	out := make([]Candidate, 0, len(channels))
	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if _, dup := seen[ch.ID]; dup || ch.ID == "" {
			continue
		}
		seen[ch.ID] = struct{}{}
		out = append(out, Candidate{ID: ch.ID, Title: ch.Title, Type: ch.Type, Test: TestUntested})
	}
	return out
}

func illegal(s Snapshot, ev Event) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is not allowed in %s", ev.Kind, s.State).
		WithDetails(map[string]any{"state": s.State.String(), "event": string(ev.Kind), "done": s.Done})
}

func unknownCandidate(id string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "unknown channel").
		WithDetails(map[string]any{"channelId": id})
}
