// Package wizard guides an operator from a "chat not found" delivery failure to
// a working destination chat id. It only recommends the id; applying it is an
// out-of-band configuration change.
package wizard

import (
	"fmt"

	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
)

type State int

const (
	StateSearch State = iota + 1
	StateSetupInstructions
	StateSelectChannel
	StateFinalize
)

var stateNames = map[State]string{
	StateSearch:            "search",
	StateSetupInstructions: "setup_instructions",
	StateSelectChannel:     "select_channel",
	StateFinalize:          "finalize",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// predecessor is the state Back returns to. Search has none.
func (s State) predecessor() (State, bool) {
	if s <= StateSearch || s > StateFinalize {
		return 0, false
	}
	return s - 1, true
}

type TestStatus string

const (
	TestUntested TestStatus = "untested"
	TestOK       TestStatus = "ok"
	TestFailed   TestStatus = "failed"
)

// Candidate is a discovered chat plus the outcome of the last test-send to it.
type Candidate struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Type      delivery.ChatType `json:"type"`
	Test      TestStatus        `json:"test"`
	TestError string            `json:"testError,omitempty"`
}

// Snapshot is the full wizard state. Transition never mutates its input.
type Snapshot struct {
	State      State       `json:"state"`
	Candidates []Candidate `json:"candidates"`
	SelectedID string      `json:"selectedId,omitempty"`
	StepError  string      `json:"stepError,omitempty"`
	Done       bool        `json:"done"`
}

// Initial is the state every new wizard starts from.
func Initial() Snapshot {
	return Snapshot{State: StateSearch, Candidates: []Candidate{}}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Candidates = append([]Candidate{}, s.Candidates...)
	return out
}

func (s Snapshot) candidateIndex(id string) int {
	for i := range s.Candidates {
		if s.Candidates[i].ID == id {
			return i
		}
	}
	return -1
}

