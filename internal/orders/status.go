package orders

import (
	"fmt"

	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// InvalidTransitionError reports a status move outside the lifecycle graph.
type InvalidTransitionError struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// Staying in the same status is not a transition.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns nil for legal moves and for a same-status no-op.
func checkTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(to)})
	}
	if from == to || CanTransition(from, to) {
		return nil
	}
	cause := &InvalidTransitionError{From: from, To: to}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, cause, cause.Error()).
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}
