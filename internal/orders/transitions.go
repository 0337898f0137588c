package orders

import "github.com/angelmondragon/pickupz-backend/pkg/enums"

// validTransitions is the legal state graph. Terminal statuses have no outgoing edges.
var validTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusRejected},
	enums.OrderStatusProcessing: {enums.OrderStatusReady, enums.OrderStatusRejected},
	enums.OrderStatusReady:      {enums.OrderStatusCompleted, enums.OrderStatusRejected},
	enums.OrderStatusCompleted:  {},
	enums.OrderStatusRejected:   {},
}

// happyPathRank orders the non-rejected statuses.
var happyPathRank = map[enums.OrderStatus]int{
	enums.OrderStatusPending:    0,
	enums.OrderStatusProcessing: 1,
	enums.OrderStatusReady:      2,
	enums.OrderStatusCompleted:  3,
}

type transitionOutcome int

const (
	transitionApply transitionOutcome = iota
	transitionNoop
	transitionInvalid
)

// CanTransition reports whether target is directly reachable from current.
func CanTransition(current, target enums.OrderStatus) bool {
	for _, allowed := range validTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// evaluateTransition classifies a request. Retrying a transition the order has already
// gone through is a no-op so at-least-once callers never see an error for it.
func evaluateTransition(current, target enums.OrderStatus) transitionOutcome {
	if current == target {
		return transitionNoop
	}
	if CanTransition(current, target) {
		return transitionApply
	}
	currentRank, currentOnPath := happyPathRank[current]
	targetRank, targetOnPath := happyPathRank[target]
	if currentOnPath && targetOnPath && targetRank > 0 && targetRank < currentRank {
		return transitionNoop
	}
	return transitionInvalid
}
