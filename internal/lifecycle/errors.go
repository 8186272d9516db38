package lifecycle

import (
	"errors"
	"fmt"

	"github.com/Djonahuti/ushop-orders/internal/orders"
)

// ErrOrderNotFound means the referenced order or invoice does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrConcurrentModification means the order's status changed between read
// and write. The caller should refresh and retry with the new state.
var ErrConcurrentModification = errors.New("order was modified concurrently")

// InvalidTransitionError reports a state change that violates the
// forward-only, one-step-at-a-time rule.
type InvalidTransitionError struct {
	From orders.Status
	To   orders.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// PersistenceError wraps a store-level failure. The engine never retries;
// callers decide whether to resubmit.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// OrderCreationError reports that the multi-record order creation failed.
// The creation is transactional, so no partial records are left behind.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("order creation failed: %v", e.Err)
}

func (e *OrderCreationError) Unwrap() error { return e.Err }
