package orders

// Status is an order's position in its lifecycle. The values are the exact
// labels shown on the storefront dashboards and recorded in the history log.
type Status string

const (
	StatusPending            Status = "Pending"
	StatusPaid               Status = "Paid"
	StatusPaymentConfirmed   Status = "Payment confirmed"
	StatusWaitingToBeShipped Status = "WAITING TO BE SHIPPED"
	StatusShipped            Status = "SHIPPED"
	StatusOutForDelivery     Status = "OUT FOR DELIVERY"
	StatusDelivered          Status = "DELIVERED"
	StatusCompleted          Status = "COMPLETED"
)

// statusOrder is the forward-only progression. Transitions may only move one
// step at a time along this list; there is no backward edge.
var statusOrder = []Status{
	StatusPending,
	StatusPaid,
	StatusPaymentConfirmed,
	StatusWaitingToBeShipped,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCompleted,
}

// Statuses returns the full progression in order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// ParseStatus maps a label to its Status, reporting whether it is one of the
// known lifecycle values.
func ParseStatus(s string) (Status, bool) {
	for _, st := range statusOrder {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Index returns the status's position in the progression, or -1 for an
// unknown label.
func (s Status) Index() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the enumerated lifecycle values.
func (s Status) Valid() bool { return s.Index() >= 0 }

// Next returns the immediate successor status. ok is false when s is
// terminal or unknown.
func (s Status) Next() (next Status, ok bool) {
	i := s.Index()
	if i < 0 || i == len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[i+1], true
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusCompleted }

// Before reports whether s comes strictly earlier than t in the progression.
func (s Status) Before(t Status) bool {
	si, ti := s.Index(), t.Index()
	return si >= 0 && ti >= 0 && si < ti
}
