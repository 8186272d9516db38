// Package lifecycle is the sole authority for moving an order through its
// status progression. Every view talking to the HTTP API delegates here;
// none of them carries its own transition logic.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	awspkg "github.com/Djonahuti/ushop-orders/internal/aws"
	"github.com/Djonahuti/ushop-orders/internal/orders"
)

// maxInvoiceAttempts bounds the random-draw loop for invoice numbers. The
// 12-digit keyspace makes more than one retry extraordinarily unlikely.
const maxInvoiceAttempts = 5

// Actor identifies who performs a transition. It is always passed
// explicitly; there is no ambient logged-in state.
type Actor struct {
	ID   string
	Role string
}

const (
	RoleAdmin    = "admin"
	RoleSeller   = "seller"
	RoleCustomer = "customer"
)

// Store is the persistence surface the engine drives.
type Store interface {
	CreateOrder(ctx context.Context, order *orders.Order, entry orders.Entry) error
	Transition(ctx context.Context, orderID, invoiceNo string, from, to orders.Status, entry orders.Entry) error
	RecordOfflinePayment(ctx context.Context, payment *orders.Payment, orderID string, entry orders.Entry) error
	SetFeedbackDone(ctx context.Context, orderID string) error
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	GetByInvoice(ctx context.Context, invoiceNo string) (*orders.Order, error)
	InvoiceExists(ctx context.Context, invoiceNo string) (bool, error)
	History(ctx context.Context, orderID string) iter.Seq2[orders.Entry, error]
}

// EventSink receives status-changed events after the store write committed.
type EventSink interface {
	PublishStatusEvent(ctx context.Context, ev awspkg.StatusEvent) error
}

// MetricsSink receives operational counters.
type MetricsSink interface {
	RecordTransition(ctx context.Context, status string) error
	RecordOrderCreated(ctx context.Context) error
	RecordInvoiceRetries(ctx context.Context, retries int) error
}

// Engine validates and applies lifecycle operations. Events and metrics are
// optional and best-effort: a nil sink is skipped, a failing sink is logged.
type Engine struct {
	store   Store
	events  EventSink
	metrics MetricsSink
	logger  *slog.Logger

	nowFunc     func() time.Time
	invoiceFunc func() string
}

// NewEngine wires an Engine. events and metrics may be nil.
func NewEngine(store Store, events EventSink, metrics MetricsSink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       store,
		events:      events,
		metrics:     metrics,
		logger:      logger,
		nowFunc:     time.Now,
		invoiceFunc: randomInvoiceNo,
	}
}

// randomInvoiceNo draws a 12-digit decimal invoice number (no leading zero).
func randomInvoiceNo() string {
	return fmt.Sprintf("%012d", rand.Int64N(900_000_000_000)+100_000_000_000)
}

// ItemInput is one checkout line.
type ItemInput struct {
	ProductID    string
	ProductTitle string
	SellerID     string
	Quantity     int
	Size         string
	UnitPrice    decimal.Decimal
}

// CreateOrderInput carries everything checkout knows about the new order.
type CreateOrderInput struct {
	CustomerID    string
	CustomerName  string
	Items         []ItemInput
	DueAmount     decimal.Decimal
	PaymentMethod string
}

// CreateOrder constructs the order, generates a collision-free invoice
// number, and writes header, items, pending shadow, and the initial history
// entry in one transaction. The random-draw pre-check only avoids wasted
// round trips; the conditional write inside the transaction is the real
// uniqueness guarantee, and a conditional failure triggers a fresh draw.
func (e *Engine) CreateOrder(ctx context.Context, in CreateOrderInput) (*orders.Order, error) {
	initial := orders.StatusPending
	if in.PaymentMethod == orders.PaymentMethodGateway {
		initial = orders.StatusPaid
	}

	items := make([]orders.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, orders.OrderItem{
			ProductID:    it.ProductID,
			ProductTitle: it.ProductTitle,
			SellerID:     it.SellerID,
			Quantity:     it.Quantity,
			Size:         it.Size,
			UnitPrice:    it.UnitPrice.String(),
		})
	}

	now := e.nowFunc()
	order := &orders.Order{
		OrderID:       uuid.NewString(),
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		DueAmount:     in.DueAmount.Round(0).IntPart(),
		Status:        initial,
		PaymentMethod: in.PaymentMethod,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	retries := 0
	for attempt := 0; attempt < maxInvoiceAttempts; attempt++ {
		invoiceNo := e.invoiceFunc()
		taken, err := e.store.InvoiceExists(ctx, invoiceNo)
		if err != nil {
			return nil, &OrderCreationError{Err: err}
		}
		if taken {
			retries++
			continue
		}

		order.InvoiceNo = invoiceNo
		entry := orders.NewEntry(order.OrderID, initial, in.CustomerID, RoleCustomer, now)
		err = e.store.CreateOrder(ctx, order, entry)
		if errors.Is(err, orders.ErrInvoiceTaken) {
			// lost the check-then-act race; draw again
			retries++
			continue
		}
		if err != nil {
			return nil, &OrderCreationError{Err: err}
		}

		e.logger.Info("order created",
			"order_id", order.OrderID,
			"invoice_no", order.InvoiceNo,
			"status", string(initial),
			"invoice_retries", retries)
		e.recordCreation(ctx, retries)
		e.publish(ctx, order, "", initial, Actor{ID: in.CustomerID, Role: RoleCustomer}, now)
		return order, nil
	}

	return nil, &OrderCreationError{Err: fmt.Errorf("no unique invoice number after %d attempts", maxInvoiceAttempts)}
}

// Transition applies a staff-driven move to the immediate successor status.
// Pending has no staff-driven successor: Paid is only reachable through
// ConfirmOfflinePayment (or a gateway confirmation at creation).
func (e *Engine) Transition(ctx context.Context, orderID string, target orders.Status, actor Actor) error {
	order, err := e.store.Get(ctx, orderID)
	if err != nil {
		return &PersistenceError{Op: "load order", Err: err}
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if !target.Valid() {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	if order.Status == orders.StatusPending {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	next, ok := order.Status.Next()
	if !ok || target != next {
		return &InvalidTransitionError{From: order.Status, To: target}
	}

	now := e.nowFunc()
	entry := orders.NewEntry(orderID, target, actor.ID, actor.Role, now)
	err = e.store.Transition(ctx, orderID, order.InvoiceNo, order.Status, target, entry)
	if errors.Is(err, orders.ErrStatusMismatch) {
		return ErrConcurrentModification
	}
	if err != nil {
		return &PersistenceError{Op: "transition", Err: err}
	}

	e.logger.Info("order transitioned",
		"order_id", orderID,
		"from", string(order.Status),
		"to", string(target),
		"actor_id", actor.ID,
		"actor_role", actor.Role)
	e.recordTransition(ctx, target)
	e.publish(ctx, order, order.Status, target, actor, now)
	return nil
}

// PaymentDetails is the customer's offline payment confirmation.
type PaymentDetails struct {
	Amount      decimal.Decimal
	ReferenceNo string
	Bank        string
}

// ConfirmOfflinePayment is the customer self-service Pending -> Paid edge.
// It requires the current status to be exactly Pending, records the payment
// attempt, and appends a history entry like every other transition.
func (e *Engine) ConfirmOfflinePayment(ctx context.Context, invoiceNo string, details PaymentDetails) error {
	order, err := e.store.GetByInvoice(ctx, invoiceNo)
	if err != nil {
		return &PersistenceError{Op: "load order by invoice", Err: err}
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != orders.StatusPending {
		return &InvalidTransitionError{From: order.Status, To: orders.StatusPaid}
	}

	now := e.nowFunc()
	payment := &orders.Payment{
		InvoiceNo:   invoiceNo,
		PaidAt:      now,
		CustomerID:  order.CustomerID,
		Amount:      details.Amount.Round(0).IntPart(),
		ReferenceNo: details.ReferenceNo,
		Bank:        details.Bank,
	}
	actor := Actor{ID: order.CustomerID, Role: RoleCustomer}
	entry := orders.NewEntry(order.OrderID, orders.StatusPaid, actor.ID, actor.Role, now)

	err = e.store.RecordOfflinePayment(ctx, payment, order.OrderID, entry)
	if errors.Is(err, orders.ErrStatusMismatch) {
		return ErrConcurrentModification
	}
	if err != nil {
		return &PersistenceError{Op: "record offline payment", Err: err}
	}

	e.logger.Info("offline payment confirmed",
		"order_id", order.OrderID,
		"invoice_no", invoiceNo,
		"reference_no", details.ReferenceNo)
	e.recordTransition(ctx, orders.StatusPaid)
	e.publish(ctx, order, orders.StatusPending, orders.StatusPaid, actor, now)
	return nil
}

// MarkFeedbackComplete flips the feedback flag once the order has been
// delivered.
func (e *Engine) MarkFeedbackComplete(ctx context.Context, orderID string) error {
	order, err := e.store.Get(ctx, orderID)
	if err != nil {
		return &PersistenceError{Op: "load order", Err: err}
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status.Before(orders.StatusDelivered) {
		return &InvalidTransitionError{From: order.Status, To: order.Status}
	}
	if err := e.store.SetFeedbackDone(ctx, orderID); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return ErrOrderNotFound
		}
		return &PersistenceError{Op: "mark feedback complete", Err: err}
	}
	return nil
}

// History returns the order's status history, oldest first.
func (e *Engine) History(ctx context.Context, orderID string) iter.Seq2[orders.Entry, error] {
	return e.store.History(ctx, orderID)
}

// CurrentStatus returns the order's current status. The creation and
// transition transactions keep the status column equal to the newest
// history entry, so reading the column is reading the head of the ledger.
func (e *Engine) CurrentStatus(ctx context.Context, orderID string) (orders.Status, error) {
	order, err := e.store.Get(ctx, orderID)
	if err != nil {
		return "", &PersistenceError{Op: "load order", Err: err}
	}
	if order == nil {
		return "", ErrOrderNotFound
	}
	return order.Status, nil
}

func (e *Engine) publish(ctx context.Context, order *orders.Order, from, to orders.Status, actor Actor, at time.Time) {
	if e.events == nil {
		return
	}
	ev := awspkg.StatusEvent{
		OrderID:    order.OrderID,
		InvoiceNo:  order.InvoiceNo,
		From:       string(from),
		To:         string(to),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OccurredAt: at.UTC(),
	}
	if err := e.events.PublishStatusEvent(ctx, ev); err != nil {
		e.logger.Warn("failed to publish status event", "order_id", order.OrderID, "error", err)
	}
}

func (e *Engine) recordTransition(ctx context.Context, to orders.Status) {
	if e.metrics == nil {
		return
	}
	if err := e.metrics.RecordTransition(ctx, string(to)); err != nil {
		e.logger.Warn("failed to record transition metric", "error", err)
	}
}

func (e *Engine) recordCreation(ctx context.Context, retries int) {
	if e.metrics == nil {
		return
	}
	if err := e.metrics.RecordOrderCreated(ctx); err != nil {
		e.logger.Warn("failed to record creation metric", "error", err)
	}
	if err := e.metrics.RecordInvoiceRetries(ctx, retries); err != nil {
		e.logger.Warn("failed to record invoice retry metric", "error", err)
	}
}
