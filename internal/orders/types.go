package orders

import "time"

// PaymentMethod chosen at checkout. Offline payments start the order at
// Pending and are later confirmed by the customer; gateway payments are
// confirmed by the external processor before the order reaches us, so the
// order starts at Paid.
const (
	PaymentMethodOffline = "offline"
	PaymentMethodGateway = "gateway"
)

// Order is the header record in the orders table. Line items are stored as a
// document attribute on the order: they are written once at creation and the
// read models never need them independently, so a separate table would only
// reintroduce the fan-out joins this service exists to remove.
type Order struct {
	OrderID       string      `dynamodbav:"order_id"`   // PK
	InvoiceNo     string      `dynamodbav:"invoice_no"` // 12-digit customer-facing reference, GSI key
	CustomerID    string      `dynamodbav:"customer_id"`
	CustomerName  string      `dynamodbav:"customer_name"`
	DueAmount     int64       `dynamodbav:"due_amount"` // whole currency units
	Status        Status      `dynamodbav:"status"`
	PaymentMethod string      `dynamodbav:"payment_method"`
	FeedbackDone  bool        `dynamodbav:"feedback_done"`
	Items         []OrderItem `dynamodbav:"items"`
	CreatedAt     time.Time   `dynamodbav:"created_at"`
	UpdatedAt     time.Time   `dynamodbav:"updated_at"`
}

// OrderItem is one line of an order. Product title and seller are snapshotted
// at creation so listings and search never chase product records.
type OrderItem struct {
	ProductID    string `dynamodbav:"product_id"`
	ProductTitle string `dynamodbav:"product_title"`
	SellerID     string `dynamodbav:"seller_id"`
	Quantity     int    `dynamodbav:"quantity"`
	Size         string `dynamodbav:"size,omitempty"`
	UnitPrice    string `dynamodbav:"unit_price"` // decimal string
}

// PendingOrder is the "needs attention" shadow of an order, keyed by invoice
// number. It exists from creation until the order is DELIVERED, and its
// conditional put doubles as the store-level uniqueness constraint on
// invoice numbers.
type PendingOrder struct {
	InvoiceNo  string    `dynamodbav:"invoice_no"` // PK
	OrderID    string    `dynamodbav:"order_id"`
	CustomerID string    `dynamodbav:"customer_id"`
	Status     Status    `dynamodbav:"status"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

// Payment records a customer-submitted offline payment confirmation.
type Payment struct {
	InvoiceNo   string    `dynamodbav:"invoice_no"` // PK
	PaidAt      time.Time `dynamodbav:"paid_at"`    // SK
	CustomerID  string    `dynamodbav:"customer_id"`
	Amount      int64     `dynamodbav:"amount"` // whole currency units
	ReferenceNo string    `dynamodbav:"reference_no"`
	Bank        string    `dynamodbav:"bank"`
}
