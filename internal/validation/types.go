package validation

// ItemRequest is a single checkout line. Product title and seller are sent
// by the storefront so the order can snapshot them.
type ItemRequest struct {
	ProductID    string  `json:"product_id" validate:"required"`
	ProductTitle string  `json:"product_title" validate:"required"`
	SellerID     string  `json:"seller_id" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	Size         string  `json:"size,omitempty"`
	UnitPrice    float64 `json:"unit_price" validate:"required,gt=0"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	CustomerID    string        `json:"customer_id" validate:"required"`
	CustomerName  string        `json:"customer_name" validate:"required"`
	Items         []ItemRequest `json:"items" validate:"required,min=1,dive"`
	DueAmount     float64       `json:"due_amount" validate:"required,gt=0"`
	PaymentMethod string        `json:"payment_method" validate:"required,oneof=offline gateway"`
}

// ConfirmPaymentRequest is the payload for POST /payments/offline.
type ConfirmPaymentRequest struct {
	InvoiceNo   string  `json:"invoice_no" validate:"required,len=12,numeric"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	ReferenceNo string  `json:"reference_no" validate:"required"`
	Bank        string  `json:"bank" validate:"required"`
}

// TransitionRequest is the payload for POST /orders/:orderID/status.
type TransitionRequest struct {
	Status    string `json:"status" validate:"required"`
	ActorID   string `json:"actor_id" validate:"required"`
	ActorRole string `json:"actor_role" validate:"required,oneof=admin seller"`
}
