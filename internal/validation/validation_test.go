package validation

import "testing"

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID:   "cust-123",
		CustomerName: "Ada Obi",
		Items: []ItemRequest{
			{ProductID: "p-1", ProductTitle: "Leather Tote", SellerID: "sel-1", Quantity: 2, UnitPrice: 5000},
			{ProductID: "p-2", ProductTitle: "Canvas Belt", SellerID: "sel-2", Quantity: 1, Size: "M", UnitPrice: 2500},
		},
		DueAmount:     12500, // 2*5000 + 1*2500
		PaymentMethod: "offline",
	}
}

func TestCreateOrderRequest_Valid(t *testing.T) {
	v := New()

	if err := v.Struct(validCreateRequest()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCreateOrderRequest_AmountMismatch(t *testing.T) {
	v := New()

	req := validCreateRequest()
	req.DueAmount = 12000

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for amount mismatch, got nil")
	}
}

func TestCreateOrderRequest_FractionalPricesRoundToUnits(t *testing.T) {
	v := New()

	req := validCreateRequest()
	req.Items = []ItemRequest{
		{ProductID: "p-1", ProductTitle: "Leather Tote", SellerID: "sel-1", Quantity: 3, UnitPrice: 33.33},
	}
	req.DueAmount = 100 // 99.99 rounds to 100

	if err := v.Struct(req); err != nil {
		t.Fatalf("expected rounded total to validate, got error: %v", err)
	}
}

func TestCreateOrderRequest_MissingFields(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		// CustomerID missing
		Items:     []ItemRequest{},
		DueAmount: 0,
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
}

func TestCreateOrderRequest_BadPaymentMethod(t *testing.T) {
	v := New()

	req := validCreateRequest()
	req.PaymentMethod = "cheque"

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for unknown payment method, got nil")
	}
}

func TestConfirmPaymentRequest_InvoiceShape(t *testing.T) {
	v := New()

	req := ConfirmPaymentRequest{
		InvoiceNo:   "123456789012",
		Amount:      12500,
		ReferenceNo: "TRX-981",
		Bank:        "GTB",
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	req.InvoiceNo = "12345"
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for short invoice number, got nil")
	}

	req.InvoiceNo = "12345678901a"
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for non-numeric invoice number, got nil")
	}
}

func TestTransitionRequest_ActorRole(t *testing.T) {
	v := New()

	req := TransitionRequest{Status: "SHIPPED", ActorID: "sel-1", ActorRole: "seller"}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	req.ActorRole = "customer"
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for customer-driven staff transition, got nil")
	}
}
