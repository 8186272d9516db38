package readmodel

import (
	"context"
	"testing"
	"time"

	"github.com/Djonahuti/ushop-orders/internal/dynamock"
	"github.com/Djonahuti/ushop-orders/internal/orders"
)

// memStore serves a fixed, newest-first order slice the way the real store
// would after role scoping.
type memStore struct {
	all []orders.Order
}

func (m *memStore) ListAll(ctx context.Context) ([]orders.Order, error) {
	return m.all, nil
}

func (m *memStore) ListByCustomer(ctx context.Context, customerID string) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range m.all {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListBySeller(ctx context.Context, sellerID string) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range m.all {
		for _, it := range o.Items {
			if it.SellerID == sellerID {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func fixtureStore() *memStore {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &memStore{all: []orders.Order{
		{
			OrderID: "o-3", InvoiceNo: "333344445555", CustomerID: "cust-2", CustomerName: "Bola Ade",
			DueAmount: 2500, Status: orders.StatusPending, CreatedAt: base.Add(2 * time.Hour),
			Items: []orders.OrderItem{
				{ProductID: "p-3", ProductTitle: "Canvas Belt", SellerID: "sel-2", Quantity: 1, UnitPrice: "2500"},
			},
		},
		{
			OrderID: "o-2", InvoiceNo: "222233334444", CustomerID: "cust-1", CustomerName: "Ada Obi",
			DueAmount: 5000, Status: orders.StatusShipped, CreatedAt: base.Add(time.Hour),
			Items: []orders.OrderItem{
				{ProductID: "p-2", ProductTitle: "Suede Loafers", SellerID: "sel-1", Quantity: 1, UnitPrice: "5000"},
			},
		},
		{
			OrderID: "o-1", InvoiceNo: "111122223333", CustomerID: "cust-1", CustomerName: "Ada Obi",
			DueAmount: 15000, Status: orders.StatusDelivered, FeedbackDone: true, CreatedAt: base,
			Items: []orders.OrderItem{
				{ProductID: "p-1", ProductTitle: "Leather Tote", SellerID: "sel-1", Quantity: 1, UnitPrice: "15000"},
			},
		},
	}}
}

func orderIDs(summaries []OrderSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.OrderID)
	}
	return out
}

func TestAdminList_NoFilter(t *testing.T) {
	admin := NewAdmin(fixtureStore())

	got, err := admin.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(got))
	}
	// scoping order preserved (newest first)
	want := []string{"o-3", "o-2", "o-1"}
	for i, id := range orderIDs(got) {
		if id != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], id)
		}
	}
}

func TestAdminList_StatusTab(t *testing.T) {
	admin := NewAdmin(fixtureStore())

	got, err := admin.List(context.Background(), Filter{Status: orders.StatusShipped})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "o-2" {
		t.Fatalf("expected only o-2, got %v", orderIDs(got))
	}
}

func TestAdminList_Search(t *testing.T) {
	admin := NewAdmin(fixtureStore())
	ctx := context.Background()

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"invoice substring", "1112222", []string{"o-1"}},
		{"product title case-insensitive", "leather", []string{"o-1"}},
		{"customer name", "ada obi", []string{"o-2", "o-1"}},
		{"no hit", "umbrella", nil},
	}
	for _, tc := range cases {
		got, err := admin.List(ctx, Filter{Query: tc.query})
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		ids := orderIDs(got)
		if len(ids) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids)
		}
		for i := range tc.want {
			if ids[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids)
			}
		}
	}
}

func TestAdminList_Paging(t *testing.T) {
	admin := NewAdmin(fixtureStore())
	ctx := context.Background()

	page, err := admin.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || page[0].OrderID != "o-3" {
		t.Fatalf("first page: %v", orderIDs(page))
	}

	page, err = admin.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].OrderID != "o-1" {
		t.Fatalf("second page: %v", orderIDs(page))
	}

	page, err = admin.List(ctx, Filter{Offset: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("offset past end should be empty, got %v", orderIDs(page))
	}
}

func TestSellerList_ScopedToSellerItems(t *testing.T) {
	seller := NewSeller(fixtureStore())

	got, err := seller.List(context.Background(), "sel-1", Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"o-2", "o-1"}
	ids := orderIDs(got)
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestCustomerList_ThreeItemRoundTrip(t *testing.T) {
	tables := orders.Tables{
		Orders:        "orders",
		PendingOrders: "pending_orders",
		StatusHistory: "status_history",
		Payments:      "payments",
	}
	db := dynamock.New()
	db.AddTable(tables.Orders, "order_id", "")
	db.AddTable(tables.PendingOrders, "invoice_no", "")
	db.AddTable(tables.StatusHistory, "order_id", "entry_sk")
	db.AddTable(tables.Payments, "invoice_no", "paid_at")
	db.AddIndex(tables.Orders, "invoice_no-index", "invoice_no")
	db.AddIndex(tables.Orders, "customer_id-index", "customer_id")
	store := orders.NewStore(db, tables)
	ctx := context.Background()

	order := &orders.Order{
		OrderID:       "o-1",
		InvoiceNo:     "111122223333",
		CustomerID:    "cust-1",
		CustomerName:  "Ada Obi",
		DueAmount:     24500,
		Status:        orders.StatusPending,
		PaymentMethod: orders.PaymentMethodOffline,
		Items: []orders.OrderItem{
			{ProductID: "p-1", ProductTitle: "Leather Tote", SellerID: "sel-1", Quantity: 1, UnitPrice: "15000"},
			{ProductID: "p-2", ProductTitle: "Suede Loafers", SellerID: "sel-1", Quantity: 1, Size: "42", UnitPrice: "7000"},
			{ProductID: "p-3", ProductTitle: "Canvas Belt", SellerID: "sel-2", Quantity: 1, UnitPrice: "2500"},
		},
	}
	entry := orders.NewEntry(order.OrderID, order.Status, order.CustomerID, "customer", time.Now())
	if err := store.CreateOrder(ctx, order, entry); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	got, err := NewCustomer(store).List(ctx, "cust-1", Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 order, got %d", len(got))
	}
	summary := got[0]
	if summary.InvoiceNo != order.InvoiceNo || summary.DueAmount != 24500 {
		t.Fatalf("header mismatch: %+v", summary)
	}
	if len(summary.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(summary.Items))
	}
	for i, want := range order.Items {
		it := summary.Items[i]
		if it.ProductID != want.ProductID || it.ProductTitle != want.ProductTitle ||
			it.SellerID != want.SellerID || it.Quantity != want.Quantity ||
			it.Size != want.Size || it.UnitPrice != want.UnitPrice {
			t.Fatalf("item %d mismatch: got %+v, want %+v", i, it, want)
		}
	}
}

func TestCustomerList_OwnOrdersOnly(t *testing.T) {
	customer := NewCustomer(fixtureStore())

	got, err := customer.List(context.Background(), "cust-2", Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "o-3" {
		t.Fatalf("expected only o-3, got %v", orderIDs(got))
	}
	if got[0].Items[0].ProductTitle != "Canvas Belt" {
		t.Fatalf("summary should carry the snapshotted title, got %q", got[0].Items[0].ProductTitle)
	}
	if got[0].DueAmount != 2500 {
		t.Fatalf("due amount: expected 2500, got %d", got[0].DueAmount)
	}
}
