// Package readmodel projects orders into the filtered, searchable listings
// each dashboard needs. Projections are pure: they never mutate state, and
// status actions on the dashboards go through the lifecycle engine.
package readmodel

import (
	"context"
	"strings"
	"time"

	"github.com/Djonahuti/ushop-orders/internal/orders"
)

// Store is the read surface the projections run over.
type Store interface {
	ListAll(ctx context.Context) ([]orders.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]orders.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]orders.Order, error)
}

// Filter narrows a listing. Zero values mean "no restriction".
type Filter struct {
	Status orders.Status // status-tab selection
	Query  string        // free-text search
	Limit  int
	Offset int
}

// ItemSummary is one projected order line.
type ItemSummary struct {
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"`
	SellerID     string `json:"seller_id"`
	Quantity     int    `json:"quantity"`
	Size         string `json:"size,omitempty"`
	UnitPrice    string `json:"unit_price"`
}

// OrderSummary is the fully hydrated listing row. No consumer needs to chase
// foreign keys: titles and names were snapshotted at order creation.
type OrderSummary struct {
	OrderID      string        `json:"order_id"`
	InvoiceNo    string        `json:"invoice_no"`
	CustomerID   string        `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	DueAmount    int64         `json:"due_amount"`
	Status       orders.Status `json:"status"`
	FeedbackDone bool          `json:"feedback_done"`
	Items        []ItemSummary `json:"items"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Admin lists every order.
type Admin struct{ store Store }

func NewAdmin(store Store) *Admin { return &Admin{store: store} }

func (a *Admin) List(ctx context.Context, f Filter) ([]OrderSummary, error) {
	os, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return project(os, f), nil
}

// Seller lists orders containing that seller's products.
type Seller struct{ store Store }

func NewSeller(store Store) *Seller { return &Seller{store: store} }

func (s *Seller) List(ctx context.Context, sellerID string, f Filter) ([]OrderSummary, error) {
	os, err := s.store.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return project(os, f), nil
}

// Customer lists only that customer's own orders.
type Customer struct{ store Store }

func NewCustomer(store Store) *Customer { return &Customer{store: store} }

func (c *Customer) List(ctx context.Context, customerID string, f Filter) ([]OrderSummary, error) {
	os, err := c.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return project(os, f), nil
}

// project applies the status tab, search, and paging to an already
// role-scoped, newest-first slice.
func project(os []orders.Order, f Filter) []OrderSummary {
	out := []OrderSummary{}
	for _, o := range os {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !matches(o, f.Query) {
			continue
		}
		out = append(out, summarize(o))
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []OrderSummary{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

// matches implements the search contract: the lower-cased query is a
// substring of the invoice number's decimal string, of any item's product
// title, or of the customer's display name. No ranking.
func matches(o orders.Order, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(o.InvoiceNo), q) {
		return true
	}
	if strings.Contains(strings.ToLower(o.CustomerName), q) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.ProductTitle), q) {
			return true
		}
	}
	return false
}

func summarize(o orders.Order) OrderSummary {
	items := make([]ItemSummary, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemSummary{
			ProductID:    it.ProductID,
			ProductTitle: it.ProductTitle,
			SellerID:     it.SellerID,
			Quantity:     it.Quantity,
			Size:         it.Size,
			UnitPrice:    it.UnitPrice,
		})
	}
	return OrderSummary{
		OrderID:      o.OrderID,
		InvoiceNo:    o.InvoiceNo,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		DueAmount:    o.DueAmount,
		Status:       o.Status,
		FeedbackDone: o.FeedbackDone,
		Items:        items,
		CreatedAt:    o.CreatedAt,
	}
}
