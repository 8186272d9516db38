package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Djonahuti/ushop-orders/internal/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// GSI names on the orders table.
const (
	invoiceIndex  = "invoice_no-index"
	customerIndex = "customer_id-index"
)

// conditionalCheckFailed is the cancellation-reason code DynamoDB reports for
// a failed ConditionExpression inside a transaction.
const conditionalCheckFailed = "ConditionalCheckFailed"

// ErrStatusMismatch means the order's status at write time was not the
// expected predecessor: another writer got there first.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrInvoiceTaken means the generated invoice number already exists; the
// caller should draw a new one and retry.
var ErrInvoiceTaken = errors.New("invoice number already taken")

// ErrNotFound means the referenced order does not exist in the store.
var ErrNotFound = errors.New("order not found")

// Tables names the four DynamoDB tables the store writes across.
type Tables struct {
	Orders        string
	PendingOrders string
	StatusHistory string
	Payments      string
}

// Store is the single data-access collaborator for orders, their pending
// shadows, payments, and the status history ledger. Multi-record operations
// are issued as one TransactWriteItems call so a history entry can never
// disagree with the order's visible status.
type Store struct {
	client  aws.DynamoDBAPI
	tables  Tables
	nowFunc func() time.Time
}

// NewStore creates a Store bound to the given tables.
func NewStore(client aws.DynamoDBAPI, tables Tables) *Store {
	return &Store{
		client:  client,
		tables:  tables,
		nowFunc: time.Now,
	}
}

// CreateOrder atomically writes the order header (items embedded), its
// pending shadow, and the initial history entry. The conditional put on the
// shadow (attribute_not_exists(invoice_no)) is the store-level uniqueness
// guarantee on invoice numbers; returns ErrInvoiceTaken when it trips.
func (s *Store) CreateOrder(ctx context.Context, order *Order, entry Entry) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	shadow := PendingOrder{
		InvoiceNo:  order.InvoiceNo,
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}

	shadowMap, err := attributevalue.MarshalMap(shadow)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}
	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	entryMap, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	// The shadow put carries the invoice-uniqueness condition and must stay
	// first: cancellation reasons are matched by index.
	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.tables.PendingOrders,
					Item:                shadowMap,
					ConditionExpression: awsString("attribute_not_exists(invoice_no)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tables.Orders,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tables.StatusHistory,
					Item:      entryMap,
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		if reasonFailed(err, 0) {
			return ErrInvoiceTaken
		}
		return fmt.Errorf("transact create order: %w", err)
	}
	return nil
}

// Transition moves the order from one status to its already-validated
// successor. One transaction: compare-and-swap on the order's status column,
// the shadow update (or its deletion once the order is DELIVERED), and the
// history append. Returns ErrStatusMismatch when a concurrent writer changed
// the status first.
func (s *Store) Transition(ctx context.Context, orderID, invoiceNo string, from, to Status, entry Entry) error {
	now := s.nowFunc()

	entryMap, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName:                &s.tables.Orders,
				Key:                      orderKey(orderID),
				UpdateExpression:         awsString("SET #s = :to, updated_at = :ua"),
				ConditionExpression:      awsString("#s = :from"),
				ExpressionAttributeNames: map[string]string{"#s": "status"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":to":   &types.AttributeValueMemberS{Value: string(to)},
					":from": &types.AttributeValueMemberS{Value: string(from)},
					":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
				},
			},
		},
	}

	// The shadow mirrors the order up to OUT FOR DELIVERY and is removed when
	// the order is DELIVERED. The final DELIVERED -> COMPLETED step has no
	// shadow left to touch.
	switch {
	case to == StatusDelivered:
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: &s.tables.PendingOrders,
				Key:       invoiceKey(invoiceNo),
			},
		})
	case to.Before(StatusDelivered):
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:                &s.tables.PendingOrders,
				Key:                      invoiceKey(invoiceNo),
				UpdateExpression:         awsString("SET #s = :to, updated_at = :ua"),
				ConditionExpression:      awsString("attribute_exists(invoice_no)"),
				ExpressionAttributeNames: map[string]string{"#s": "status"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":to": &types.AttributeValueMemberS{Value: string(to)},
					":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
				},
			},
		})
	}

	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: &s.tables.StatusHistory,
			Item:      entryMap,
		},
	})

	if _, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: items}); err != nil {
		if reasonFailed(err, 0) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("transact transition: %w", err)
	}
	return nil
}

// RecordOfflinePayment atomically records the payment attempt, swings the
// order Pending -> Paid (compare-and-swap), mirrors the shadow, and appends
// the history entry.
func (s *Store) RecordOfflinePayment(ctx context.Context, payment *Payment, orderID string, entry Entry) error {
	now := s.nowFunc()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}

	paymentMap, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}
	entryMap, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                &s.tables.Orders,
					Key:                      orderKey(orderID),
					UpdateExpression:         awsString("SET #s = :to, updated_at = :ua"),
					ConditionExpression:      awsString("#s = :from"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":to":   &types.AttributeValueMemberS{Value: string(StatusPaid)},
						":from": &types.AttributeValueMemberS{Value: string(StatusPending)},
						":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
					},
				},
			},
			{
				Update: &types.Update{
					TableName:                &s.tables.PendingOrders,
					Key:                      invoiceKey(payment.InvoiceNo),
					UpdateExpression:         awsString("SET #s = :to, updated_at = :ua"),
					ConditionExpression:      awsString("attribute_exists(invoice_no)"),
					ExpressionAttributeNames: map[string]string{"#s": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":to": &types.AttributeValueMemberS{Value: string(StatusPaid)},
						":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tables.Payments,
					Item:      paymentMap,
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tables.StatusHistory,
					Item:      entryMap,
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		if reasonFailed(err, 0) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("transact offline payment: %w", err)
	}
	return nil
}

// SetFeedbackDone flips the order's feedback-complete flag.
func (s *Store) SetFeedbackDone(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tables.Orders,
		Key:                 orderKey(orderID),
		UpdateExpression:    awsString("SET feedback_done = :fb, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fb": &types.AttributeValueMemberBOOL{Value: true},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrNotFound
		}
		return fmt.Errorf("update feedback flag: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tables.Orders,
		Key:       orderKey(orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetByInvoice fetches an order via the invoice GSI. Returns (nil, nil) if
// not found.
func (s *Store) GetByInvoice(ctx context.Context, invoiceNo string) (*Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                 &s.tables.Orders,
		IndexName:                 awsString(invoiceIndex),
		KeyConditionExpression:    awsString("invoice_no = :inv"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":inv": &types.AttributeValueMemberS{Value: invoiceNo}},
	})
	if err != nil {
		return nil, fmt.Errorf("query order by invoice: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// InvoiceExists pre-checks a candidate invoice number against both the
// pending-orders table and the orders GSI. This only avoids wasted
// transaction round trips; the conditional put in CreateOrder is the actual
// uniqueness guarantee.
func (s *Store) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tables.PendingOrders,
		Key:       invoiceKey(invoiceNo),
	})
	if err != nil {
		return false, fmt.Errorf("get pending order: %w", err)
	}
	if len(out.Item) > 0 {
		return true, nil
	}

	o, err := s.GetByInvoice(ctx, invoiceNo)
	if err != nil {
		return false, err
	}
	return o != nil, nil
}

// ListAll returns every order, newest first.
func (s *Store) ListAll(ctx context.Context) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tables.Orders,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		for _, item := range page.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			out = append(out, o)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	sortNewestFirst(out)
	return out, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (s *Store) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                 &s.tables.Orders,
		IndexName:                 awsString(customerIndex),
		KeyConditionExpression:    awsString("customer_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":cid": &types.AttributeValueMemberS{Value: customerID}},
	})
	if err != nil {
		return nil, fmt.Errorf("query orders by customer: %w", err)
	}
	result := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	sortNewestFirst(result)
	return result, nil
}

// ListBySeller returns orders containing at least one of the seller's items,
// newest first. Seller membership lives inside the items document, which no
// GSI can reach, so this filters a scan.
func (s *Store) ListBySeller(ctx context.Context, sellerID string) ([]Order, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	result := all[:0]
	for _, o := range all {
		if slices.ContainsFunc(o.Items, func(it OrderItem) bool { return it.SellerID == sellerID }) {
			result = append(result, o)
		}
	}
	return slices.Clip(result), nil
}

func sortNewestFirst(os []Order) {
	slices.SortFunc(os, func(a, b Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

func invoiceKey(invoiceNo string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"invoice_no": &types.AttributeValueMemberS{Value: invoiceNo},
	}
}

// reasonFailed reports whether a TransactWriteItems error is a transaction
// cancellation whose item at idx failed its ConditionExpression.
func reasonFailed(err error, idx int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	if idx >= len(tce.CancellationReasons) {
		return false
	}
	r := tce.CancellationReasons[idx]
	return r.Code != nil && *r.Code == conditionalCheckFailed
}

func awsString(s string) *string { return &s }
func awsInt32(n int32) *int32    { return &n }
func awsBool(b bool) *bool       { return &b }
