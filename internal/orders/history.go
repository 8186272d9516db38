package orders

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// entrySKLayout is fixed-width so the lexicographic sort-key order is the
// chronological append order. RFC3339Nano trims trailing zeros and would
// break that.
const entrySKLayout = "2006-01-02T15:04:05.000000000Z"

// historyPageSize is how many entries each Query page fetches.
const historyPageSize = 50

// Entry is one row of the append-only status history ledger. Entries are
// never updated or deleted; the order's status column is a denormalized
// cache of the newest entry.
type Entry struct {
	OrderID    string    `dynamodbav:"order_id"` // PK
	EntrySK    string    `dynamodbav:"entry_sk"` // SK: fixed-width timestamp + unique suffix
	Status     Status    `dynamodbav:"status"`
	ActorID    string    `dynamodbav:"actor_id"`
	ActorRole  string    `dynamodbav:"actor_role"`
	RecordedAt time.Time `dynamodbav:"recorded_at"`
}

// NewEntry builds a history entry stamped at the given time. Attribution is
// mandatory on every write path.
func NewEntry(orderID string, status Status, actorID, actorRole string, at time.Time) Entry {
	return Entry{
		OrderID:    orderID,
		EntrySK:    at.UTC().Format(entrySKLayout) + "#" + uuid.NewString(),
		Status:     status,
		ActorID:    actorID,
		ActorRole:  actorRole,
		RecordedAt: at.UTC(),
	}
}

// History returns the order's status history as a lazy sequence in ascending
// append order. The sequence is finite and restartable: each range-over
// issues a fresh paged Query against the history table.
func (s *Store) History(ctx context.Context, orderID string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		var startKey map[string]types.AttributeValue
		for {
			out, err := s.client.Query(ctx, &dyn.QueryInput{
				TableName:                 &s.tables.StatusHistory,
				KeyConditionExpression:    awsString("order_id = :oid"),
				ExpressionAttributeValues: map[string]types.AttributeValue{":oid": &types.AttributeValueMemberS{Value: orderID}},
				Limit:                     awsInt32(historyPageSize),
				ExclusiveStartKey:         startKey,
			})
			if err != nil {
				yield(Entry{}, fmt.Errorf("query history: %w", err))
				return
			}
			for _, item := range out.Items {
				var e Entry
				if err := attributevalue.UnmarshalMap(item, &e); err != nil {
					yield(Entry{}, fmt.Errorf("unmarshal history entry: %w", err))
					return
				}
				if !yield(e, nil) {
					return
				}
			}
			if len(out.LastEvaluatedKey) == 0 {
				return
			}
			startKey = out.LastEvaluatedKey
		}
	}
}

// LastEntry returns the newest history entry, or (nil, nil) when the order
// has no history.
func (s *Store) LastEntry(ctx context.Context, orderID string) (*Entry, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                 &s.tables.StatusHistory,
		KeyConditionExpression:    awsString("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":oid": &types.AttributeValueMemberS{Value: orderID}},
		ScanIndexForward:          awsBool(false),
		Limit:                     awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query last history entry: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, fmt.Errorf("unmarshal history entry: %w", err)
	}
	return &e, nil
}
