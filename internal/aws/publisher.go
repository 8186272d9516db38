package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// StatusEvent is the message published whenever an order changes status.
// From is empty for the event emitted at order creation.
type StatusEvent struct {
	OrderID    string    `json:"order_id"`
	InvoiceNo  string    `json:"invoice_no"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher wraps an SQS client and the status-events queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishStatusEvent sends a status-changed event to the queue. The invoice
// number and target status are duplicated into message attributes so
// consumers can filter without parsing the body.
func (p *Publisher) PublishStatusEvent(ctx context.Context, ev StatusEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	msgBody := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msgBody,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"invoice_no": {
				DataType:    awsString("String"),
				StringValue: &ev.InvoiceNo,
			},
			"status": {
				DataType:    awsString("String"),
				StringValue: &ev.To,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
