package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestPublishStatusEvent(t *testing.T) {
	fake := &fakeSQS{}
	pub := NewPublisher(fake, "https://sqs.us-east-1.amazonaws.com/123/status-events")

	ev := StatusEvent{
		OrderID:    "o-1",
		InvoiceNo:  "111122223333",
		From:       "Paid",
		To:         "Payment confirmed",
		ActorID:    "admin1",
		ActorRole:  "admin",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := pub.PublishStatusEvent(context.Background(), ev); err != nil {
		t.Fatalf("PublishStatusEvent: %v", err)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.QueueUrl != pub.QueueURL {
		t.Fatalf("queue url: got %q", *in.QueueUrl)
	}

	var decoded StatusEvent
	if err := json.Unmarshal([]byte(*in.MessageBody), &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if decoded.OrderID != ev.OrderID || decoded.From != ev.From || decoded.To != ev.To ||
		decoded.ActorID != ev.ActorID || decoded.ActorRole != ev.ActorRole ||
		!decoded.OccurredAt.Equal(ev.OccurredAt) {
		t.Fatalf("round-tripped event differs: %+v", decoded)
	}

	if got := *in.MessageAttributes["invoice_no"].StringValue; got != ev.InvoiceNo {
		t.Fatalf("invoice_no attribute: got %q", got)
	}
	if got := *in.MessageAttributes["status"].StringValue; got != ev.To {
		t.Fatalf("status attribute: got %q", got)
	}
}

func TestPublishStatusEvent_SendFailure(t *testing.T) {
	fake := &fakeSQS{err: errors.New("throttled")}
	pub := NewPublisher(fake, "https://sqs.us-east-1.amazonaws.com/123/status-events")

	if err := pub.PublishStatusEvent(context.Background(), StatusEvent{OrderID: "o-1"}); err == nil {
		t.Fatal("expected error from failed send, got nil")
	}
}
