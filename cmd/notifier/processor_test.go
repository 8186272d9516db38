package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	awspkg "github.com/Djonahuti/ushop-orders/internal/aws"
)

func sqsRecord(t *testing.T, ev awspkg.StatusEvent) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return events.SQSMessage{MessageId: "m-1", Body: string(body)}
}

func TestHandle_ValidBatch(t *testing.T) {
	p := NewProcessor(nil, slog.New(slog.DiscardHandler))

	batch := events.SQSEvent{Records: []events.SQSMessage{
		sqsRecord(t, awspkg.StatusEvent{
			OrderID:    "o-1",
			InvoiceNo:  "111122223333",
			To:         "Pending",
			ActorID:    "cust-1",
			ActorRole:  "customer",
			OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}),
		sqsRecord(t, awspkg.StatusEvent{
			OrderID:   "o-1",
			InvoiceNo: "111122223333",
			From:      "Pending",
			To:        "Paid",
			ActorID:   "cust-1",
			ActorRole: "customer",
		}),
	}}

	if err := p.Handle(context.Background(), batch); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestHandle_InvalidBodyFailsBatch(t *testing.T) {
	p := NewProcessor(nil, slog.New(slog.DiscardHandler))

	batch := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m-1", Body: "not json"},
	}}

	if err := p.Handle(context.Background(), batch); err == nil {
		t.Fatal("expected error for invalid body, got nil")
	}
}

func TestHandle_EmptyBatch(t *testing.T) {
	p := NewProcessor(nil, slog.New(slog.DiscardHandler))

	if err := p.Handle(context.Background(), events.SQSEvent{}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
