package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	awspkg "github.com/Djonahuti/ushop-orders/internal/aws"
)

// Processor consumes status-changed events and turns them into customer
// notifications plus CloudWatch counters. Notification delivery itself is an
// external concern; this logs the notification payload that would go out.
type Processor struct {
	metrics *awspkg.Metrics
	logger  *slog.Logger
}

// NewProcessor wires a Processor. metrics may be nil.
func NewProcessor(metrics *awspkg.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{metrics: metrics, logger: logger}
}

// Handle receives an SQS batch event and processes each record. Returning an
// error makes the Lambda runtime retry the batch and eventually dead-letter it.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processRecord(ctx, rec); err != nil {
			p.logger.Error("notifier error", "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processRecord(ctx context.Context, rec events.SQSMessage) error {
	var ev awspkg.StatusEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid status event body: %w", err)
	}

	p.logger.Info("order status notification",
		"order_id", ev.OrderID,
		"invoice_no", ev.InvoiceNo,
		"from", ev.From,
		"to", ev.To,
		"actor_id", ev.ActorID,
		"actor_role", ev.ActorRole)

	if p.metrics != nil {
		if err := p.metrics.RecordNotification(ctx, ev.To); err != nil {
			// metrics stay best-effort even here; the notification was logged
			p.logger.Warn("failed to record notification metric", "error", err)
		}
	}
	return nil
}
