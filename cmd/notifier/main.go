package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	awspkg "github.com/Djonahuti/ushop-orders/internal/aws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var metrics *awspkg.Metrics
	clients, err := awspkg.NewAWSClients(context.Background())
	if err != nil {
		logger.Warn("failed to init aws clients, running without metrics", "error", err)
	} else {
		ns := os.Getenv("METRICS_NAMESPACE")
		if ns == "" {
			ns = "UShop/Orders"
		}
		metrics = awspkg.NewMetrics(clients.CloudWatch, ns)
	}

	p := NewProcessor(metrics, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","invoice_no":"123456789012","to":"Payment confirmed","actor_id":"admin1","actor_role":"admin"}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: body},
			},
		}
		if err := p.Handle(context.Background(), ev); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
