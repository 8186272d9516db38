package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes operational counters to CloudWatch. All methods are
// best-effort: callers log failures, they never fail the business operation.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetrics returns a Metrics recorder publishing under the given namespace.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
	}
}

// RecordTransition counts one status transition, dimensioned by target status.
func (m *Metrics) RecordTransition(ctx context.Context, status string) error {
	return m.put(ctx, cwtypes.MetricDatum{
		MetricName: awsString("StatusTransition"),
		Value:      awsFloat64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: awsString("Status"), Value: &status},
		},
	})
}

// RecordOrderCreated counts one successful order creation.
func (m *Metrics) RecordOrderCreated(ctx context.Context) error {
	return m.put(ctx, cwtypes.MetricDatum{
		MetricName: awsString("OrderCreated"),
		Value:      awsFloat64(1),
		Unit:       cwtypes.StandardUnitCount,
	})
}

// RecordNotification counts one delivered status notification, dimensioned by
// the status that triggered it.
func (m *Metrics) RecordNotification(ctx context.Context, status string) error {
	return m.put(ctx, cwtypes.MetricDatum{
		MetricName: awsString("StatusNotification"),
		Value:      awsFloat64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: awsString("Status"), Value: &status},
		},
	})
}

// RecordInvoiceRetries records how many extra invoice-number draws a creation
// needed before the conditional write went through.
func (m *Metrics) RecordInvoiceRetries(ctx context.Context, retries int) error {
	if retries == 0 {
		return nil
	}
	return m.put(ctx, cwtypes.MetricDatum{
		MetricName: awsString("InvoiceGenerationRetries"),
		Value:      awsFloat64(float64(retries)),
		Unit:       cwtypes.StandardUnitCount,
	})
}

func (m *Metrics) put(ctx context.Context, datum cwtypes.MetricDatum) error {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  &m.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func awsFloat64(f float64) *float64 { return &f }
