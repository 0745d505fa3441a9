package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const metricsNamespace = "FarmDirect/Orders"

// Metrics emits checkout quality counters to CloudWatch.
// Emission is best-effort; callers log and move on when it fails.
type Metrics struct {
	CloudWatch CloudWatchAPI
}

// NewMetrics returns a Metrics emitter backed by the given CloudWatch client.
func NewMetrics(cw CloudWatchAPI) *Metrics {
	return &Metrics{CloudWatch: cw}
}

// OrdersCreated records how many orders a single checkout produced.
func (m *Metrics) OrdersCreated(ctx context.Context, n int) error {
	return m.put(ctx, "OrdersCreated", float64(n))
}

// PricingFallbackUsed records a delivery quote that had to use fallback pricing
// because geocoding was unavailable or the pincode was malformed.
func (m *Metrics) PricingFallbackUsed(ctx context.Context) error {
	return m.put(ctx, "PricingFallbackUsed", 1)
}

// OrderNotified records a farmer notification sent by the worker.
func (m *Metrics) OrderNotified(ctx context.Context) error {
	return m.put(ctx, "OrderNotified", 1)
}

func (m *Metrics) put(ctx context.Context, name string, value float64) error {
	ns := metricsNamespace
	unit := cwtypes.StandardUnitCount
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &ns,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       unit,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
