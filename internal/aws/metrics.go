package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

const statusMetricName = "OrderStatusTransitions"

// StatusMetrics counts order status transitions in CloudWatch, one datum per event.
type StatusMetrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
}

func NewStatusMetrics(client CloudWatchAPI, namespace string) *StatusMetrics {
	return &StatusMetrics{CloudWatch: client, Namespace: namespace}
}

func (m *StatusMetrics) Notify(ctx context.Context, ev orders.Event) error {
	value := 1.0
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString(statusMetricName),
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("Status"), Value: awsString(string(ev.Status))},
				},
				Timestamp: &ev.Occurred,
				Unit:      cwtypes.StandardUnitCount,
				Value:     &value,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
