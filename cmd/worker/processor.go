package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/farmdirect/farmdirect-orders/internal/aws"
	"github.com/farmdirect/farmdirect-orders/internal/logging"
	"github.com/farmdirect/farmdirect-orders/internal/orders"
)

// MetricsEmitter is the slice of the CloudWatch emitter the worker needs.
type MetricsEmitter interface {
	OrderNotified(ctx context.Context) error
}

// Processor consumes order_placed events and notifies the farmer once per
// order. Duplicate SQS deliveries are swallowed via the notified_at marker.
type Processor struct {
	orderStore *orders.Store
	metrics    MetricsEmitter
	log        *slog.Logger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(dynamo aws.DynamoDBAPI, metrics MetricsEmitter, ordersTable, linesTable string) *Processor {
	return &Processor{
		orderStore: orders.NewStore(dynamo, ordersTable, linesTable),
		metrics:    metrics,
		log:        logging.New("order-worker"),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.log.Error("worker error", "err", err.Error())
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return fmt.Errorf("message without order_id: %s", rec.Body)
	}

	p.log.Info("received order event",
		"event", msg.Event, "order_id", msg.OrderID, "farmer_id", msg.FarmerID)

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen — DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	err = p.orderStore.MarkNotified(ctx, msg.OrderID)
	if errors.Is(err, orders.ErrAlreadyNotified) {
		p.log.Info("duplicate order event, already notified", "order_id", msg.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark notified: %w", err)
	}

	// Notification channel (SMS/push) is owned by a separate system; the
	// structured log line below is what it tails today.
	p.log.Info("farmer notified of new order",
		"order_id", order.OrderID, "farmer_id", order.FarmerID,
		"items_total", order.ItemsTotal, "delivery_charge", order.DeliveryCharge,
		"delivery_time", order.DeliveryTime)

	if p.metrics != nil {
		if merr := p.metrics.OrderNotified(ctx); merr != nil {
			p.log.Warn("metrics emission failed", "err", merr.Error())
		}
	}

	return nil
}
