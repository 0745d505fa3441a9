package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/farmdirect/farmdirect-orders/internal/aws"
	"github.com/farmdirect/farmdirect-orders/internal/logging"
)

func main() {
	log := logging.Init("order-worker", "./logs/order-worker.log")

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Error("failed to init aws clients", "err", err.Error())
		os.Exit(1)
	}

	p := NewProcessor(
		clients.DynamoDB,
		aws.NewMetrics(clients.CloudWatch),
		os.Getenv("ORDERS_TABLE"),
		os.Getenv("ORDER_LINES_TABLE"),
	)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"event":"order_placed","order_id":"local-order-1","farmer_id":"local-farmer-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Error("local handler error", "err", err.Error())
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
