package main

// OrderEvent is the payload sent from the checkout API -> SQS -> worker.
type OrderEvent struct {
	Event    string `json:"event"`
	OrderID  string `json:"order_id"`
	FarmerID string `json:"farmer_id"`
}
