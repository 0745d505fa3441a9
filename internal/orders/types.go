package orders

import "time"

// Order statuses, in lifecycle order. Checkout creates orders as PLACED;
// the farmer moves them forward one step at a time.
const (
	StatusPlaced         = "PLACED"
	StatusAccepted       = "ACCEPTED"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
)

// statusRank encodes the lifecycle ordering.
var statusRank = map[string]int{
	StatusPlaced:         0,
	StatusAccepted:       1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to the
// next. Only single forward steps are allowed.
func CanTransition(from, to string) bool {
	f, ok1 := statusRank[from]
	t, ok2 := statusRank[to]
	return ok1 && ok2 && t == f+1
}

// Order represents one farmer's share of a checkout, stored in the orders table.
// ItemsTotal and DeliveryCharge are rupees fixed at creation time.
type Order struct {
	OrderID         string    `dynamodbav:"order_id"` // PK
	ConsumerID      string    `dynamodbav:"consumer_id"`
	FarmerID        string    `dynamodbav:"farmer_id"`
	Status          string    `dynamodbav:"status"` // PLACED | ACCEPTED | OUT_FOR_DELIVERY | DELIVERED
	ItemsTotal      float64   `dynamodbav:"items_total"`
	DeliveryCharge  int       `dynamodbav:"delivery_charge"`
	DeliveryPincode string    `dynamodbav:"delivery_pincode"`
	DeliveryAddress string    `dynamodbav:"delivery_address,omitempty"`
	DeliveryTime    string    `dynamodbav:"delivery_time,omitempty"` // Morning | Afternoon | Evening
	CreatedAt       time.Time `dynamodbav:"created_at"`
	UpdatedAt       time.Time `dynamodbav:"updated_at"`
}

// OrderLine is a frozen copy of one cart line, stored in the order lines
// table. Quantity and UnitPrice are snapshots taken at checkout and are never
// re-read from the crop listing, so historical orders keep their prices.
type OrderLine struct {
	OrderID   string  `dynamodbav:"order_id"` // PK
	CropID    string  `dynamodbav:"crop_id"`  // SK
	Quantity  float64 `dynamodbav:"quantity"`
	UnitPrice float64 `dynamodbav:"unit_price"`
}
