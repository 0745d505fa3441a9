package catalog

import "time"

// Crop represents a produce listing stored in the crops DynamoDB table.
// BasePrice is rupees per kg; QuantityKg is the quantity the farmer listed
// (not decremented by checkout).
type Crop struct {
	CropID        string    `dynamodbav:"crop_id"` // PK
	FarmerID      string    `dynamodbav:"farmer_id"`
	Name          string    `dynamodbav:"name"`
	QuantityKg    float64   `dynamodbav:"quantity_kg"`
	BasePrice     float64   `dynamodbav:"base_price"`
	FarmerPincode string    `dynamodbav:"farmer_pincode,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}
