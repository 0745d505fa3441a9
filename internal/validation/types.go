package validation

// CheckoutItem is a single cart line in the checkout payload.
type CheckoutItem struct {
	CropID   string  `json:"cropId" validate:"required"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"` // kg
}

// CheckoutRequest is the payload for POST /checkout.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	DeliveryPincode string         `json:"deliveryPincode" validate:"required,pincode"`
	DeliveryAddress string         `json:"deliveryAddress" validate:"required"`
	DeliveryTime    string         `json:"deliveryTime" validate:"required,oneof=Morning Afternoon Evening"`
}

// CreateCropRequest is the payload for POST /crops.
type CreateCropRequest struct {
	Name          string  `json:"name" validate:"required"`
	QuantityKg    float64 `json:"quantityKg" validate:"required,gt=0"`
	BasePrice     float64 `json:"basePrice" validate:"required,gt=0"` // rupees per kg
	FarmerPincode string  `json:"farmerPincode" validate:"omitempty,pincode"`
}

// UpdateStatusRequest is the payload for PATCH /orders/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
