package checkout

import (
	"github.com/farmdirect/farmdirect-orders/internal/cart"
	"github.com/farmdirect/farmdirect-orders/internal/orders"
)

// Request is one checkout submission. ConsumerID comes from the upstream auth
// collaborator and is trusted as-is.
type Request struct {
	ConsumerID      string
	Items           []cart.Line
	DeliveryPincode string
	DeliveryAddress string
	DeliveryTime    string
}

// SellerFailure reports that one farmer's order could not be persisted.
// Sibling farmers' orders are unaffected.
type SellerFailure struct {
	FarmerID string `json:"farmerId"`
	Reason   string `json:"reason"`
}

// Result is the outcome of a checkout: the orders that were created, in the
// order each farmer first appeared in the cart, plus per-farmer failures.
type Result struct {
	Orders   []orders.Order  `json:"orders"`
	Failures []SellerFailure `json:"failures,omitempty"`
}
