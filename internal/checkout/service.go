// Package checkout fans a multi-farmer cart out into one priced, persisted
// order per farmer.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-orders/internal/cart"
	"github.com/farmdirect/farmdirect-orders/internal/catalog"
	"github.com/farmdirect/farmdirect-orders/internal/logging"
	"github.com/farmdirect/farmdirect-orders/internal/orders"
	"github.com/farmdirect/farmdirect-orders/internal/pricing"
)

// DefaultFarmerPincode is used when a farmer has no pincode on file.
const DefaultFarmerPincode = "600001"

var (
	// ErrEmptyCart rejects a checkout before any I/O happens.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingConsumer rejects a checkout without an authenticated consumer.
	ErrMissingConsumer = errors.New("consumer identity is missing")
)

// CropReader loads crop listings referenced by the cart.
type CropReader interface {
	Get(ctx context.Context, cropID string) (*catalog.Crop, error)
}

// FarmerDirectory looks up a farmer's registered pincode ("" when none).
type FarmerDirectory interface {
	Pincode(ctx context.Context, farmerID string) (string, error)
}

// Quoter prices delivery for one farmer/consumer pincode pair. It cannot
// fail: fallback pricing always produces a charge.
type Quoter interface {
	Quote(ctx context.Context, farmerPincode, consumerPincode string) pricing.Quote
}

// OrderCreator persists one order atomically with all of its lines.
type OrderCreator interface {
	CreateWithLines(ctx context.Context, order orders.Order, lines []orders.OrderLine) error
}

// EventPublisher emits order lifecycle events. Publish failures are
// best-effort and never fail checkout.
type EventPublisher interface {
	SendOrderEvent(ctx context.Context, messageBody string, attributes map[string]string) error
}

// MetricsEmitter records checkout quality counters.
type MetricsEmitter interface {
	OrdersCreated(ctx context.Context, n int) error
	PricingFallbackUsed(ctx context.Context) error
}

// Deps are the collaborators injected into the Service.
// Publisher and Metrics may be nil (e.g. in tests).
type Deps struct {
	Crops     CropReader
	Farmers   FarmerDirectory
	Pricing   Quoter
	Orders    OrderCreator
	Publisher EventPublisher
	Metrics   MetricsEmitter
}

// Service is the order fan-out orchestrator.
type Service struct {
	deps  Deps
	newID func() string
}

// NewService returns a checkout Service over the given collaborators.
func NewService(deps Deps) *Service {
	return &Service{deps: deps, newID: uuid.NewString}
}

// Checkout partitions the cart by farmer, prices each farmer's delivery and
// persists one order per farmer. Farmers are processed concurrently; a
// persistence failure for one farmer is reported in the result and does not
// affect the others. Only an empty cart or a missing consumer identity
// rejects the whole request.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	log := logging.FromCtx(ctx)

	if req.ConsumerID == "" {
		return Result{}, ErrMissingConsumer
	}
	if len(req.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	resolved, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return Result{}, err
	}

	groups := cart.GroupByFarmer(resolved)
	if len(groups) == 0 {
		log.Warn("checkout produced no orders: every cart line referenced a missing crop",
			"consumer_id", req.ConsumerID, "cart_size", len(req.Items))
		return Result{}, nil
	}

	type outcome struct {
		order   *orders.Order
		failure *SellerFailure
	}
	outcomes := make([]outcome, len(groups))

	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g cart.Group) {
			defer wg.Done()
			order, ferr := s.placeFarmerOrder(ctx, req, g)
			if ferr != nil {
				outcomes[i] = outcome{failure: &SellerFailure{FarmerID: g.FarmerID, Reason: ferr.Error()}}
				return
			}
			outcomes[i] = outcome{order: order}
		}(i, g)
	}
	wg.Wait()

	var res Result
	for _, o := range outcomes {
		switch {
		case o.order != nil:
			res.Orders = append(res.Orders, *o.order)
		case o.failure != nil:
			res.Failures = append(res.Failures, *o.failure)
		}
	}

	if s.deps.Metrics != nil && len(res.Orders) > 0 {
		if err := s.deps.Metrics.OrdersCreated(ctx, len(res.Orders)); err != nil {
			log.Warn("metrics emission failed", "err", err.Error())
		}
	}

	return res, nil
}

// resolveLines joins cart lines with their crop records. Lines referencing
// missing crops are dropped (best-effort policy); a store error is fatal
// because it happens before any order is created.
func (s *Service) resolveLines(ctx context.Context, items []cart.Line) ([]cart.ResolvedLine, error) {
	log := logging.FromCtx(ctx)

	resolved := make([]cart.ResolvedLine, 0, len(items))
	for _, item := range items {
		crop, err := s.deps.Crops.Get(ctx, item.CropID)
		if err != nil {
			return nil, fmt.Errorf("load crop %s: %w", item.CropID, err)
		}
		if crop == nil {
			log.Warn("dropping cart line: crop no longer exists", "crop_id", item.CropID)
			continue
		}
		resolved = append(resolved, cart.ResolvedLine{Line: item, Crop: *crop})
	}
	return resolved, nil
}

// placeFarmerOrder prices and persists one farmer group. Pricing can only
// degrade, never fail; the returned error is always a persistence failure.
func (s *Service) placeFarmerOrder(ctx context.Context, req Request, g cart.Group) (*orders.Order, error) {
	log := logging.FromCtx(ctx)

	farmerPincode, err := s.deps.Farmers.Pincode(ctx, g.FarmerID)
	if err != nil {
		// treat an unreadable profile like a farmer without a pincode
		log.Warn("farmer pincode lookup failed, using default",
			"farmer_id", g.FarmerID, "err", err.Error())
		farmerPincode = ""
	}
	if farmerPincode == "" {
		farmerPincode = DefaultFarmerPincode
	}

	quote := s.deps.Pricing.Quote(ctx, farmerPincode, req.DeliveryPincode)
	if !quote.Resolved && s.deps.Metrics != nil {
		if merr := s.deps.Metrics.PricingFallbackUsed(ctx); merr != nil {
			log.Warn("metrics emission failed", "err", merr.Error())
		}
	}

	var itemsTotal float64
	lines := make([]orders.OrderLine, 0, len(g.Lines))
	for _, l := range g.Lines {
		itemsTotal += l.Quantity * l.Crop.BasePrice
		lines = append(lines, orders.OrderLine{
			CropID:    l.CropID,
			Quantity:  l.Quantity,
			UnitPrice: l.Crop.BasePrice, // frozen at checkout
		})
	}

	order := orders.Order{
		OrderID:         s.newID(),
		ConsumerID:      req.ConsumerID,
		FarmerID:        g.FarmerID,
		Status:          orders.StatusPlaced,
		ItemsTotal:      itemsTotal,
		DeliveryCharge:  quote.Charge,
		DeliveryPincode: req.DeliveryPincode,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryTime:    req.DeliveryTime,
	}

	if err := s.deps.Orders.CreateWithLines(ctx, order, lines); err != nil {
		log.Error("order persistence failed",
			"farmer_id", g.FarmerID, "err", err.Error())
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.publishPlaced(ctx, order)

	log.Info("order placed",
		"order_id", order.OrderID, "farmer_id", order.FarmerID,
		"items_total", order.ItemsTotal, "delivery_charge", order.DeliveryCharge,
		"pricing_resolved", quote.Resolved)

	return &order, nil
}

// publishPlaced emits an order_placed event; failures are logged only.
func (s *Service) publishPlaced(ctx context.Context, order orders.Order) {
	if s.deps.Publisher == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"event":     "order_placed",
		"order_id":  order.OrderID,
		"farmer_id": order.FarmerID,
	})
	attrs := map[string]string{
		"order_id":  order.OrderID,
		"farmer_id": order.FarmerID,
	}
	if err := s.deps.Publisher.SendOrderEvent(ctx, string(payload), attrs); err != nil {
		logging.FromCtx(ctx).Warn("order event publish failed",
			"order_id", order.OrderID, "err", err.Error())
	}
}
