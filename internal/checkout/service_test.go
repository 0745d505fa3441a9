package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/farmdirect/farmdirect-orders/internal/cart"
	"github.com/farmdirect/farmdirect-orders/internal/catalog"
	"github.com/farmdirect/farmdirect-orders/internal/geo"
	"github.com/farmdirect/farmdirect-orders/internal/orders"
	"github.com/farmdirect/farmdirect-orders/internal/pricing"
)

// --- fakes ---

type fakeCrops struct {
	crops map[string]catalog.Crop
	err   error
}

func (f *fakeCrops) Get(ctx context.Context, cropID string) (*catalog.Crop, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.crops[cropID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type fakeFarmers struct {
	pincodes map[string]string
	err      error
}

func (f *fakeFarmers) Pincode(ctx context.Context, farmerID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pincodes[farmerID], nil
}

type capturingQuoter struct {
	mu    sync.Mutex
	pairs [][2]string
	quote pricing.Quote
}

func (q *capturingQuoter) Quote(ctx context.Context, farmerPincode, consumerPincode string) pricing.Quote {
	q.mu.Lock()
	q.pairs = append(q.pairs, [2]string{farmerPincode, consumerPincode})
	q.mu.Unlock()
	return q.quote
}

type fakeOrderStore struct {
	mu      sync.Mutex
	created map[string][]orders.OrderLine // order id -> lines
	orders  map[string]orders.Order
	failFor map[string]bool // farmer id -> fail
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		created: map[string][]orders.OrderLine{},
		orders:  map[string]orders.Order{},
		failFor: map[string]bool{},
	}
}

func (f *fakeOrderStore) CreateWithLines(ctx context.Context, o orders.Order, lines []orders.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[o.FarmerID] {
		return errors.New("transact write failed")
	}
	f.orders[o.OrderID] = o
	f.created[o.OrderID] = lines
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (f *fakePublisher) SendOrderEvent(ctx context.Context, body string, attrs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	orders    int
	fallbacks int
}

func (f *fakeMetrics) OrdersCreated(ctx context.Context, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders += n
	return nil
}

func (f *fakeMetrics) PricingFallbackUsed(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbacks++
	return nil
}

// --- fixtures ---

func chennaiCrops() *fakeCrops {
	return &fakeCrops{crops: map[string]catalog.Crop{
		"tomato": {CropID: "tomato", FarmerID: "farmer-1", Name: "Tomato", BasePrice: 40, FarmerPincode: "600001"},
		"potato": {CropID: "potato", FarmerID: "farmer-1", Name: "Potato", BasePrice: 30, FarmerPincode: "600001"},
		"mango":  {CropID: "mango", FarmerID: "farmer-2", Name: "Mango", BasePrice: 120, FarmerPincode: "600096"},
	}}
}

func newTestService(crops *fakeCrops, store *fakeOrderStore, pub EventPublisher, m MetricsEmitter) *Service {
	policy := pricing.NewPolicy(geo.NewStaticResolver(nil))
	s := NewService(Deps{
		Crops:     crops,
		Farmers:   &fakeFarmers{pincodes: map[string]string{"farmer-1": "600001", "farmer-2": "600096"}},
		Pricing:   policy,
		Orders:    store,
		Publisher: pub,
		Metrics:   m,
	})
	var n int
	var mu sync.Mutex
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("order-%d", n)
	}
	return s
}

func checkoutRequest(items ...cart.Line) Request {
	return Request{
		ConsumerID:      "consumer-1",
		Items:           items,
		DeliveryPincode: "600017",
		DeliveryAddress: "T. Nagar, Chennai",
		DeliveryTime:    "Morning",
	}
}

// --- tests ---

func TestCheckout_EmptyCartRejected(t *testing.T) {
	store := newFakeOrderStore()
	s := newTestService(chennaiCrops(), store, nil, nil)

	_, err := s.Checkout(context.Background(), checkoutRequest())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatalf("no orders must be created for an empty cart")
	}
}

func TestCheckout_MissingConsumerRejected(t *testing.T) {
	s := newTestService(chennaiCrops(), newFakeOrderStore(), nil, nil)

	req := checkoutRequest(cart.Line{CropID: "tomato", Quantity: 1})
	req.ConsumerID = ""
	if _, err := s.Checkout(context.Background(), req); !errors.Is(err, ErrMissingConsumer) {
		t.Fatalf("expected ErrMissingConsumer, got %v", err)
	}
}

func TestCheckout_FanOutPerFarmer(t *testing.T) {
	store := newFakeOrderStore()
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}
	s := newTestService(chennaiCrops(), store, pub, metrics)

	res, err := s.Checkout(context.Background(), checkoutRequest(
		cart.Line{CropID: "tomato", Quantity: 10},
		cart.Line{CropID: "mango", Quantity: 2},
		cart.Line{CropID: "potato", Quantity: 20},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(res.Orders))
	}

	// first-seen farmer order
	if res.Orders[0].FarmerID != "farmer-1" || res.Orders[1].FarmerID != "farmer-2" {
		t.Fatalf("orders not in first-seen farmer order: %+v", res.Orders)
	}

	// per-farmer subtotals: 10*40 + 20*30 = 700 and 2*120 = 240
	if res.Orders[0].ItemsTotal != 700 {
		t.Fatalf("farmer-1 subtotal: expected 700, got %v", res.Orders[0].ItemsTotal)
	}
	if res.Orders[1].ItemsTotal != 240 {
		t.Fatalf("farmer-2 subtotal: expected 240, got %v", res.Orders[1].ItemsTotal)
	}

	// farmer-1 (600001) -> 600017 resolves via the static table: round(6.17*10)=62
	if res.Orders[0].DeliveryCharge != 62 {
		t.Fatalf("expected delivery charge 62, got %d", res.Orders[0].DeliveryCharge)
	}

	for _, o := range res.Orders {
		if o.Status != orders.StatusPlaced {
			t.Fatalf("expected PLACED, got %s", o.Status)
		}
		lines := store.created[o.OrderID]
		if len(lines) == 0 {
			t.Fatalf("order %s persisted without lines", o.OrderID)
		}
		for _, l := range lines {
			if l.UnitPrice == 0 {
				t.Fatalf("unit price not frozen on line: %+v", l)
			}
		}
	}

	if len(pub.bodies) != 2 {
		t.Fatalf("expected 2 order events, got %d", len(pub.bodies))
	}
	if metrics.orders != 2 {
		t.Fatalf("expected OrdersCreated=2, got %d", metrics.orders)
	}
}

func TestCheckout_MissingCropSkipped(t *testing.T) {
	store := newFakeOrderStore()
	s := newTestService(chennaiCrops(), store, nil, nil)

	res, err := s.Checkout(context.Background(), checkoutRequest(
		cart.Line{CropID: "tomato", Quantity: 5},
		cart.Line{CropID: "deleted-crop", Quantity: 3},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(res.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(res.Orders))
	}
	if res.Orders[0].ItemsTotal != 200 {
		t.Fatalf("expected subtotal 200, got %v", res.Orders[0].ItemsTotal)
	}
}

func TestCheckout_AllCropsMissing(t *testing.T) {
	store := newFakeOrderStore()
	s := newTestService(&fakeCrops{crops: map[string]catalog.Crop{}}, store, nil, nil)

	res, err := s.Checkout(context.Background(), checkoutRequest(
		cart.Line{CropID: "gone-1", Quantity: 1},
		cart.Line{CropID: "gone-2", Quantity: 2},
	))
	if err != nil {
		t.Fatalf("all-missing cart must not error: %v", err)
	}
	if len(res.Orders) != 0 || len(res.Failures) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestCheckout_PartialPersistenceFailure(t *testing.T) {
	store := newFakeOrderStore()
	store.failFor["farmer-2"] = true
	s := newTestService(chennaiCrops(), store, nil, nil)

	res, err := s.Checkout(context.Background(), checkoutRequest(
		cart.Line{CropID: "tomato", Quantity: 1},
		cart.Line{CropID: "mango", Quantity: 1},
	))
	if err != nil {
		t.Fatalf("partial failure must not abort checkout: %v", err)
	}
	if len(res.Orders) != 1 || res.Orders[0].FarmerID != "farmer-1" {
		t.Fatalf("expected farmer-1 order to survive, got %+v", res.Orders)
	}
	if len(res.Failures) != 1 || res.Failures[0].FarmerID != "farmer-2" {
		t.Fatalf("expected farmer-2 failure, got %+v", res.Failures)
	}
	if res.Failures[0].Reason == "" {
		t.Fatalf("failure must carry a reason")
	}
}

func TestCheckout_DefaultFarmerPincode(t *testing.T) {
	store := newFakeOrderStore()
	quoter := &capturingQuoter{quote: pricing.Quote{Charge: 20, DistanceKm: 0, Resolved: true}}

	s := NewService(Deps{
		Crops:   chennaiCrops(),
		Farmers: &fakeFarmers{pincodes: map[string]string{}}, // nothing on file
		Pricing: quoter,
		Orders:  store,
	})
	s.newID = func() string { return "order-1" }

	_, err := s.Checkout(context.Background(), checkoutRequest(cart.Line{CropID: "tomato", Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(quoter.pairs) != 1 {
		t.Fatalf("expected 1 quote call, got %d", len(quoter.pairs))
	}
	if quoter.pairs[0][0] != DefaultFarmerPincode {
		t.Fatalf("expected default farmer pincode, got %q", quoter.pairs[0][0])
	}
	if quoter.pairs[0][1] != "600017" {
		t.Fatalf("expected consumer pincode 600017, got %q", quoter.pairs[0][1])
	}
}

func TestCheckout_PublisherFailureDoesNotFailOrder(t *testing.T) {
	store := newFakeOrderStore()
	pub := &fakePublisher{err: errors.New("queue unreachable")}
	s := newTestService(chennaiCrops(), store, pub, nil)

	res, err := s.Checkout(context.Background(), checkoutRequest(cart.Line{CropID: "tomato", Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(res.Orders) != 1 {
		t.Fatalf("expected order despite publish failure, got %+v", res)
	}
}

func TestCheckout_FallbackCounted(t *testing.T) {
	store := newFakeOrderStore()
	metrics := &fakeMetrics{}
	quoter := &capturingQuoter{quote: pricing.Quote{Charge: 100, DistanceKm: 10, Resolved: false}}

	s := NewService(Deps{
		Crops:   chennaiCrops(),
		Farmers: &fakeFarmers{pincodes: map[string]string{"farmer-1": "600001"}},
		Pricing: quoter,
		Orders:  store,
		Metrics: metrics,
	})
	s.newID = func() string { return "order-1" }

	_, err := s.Checkout(context.Background(), checkoutRequest(cart.Line{CropID: "tomato", Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if metrics.fallbacks != 1 {
		t.Fatalf("expected 1 fallback metric, got %d", metrics.fallbacks)
	}
}
