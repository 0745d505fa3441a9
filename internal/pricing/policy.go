// Package pricing turns a farmer/consumer pincode pair into a delivery charge.
package pricing

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/farmdirect/farmdirect-orders/internal/geo"
	"github.com/farmdirect/farmdirect-orders/internal/logging"
)

// Pricing constants, in rupees.
const (
	// RatePerKm is the delivery rate: distance (km) x ₹10.
	RatePerKm = 10
	// MinCharge is the floor applied after rounding on every pricing path.
	MinCharge = 20
	// DefaultCharge is quoted when a pincode is malformed and no estimate is possible.
	DefaultCharge = 100
	// DefaultDistanceKm accompanies DefaultCharge.
	DefaultDistanceKm = 10
	// resolveTimeout bounds the geocoding round-trips of a single quote.
	resolveTimeout = 3 * time.Second
)

// Quote is the transient result of pricing one farmer/consumer pair.
// Resolved is false when any fallback path produced the charge.
type Quote struct {
	Charge     int     `json:"charge"`
	DistanceKm float64 `json:"distanceKm"`
	Resolved   bool    `json:"resolved"`
}

// Policy computes delivery quotes using a pluggable pincode resolver.
type Policy struct {
	resolver geo.Resolver
	timeout  time.Duration
}

// NewPolicy returns a Policy over the given resolver.
func NewPolicy(resolver geo.Resolver) *Policy {
	return &Policy{resolver: resolver, timeout: resolveTimeout}
}

// Quote prices delivery from farmerPincode to consumerPincode.
// It never returns an error and never quotes a negative charge: a malformed
// pincode yields the default quote, and an unresolved pincode yields a coarse
// estimate from the numeric pincode difference. Both pincodes are resolved
// concurrently under a shared deadline.
func (p *Policy) Quote(ctx context.Context, farmerPincode, consumerPincode string) Quote {
	log := logging.FromCtx(ctx)

	if !geo.ValidPincode(farmerPincode) || !geo.ValidPincode(consumerPincode) {
		log.Warn("delivery quote degraded: malformed pincode",
			"farmer_pincode", farmerPincode, "consumer_pincode", consumerPincode)
		return Quote{Charge: floor(DefaultCharge), DistanceKm: DefaultDistanceKm, Resolved: false}
	}

	if farmerPincode == consumerPincode {
		// same pincode: zero distance, no resolver round-trip needed
		return Quote{Charge: floor(0), DistanceKm: 0, Resolved: true}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		coord geo.Coordinate
		ok    bool
		err   error
	}
	resolve := func(pincode string, out chan<- result) {
		c, ok, err := p.resolver.Resolve(ctx, pincode)
		out <- result{coord: c, ok: ok, err: err}
	}

	farmerCh := make(chan result, 1)
	consumerCh := make(chan result, 1)
	go resolve(farmerPincode, farmerCh)
	go resolve(consumerPincode, consumerCh)
	farmer, consumer := <-farmerCh, <-consumerCh

	if farmer.err != nil || consumer.err != nil {
		log.Warn("delivery quote degraded: resolver failure",
			"farmer_err", errString(farmer.err), "consumer_err", errString(consumer.err))
	}

	if farmer.ok && consumer.ok {
		dist := geo.Distance(farmer.coord, consumer.coord)
		return Quote{Charge: charge(dist), DistanceKm: dist, Resolved: true}
	}

	// fallback: pincode numeric difference as a coarse distance proxy
	dist := estimateDistance(farmerPincode, consumerPincode)
	log.Warn("delivery quote degraded: using pincode-difference estimate",
		"farmer_pincode", farmerPincode, "consumer_pincode", consumerPincode,
		"estimated_km", dist)
	return Quote{Charge: charge(dist), DistanceKm: dist, Resolved: false}
}

// estimateDistance approximates distance as |a-b|/100 km. Both arguments
// must already be well-formed 6-digit pincodes.
func estimateDistance(a, b string) float64 {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return math.Abs(float64(ai-bi)) / 100
}

// charge rounds half-up to whole rupees and applies the minimum charge.
func charge(distanceKm float64) int {
	return floor(int(math.Round(distanceKm * RatePerKm)))
}

func floor(c int) int {
	if c < MinCharge {
		return MinCharge
	}
	return c
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
