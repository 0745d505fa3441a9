package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Resolver resolves a pincode to a coordinate pair.
// The second return value is false when the pincode could not be resolved;
// a not-found pincode is never an error. Errors are reserved for conditions
// the caller may want to log (callers still treat them as unresolved).
type Resolver interface {
	Resolve(ctx context.Context, pincode string) (Coordinate, bool, error)
}

// StaticResolver resolves pincodes from an in-memory table.
type StaticResolver struct {
	table map[string]Coordinate
}

// NewStaticResolver returns a resolver over the given pincode table.
// A nil table falls back to a small built-in set of Chennai pincodes.
func NewStaticResolver(table map[string]Coordinate) *StaticResolver {
	if table == nil {
		table = DefaultPincodeTable()
	}
	return &StaticResolver{table: table}
}

// DefaultPincodeTable returns the seed pincode locations (Chennai area).
func DefaultPincodeTable() map[string]Coordinate {
	return map[string]Coordinate{
		"600001": {Lat: 13.0827, Lon: 80.2707}, // North Chennai
		"600017": {Lat: 13.0405, Lon: 80.2337}, // T. Nagar
		"600020": {Lat: 13.0067, Lon: 80.2570}, // Adyar
		"600096": {Lat: 12.9249, Lon: 80.2319}, // Perungudi
		"600119": {Lat: 12.8680, Lon: 80.2280}, // Sholinganallur
	}
}

func (r *StaticResolver) Resolve(ctx context.Context, pincode string) (Coordinate, bool, error) {
	if !ValidPincode(pincode) {
		return Coordinate{}, false, nil
	}
	c, ok := r.table[pincode]
	return c, ok, nil
}

// DefaultAPIBaseURL is the India Post pincode lookup endpoint (free, no key required).
const DefaultAPIBaseURL = "https://api.postalpincode.in"

// HTTPResolver resolves pincodes against the India Post pincode API.
// All transport and decode failures are reported as unresolved with an error
// attached for logging; the resolver never blocks past the request context.
type HTTPResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPResolver returns an HTTPResolver against baseURL (DefaultAPIBaseURL if empty).
func NewHTTPResolver(baseURL string) *HTTPResolver {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &HTTPResolver{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// pincodeAPIResponse mirrors the India Post API payload shape.
type pincodeAPIResponse []struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		Latitude  string `json:"Latitude"`
		Longitude string `json:"Longitude"`
	} `json:"PostOffice"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, pincode string) (Coordinate, bool, error) {
	if !ValidPincode(pincode) {
		return Coordinate{}, false, nil
	}

	url := fmt.Sprintf("%s/pincode/%s", r.BaseURL, pincode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Coordinate{}, false, fmt.Errorf("build pincode request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return Coordinate{}, false, fmt.Errorf("pincode lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, false, fmt.Errorf("pincode lookup: unexpected status %d", resp.StatusCode)
	}

	var body pincodeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinate{}, false, fmt.Errorf("decode pincode response: %w", err)
	}

	if len(body) == 0 || body[0].Status != "Success" || len(body[0].PostOffice) == 0 {
		return Coordinate{}, false, nil
	}

	po := body[0].PostOffice[0]
	lat, latErr := strconv.ParseFloat(po.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(po.Longitude, 64)
	if latErr != nil || lonErr != nil {
		// some post offices have no coordinates on file
		return Coordinate{}, false, nil
	}

	return Coordinate{Lat: lat, Lon: lon}, true, nil
}
