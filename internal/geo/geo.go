// Package geo resolves postal pincodes to coordinates and computes
// great-circle distances between them.
package geo

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// ValidPincode reports whether s is a well-formed Indian pincode: exactly 6 digits.
func ValidPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
