package geo

import "math"

// earthRadiusKm is the mean radius of the Earth.
const earthRadiusKm = 6371

// Distance returns the great-circle distance between a and b in kilometers,
// computed with the haversine formula. The result is non-negative and
// symmetric in its arguments.
func Distance(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
