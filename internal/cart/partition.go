// Package cart groups checkout cart lines by the farmer that owns each crop.
package cart

import "github.com/farmdirect/farmdirect-orders/internal/catalog"

// Line is one cart entry as submitted by the consumer.
type Line struct {
	CropID   string
	Quantity float64
}

// ResolvedLine is a cart line joined with its crop record.
type ResolvedLine struct {
	Line
	Crop catalog.Crop
}

// Group is the subset of a cart owned by one farmer; it becomes exactly one order.
type Group struct {
	FarmerID string
	Lines    []ResolvedLine
}

// GroupByFarmer partitions lines by farmer. Groups are returned in the order
// each farmer first appears in the cart, and lines keep their relative order
// within a group.
func GroupByFarmer(lines []ResolvedLine) []Group {
	index := make(map[string]int, len(lines))
	groups := make([]Group, 0, len(lines))

	for _, l := range lines {
		i, seen := index[l.Crop.FarmerID]
		if !seen {
			i = len(groups)
			index[l.Crop.FarmerID] = i
			groups = append(groups, Group{FarmerID: l.Crop.FarmerID})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}

	return groups
}
