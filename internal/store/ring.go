package store

import "github.com/francisforadreport/ethvsbtc/internal/models"

// RingCapacity bounds the ratio history to 288 points, evicting FIFO.
// At the nominal 5 second price period that is about 24 minutes of
// history; the capacity is kept anyway since the chart only needs a
// bounded recent window.
const RingCapacity = 288

// Ring is a fixed-capacity FIFO buffer of price-ratio samples. Appending
// beyond capacity evicts the oldest entry. Not safe for concurrent use on
// its own; the store serializes access.
type Ring struct {
	capacity int
	points   []models.PricePoint
}

func NewRing(capacity int) *Ring {
	return &Ring{
		capacity: capacity,
		points:   make([]models.PricePoint, 0, capacity),
	}
}

func (r *Ring) Append(p models.PricePoint) {
	if len(r.points) == r.capacity {
		copy(r.points, r.points[1:])
		r.points = r.points[:r.capacity-1]
	}
	r.points = append(r.points, p)
}

func (r *Ring) Len() int {
	return len(r.points)
}

// Points returns a copy of the buffer contents, oldest first.
func (r *Ring) Points() []models.PricePoint {
	out := make([]models.PricePoint, len(r.points))
	copy(out, r.points)
	return out
}
