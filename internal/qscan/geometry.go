// Package qscan implements the peak-search and eventgram-extraction engine:
// it searches a bank of Q tiling planes for the most significant localized
// burst of energy, estimates the number of independent statistical trials,
// derives a significance threshold from a target false-alarm rate, and
// extracts the tiles of the winning plane above an SNR threshold.
package qscan

import "fmt"

// WidthIterator reconstructs tile extents from an ordered sequence of tile
// center coordinates, assuming an even tiling with no gaps. It is used
// identically along frequency (left edge = the plane's lower frequency
// bound) and along time (left edge = the signal start).
//
// Each call to Next consumes one center and advances the left edge, so an
// iterator is single-pass; construct a fresh one to walk the centers again.
type WidthIterator struct {
	left float64
}

// NewWidthIterator returns an iterator starting from the given left edge.
func NewWidthIterator(leftEdge float64) *WidthIterator {
	return &WidthIterator{left: leftEdge}
}

// Next returns the width of the tile centered at center: 2*(center - left),
// after which the left edge advances to the tile's right edge. Centers
// below the current edge violate the geometry contract and return
// ErrInvalidGeometry.
func (it *WidthIterator) Next(center float64) (float64, error) {
	if center < it.left {
		return 0, fmt.Errorf("%w: center %g precedes edge %g", ErrInvalidGeometry, center, it.left)
	}
	w := 2 * (center - it.left)
	it.left = center + w/2
	return w, nil
}

// Edge returns the current left edge, i.e. the right edge of the last tile
// emitted.
func (it *WidthIterator) Edge() float64 {
	return it.left
}
