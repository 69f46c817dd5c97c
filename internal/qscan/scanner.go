package qscan

import (
	"math"

	"github.com/burst-data/qscan/internal/tiling"
)

// SearchWindow is the time interval in which a peak is sought, expressed as
// a center epoch and a half-width in seconds.
type SearchWindow struct {
	Center    float64
	HalfWidth float64
}

// Contains reports whether epoch t falls inside the window (inclusive).
func (w SearchWindow) Contains(t float64) bool {
	return t >= w.Center-w.HalfWidth && t <= w.Center+w.HalfWidth
}

// PlaneResult holds the outcome of scanning a single plane.
type PlaneResult struct {
	// Found is false when no row had a sample inside the window.
	Found bool

	PeakEnergy    float64
	PeakTime      float64
	PeakFrequency float64

	// Trials estimates the number of statistically independent tiles the
	// plane contributes, summed over all rows whether or not they overlap
	// the window.
	Trials float64
}

// ScanPlane crops each row of the plane to the window, locates the maximum
// energy and its time across all rows, and accumulates the plane's
// independent-trial estimate. The plane is read-only; identical inputs give
// identical results.
//
// A row's trial contribution is 1 + 2pi*duration*f/Q: the independence of a
// row's tiles grows with frequency and signal duration and shrinks with Q.
// Rows with no samples in the window still contribute trials.
func ScanPlane(p *tiling.Plane, window SearchWindow) PlaneResult {
	var res PlaneResult
	for _, row := range p.Rows {
		res.Trials += 1 + 2*math.Pi*p.Duration*row.CenterFrequency/p.Q

		for i, t := range row.Times {
			if !window.Contains(t) {
				continue
			}
			e := row.Energies[i]
			if !res.Found || e > res.PeakEnergy {
				res.Found = true
				res.PeakEnergy = e
				res.PeakTime = t
				res.PeakFrequency = row.CenterFrequency
			}
		}
	}
	return res
}
