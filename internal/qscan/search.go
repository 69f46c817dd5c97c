package qscan

import (
	"fmt"
	"math"

	"github.com/burst-data/qscan/internal/tiling"
)

// SearchParams configures a peak search across a bank of planes. Parameters
// are passed explicitly rather than held as ambient state so channels can be
// searched in parallel.
type SearchParams struct {
	QRange         tiling.QRange
	FrequencyRange tiling.FrequencyRange

	// FalseAlarmRate is the target rate of spurious detections (Hz) used
	// to derive the significance threshold.
	FalseAlarmRate float64
}

// Validate checks for degenerate parameters before any plane is requested.
func (p SearchParams) Validate() error {
	if p.QRange.Min <= 0 || p.QRange.Max < p.QRange.Min {
		return fmt.Errorf("%w: q range [%g, %g]", ErrInvalidConfiguration, p.QRange.Min, p.QRange.Max)
	}
	if p.FrequencyRange.Low <= 0 || p.FrequencyRange.High <= p.FrequencyRange.Low {
		return fmt.Errorf("%w: frequency range [%g, %g] Hz", ErrInvalidConfiguration, p.FrequencyRange.Low, p.FrequencyRange.High)
	}
	if p.FalseAlarmRate <= 0 {
		return fmt.Errorf("%w: false alarm rate %g", ErrInvalidConfiguration, p.FalseAlarmRate)
	}
	return nil
}

// PlaneWeight returns the fixed per-plane trial weighting, reflecting the
// logarithmic density of Q choices searched: 1 + log10(Qmax/Qmin)/sqrt(2).
func PlaneWeight(qr tiling.QRange) float64 {
	return 1 + math.Log10(qr.Max/qr.Min)/math.Sqrt2
}

// Outcome is the result of a peak search over a full Q range.
type Outcome struct {
	// Plane is the winning plane, retained so its eventgram can be built
	// without re-enumerating the sequence.
	Plane *tiling.Plane

	PeakEnergy    float64
	PeakSNR       float64
	PeakTime      float64
	PeakFrequency float64

	// Trials is the accumulated independent-trial estimate across all
	// planes examined, online-normalized (see Search).
	Trials float64

	// Threshold is the significance threshold on tile energy derived from
	// the false alarm rate and the trial estimate.
	Threshold float64

	PlanesScanned int
}

// Significant applies the decision rule: the peak is significant iff its
// energy reaches the threshold, or the always-include override is set.
func (o *Outcome) Significant(alwaysInclude bool) bool {
	return alwaysInclude || o.PeakEnergy >= o.Threshold
}

// Search scans every plane the sequence yields, tracking the global maximum
// energy and accumulating the independent-trial estimate. Comparison is
// strict, so a tie keeps the first plane in iteration order.
//
// The trial accumulator is updated online as
//
//	trials += planeTrials * pweight / planesScannedSoFar
//
// i.e. each plane's contribution is normalized by the running count, not the
// final count. The accumulated value therefore depends on iteration order
// and plane count. This running normalization is an inherited approximation
// that the significance threshold's numeric value depends on; it is
// deliberately not replaced with a two-pass average.
//
// If no plane yields a candidate inside the window (all rows empty there, or
// the sequence is empty) Search returns ErrNoPeak rather than a zero-energy
// outcome.
func Search(planes tiling.PlaneSeq, window SearchWindow, params SearchParams) (*Outcome, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	pweight := PlaneWeight(params.QRange)
	out := &Outcome{}
	var found bool
	var duration float64

	for p := planes.Next(); p != nil; p = planes.Next() {
		out.PlanesScanned++
		duration = p.Duration

		res := ScanPlane(p, window)
		out.Trials += res.Trials * pweight / float64(out.PlanesScanned)

		if res.Found && (!found || res.PeakEnergy > out.PeakEnergy) {
			found = true
			out.Plane = p
			out.PeakEnergy = res.PeakEnergy
			out.PeakTime = res.PeakTime
			out.PeakFrequency = res.PeakFrequency
		}
	}
	if !found {
		return nil, ErrNoPeak
	}

	out.PeakSNR = math.Sqrt(2 * out.PeakEnergy)
	out.Threshold = -math.Log(params.FalseAlarmRate * duration / (1.5 * out.Trials))
	return out, nil
}
