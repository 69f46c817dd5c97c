package tiling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/burst-data/qscan/internal/signal"
)

// Transform generates Q tiling planes from a conditioned time series.
// Mismatch sets the maximum fractional energy loss between neighbouring
// tiles and therefore how densely Q values and row frequencies are packed.
type Transform struct {
	Mismatch float64
}

// NewTransform returns a Transform with the given tile mismatch.
func NewTransform(mismatch float64) *Transform {
	return &Transform{Mismatch: mismatch}
}

// deltaM converts the mismatch parameter into the log-space spacing used
// for both the Q and frequency enumerations.
func (t *Transform) deltaM() float64 {
	return 2 * math.Sqrt(t.Mismatch/3)
}

// QValues enumerates the Q values covering qr, log-spaced at the density
// the mismatch implies. A degenerate range yields exactly one Q.
func (t *Transform) QValues(qr QRange) []float64 {
	if qr.Max <= qr.Min {
		return []float64{qr.Min}
	}
	span := math.Log(qr.Max / qr.Min)
	n := int(math.Ceil(span / (math.Sqrt2 * t.deltaM())))
	if n < 1 {
		n = 1
	}
	qs := make([]float64, n)
	for i := range qs {
		qs[i] = qr.Min * math.Exp(span*(float64(i)+0.5)/float64(n))
	}
	return qs
}

// rowFrequencies enumerates the row center frequencies for one plane.
func (t *Transform) rowFrequencies(q float64, fr FrequencyRange) []float64 {
	span := math.Log(fr.High / fr.Low)
	density := math.Sqrt(2+q*q) / 2
	n := int(math.Ceil(span * density / t.deltaM()))
	if n < 1 {
		n = 1
	}
	fs := make([]float64, n)
	for i := range fs {
		fs[i] = fr.Low * math.Exp(span*(float64(i)+0.5)/float64(n))
	}
	return fs
}

// Planes returns a lazy single-pass sequence of tiling planes for the series
// over the given Q and frequency ranges. The forward FFT of the series is
// computed once up front; each plane's rows are synthesised on demand as the
// sequence is consumed.
func (t *Transform) Planes(ts signal.TimeSeries, qr QRange, fr FrequencyRange) (PlaneSeq, error) {
	if len(ts.Samples) < 2 {
		return nil, fmt.Errorf("series too short to tile: %d samples", len(ts.Samples))
	}
	nyquist := ts.SampleRate / 2
	if fr.High > nyquist {
		return nil, fmt.Errorf("frequency range high %g Hz exceeds Nyquist %g Hz", fr.High, nyquist)
	}

	fft := fourier.NewFFT(len(ts.Samples))
	coeffs := fft.Coefficients(nil, ts.Samples)

	return &transformSeq{
		t:      t,
		ts:     ts,
		fr:     fr,
		coeffs: coeffs,
		qs:     t.QValues(qr),
	}, nil
}

type transformSeq struct {
	t      *Transform
	ts     signal.TimeSeries
	fr     FrequencyRange
	coeffs []complex128
	qs     []float64
	pos    int
}

// Next synthesises the next plane, or returns nil when the Q enumeration is
// exhausted.
func (s *transformSeq) Next() *Plane {
	if s.pos >= len(s.qs) {
		return nil
	}
	q := s.qs[s.pos]
	s.pos++

	duration := s.ts.Duration()
	plane := &Plane{
		Q:              q,
		FrequencyRange: s.fr,
		Start:          s.ts.Start,
		Duration:       duration,
	}
	for _, f0 := range s.t.rowFrequencies(q, s.fr) {
		plane.Rows = append(plane.Rows, s.row(q, f0))
	}
	return plane
}

// row applies a bisquare frequency-domain window of half-width f0/Q' around
// f0 and inverse transforms it onto the row's tile grid, yielding the
// normalized energy series for that frequency band. Energies are divided by
// the row's own mean, which assumes a whitened input with a flat noise
// floor; on a noiseless input a quiet row's leakage is renormalized up to
// mean 1 like any other row.
func (s *transformSeq) row(q, f0 float64) Row {
	duration := s.ts.Duration()
	df := s.ts.SampleRate / float64(len(s.ts.Samples))
	qprime := q / math.Sqrt(11)
	halfWidth := f0 / qprime

	// Tile grid for this row: enough time resolution to resolve the band.
	ntiles := nextPow2(2 * halfWidth * duration)
	if ntiles > len(s.ts.Samples) {
		ntiles = len(s.ts.Samples)
	}

	kc := int(math.Round(f0 / df))
	kw := int(halfWidth / df)
	if kw > ntiles/2-1 {
		kw = ntiles/2 - 1
	}

	padded := make([]complex128, ntiles)
	for o := -kw; o <= kw; o++ {
		k := kc + o
		if k < 0 || k >= len(s.coeffs) {
			continue
		}
		x := float64(o) * df / halfWidth
		w := (1 - x*x) * (1 - x*x)
		padded[(o+ntiles)%ntiles] = s.coeffs[k] * complex(w, 0)
	}

	inv := fourier.NewCmplxFFT(ntiles)
	z := inv.Sequence(nil, padded)

	row := Row{
		CenterFrequency: f0,
		Times:           make([]float64, ntiles),
		Energies:        make([]float64, ntiles),
	}
	dt := duration / float64(ntiles)
	var mean float64
	for i, c := range z {
		e := real(c)*real(c) + imag(c)*imag(c)
		row.Times[i] = s.ts.Start + (float64(i)+0.5)*dt
		row.Energies[i] = e
		mean += e
	}
	mean /= float64(ntiles)
	if mean > 0 {
		for i := range row.Energies {
			row.Energies[i] /= mean
		}
	}
	return row
}

func nextPow2(x float64) int {
	n := 4
	for float64(n) < x {
		n <<= 1
	}
	return n
}
