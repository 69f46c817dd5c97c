package signal

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// ASD is a one-sided amplitude spectral density estimate sampled at uniform
// frequency spacing Df starting from DC.
type ASD struct {
	Df     float64
	Values []float64
}

// At returns the ASD linearly interpolated at frequency f (Hz).
func (a ASD) At(f float64) float64 {
	if len(a.Values) == 0 || a.Df <= 0 {
		return 0
	}
	x := f / a.Df
	if x <= 0 {
		return a.Values[0]
	}
	i := int(x)
	if i >= len(a.Values)-1 {
		return a.Values[len(a.Values)-1]
	}
	frac := x - float64(i)
	return a.Values[i]*(1-frac) + a.Values[i+1]*frac
}

// EstimateASD computes a median-over-segments amplitude spectral density
// using Hann-windowed segments of segLen seconds with 50% overlap. The
// median (rather than the mean) keeps loud transients in the estimation
// span from biasing the noise floor.
func EstimateASD(ts TimeSeries, segLen float64) (ASD, error) {
	n := int(segLen * ts.SampleRate)
	if n > len(ts.Samples) {
		n = len(ts.Samples)
	}
	if n < 8 {
		return ASD{}, fmt.Errorf("asd segment too short: %d samples", n)
	}

	window := make([]float64, n)
	var wss float64 // window sum of squares
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		wss += window[i] * window[i]
	}

	fft := fourier.NewFFT(n)
	nbins := n/2 + 1
	mags := make([][]float64, nbins)

	step := n / 2
	buf := make([]float64, n)
	for start := 0; start+n <= len(ts.Samples); start += step {
		for i := 0; i < n; i++ {
			buf[i] = ts.Samples[start+i] * window[i]
		}
		coeffs := fft.Coefficients(nil, buf)
		for k, c := range coeffs {
			// One-sided PSD bin, folded.
			p := 2 * (real(c)*real(c) + imag(c)*imag(c)) / (ts.SampleRate * wss)
			mags[k] = append(mags[k], p)
		}
	}
	if len(mags[0]) == 0 {
		return ASD{}, fmt.Errorf("series shorter than one asd segment")
	}

	out := ASD{Df: ts.SampleRate / float64(n), Values: make([]float64, nbins)}
	for k, m := range mags {
		sort.Float64s(m)
		out.Values[k] = math.Sqrt(stat.Quantile(0.5, stat.Empirical, m, nil))
	}
	return out, nil
}

// Whiten divides the series by its own amplitude spectral density in the
// frequency domain, returning a series whose noise floor is flat and scaled
// to roughly unit sample variance.
func Whiten(ts TimeSeries, asd ASD) (TimeSeries, error) {
	n := len(ts.Samples)
	if n < 2 {
		return TimeSeries{}, fmt.Errorf("series too short to whiten: %d samples", n)
	}

	// Floor the ASD at its smallest positive value so the DC bin and any
	// dead bands do not blow up the division.
	floor := math.Inf(1)
	for _, v := range asd.Values {
		if v > 0 && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		return TimeSeries{}, fmt.Errorf("asd has no positive values")
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, ts.Samples)
	df := ts.SampleRate / float64(n)
	for k := range coeffs {
		a := asd.At(float64(k) * df)
		if a < floor {
			a = floor
		}
		coeffs[k] /= complex(a, 0)
	}

	out := ts.Copy()
	fft.Sequence(out.Samples, coeffs)
	// Sequence is unnormalised; fold in 1/n plus the unit-variance scale.
	scale := math.Sqrt(2/ts.SampleRate) / float64(n)
	for i := range out.Samples {
		out.Samples[i] *= scale
	}
	return out, nil
}
