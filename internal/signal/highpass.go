package signal

import "math"

// biquad is one second-order IIR section in transposed direct form II.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (s *biquad) process(x float64) float64 {
	y := x*s.b0 + s.z1
	s.z1 = x*s.b1 - y*s.a1 + s.z2
	s.z2 = x*s.b2 - y*s.a2
	return y
}

// HighpassFilter is an even-order Butterworth highpass built as a cascade
// of biquad sections.
type HighpassFilter struct {
	sections []*biquad
}

// NewHighpass creates an order-N Butterworth highpass at cutoff Hz for the
// given sample rate. Order must be even.
func NewHighpass(order int, sampleRate, cutoff float64) *HighpassFilter {
	if order%2 != 0 {
		panic("highpass order must be even")
	}

	// Clamp the cutoff below Nyquist to keep the prewarp stable.
	if cutoff >= sampleRate*0.499 {
		cutoff = sampleRate * 0.499
	}

	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw := math.Cos(w0)
	sinw := math.Sin(w0)

	sections := make([]*biquad, order/2)
	for i := range sections {
		// Butterworth pole Q for cascade section i.
		theta := math.Pi * (2*float64(i) + 1) / (2 * float64(order))
		q := 1 / (2 * math.Sin(theta))

		alpha := sinw / (2 * q)
		a0 := 1 + alpha

		sections[i] = &biquad{
			b0: (1 + cosw) / 2 / a0,
			b1: -(1 + cosw) / a0,
			b2: (1 + cosw) / 2 / a0,
			a1: -2 * cosw / a0,
			a2: (1 - alpha) / a0,
		}
	}
	return &HighpassFilter{sections: sections}
}

// Process filters a single sample through the cascade.
func (f *HighpassFilter) Process(x float64) float64 {
	for _, s := range f.sections {
		x = s.process(x)
	}
	return x
}

// Highpass returns a highpassed copy of ts using an order-4 Butterworth
// filter at cutoff Hz. The input is not modified.
func Highpass(ts TimeSeries, cutoff float64) TimeSeries {
	out := ts.Copy()
	f := NewHighpass(4, ts.SampleRate, cutoff)
	for i, x := range ts.Samples {
		out.Samples[i] = f.Process(x)
	}
	return out
}
