package signal

import (
	"math"
	"testing"
)

func sineSeries(fs, f, amp float64, n int) TimeSeries {
	ts := TimeSeries{Start: 0, SampleRate: fs, Samples: make([]float64, n)}
	for i := range ts.Samples {
		ts.Samples[i] = amp * math.Sin(2*math.Pi*f*float64(i)/fs)
	}
	return ts
}

// rms over the second half of the series, past the filter transient.
func settledRMS(samples []float64) float64 {
	half := samples[len(samples)/2:]
	var sum float64
	for _, v := range half {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(half)))
}

func TestHighpassRemovesDC(t *testing.T) {
	ts := TimeSeries{Start: 0, SampleRate: 256, Samples: make([]float64, 2048)}
	for i := range ts.Samples {
		ts.Samples[i] = 3.5
	}
	out := Highpass(ts, 10)
	if rms := settledRMS(out.Samples); rms > 1e-3 {
		t.Errorf("DC residual rms = %g, want ~0", rms)
	}
}

func TestHighpassPassbandAndStopband(t *testing.T) {
	const fs = 1024
	const n = 8192

	pass := Highpass(sineSeries(fs, 100, 1, n), 10)
	if rms := settledRMS(pass.Samples); rms < 0.5 {
		t.Errorf("passband (100 Hz) rms = %g, want near 1/sqrt(2)=0.707", rms)
	}

	stop := Highpass(sineSeries(fs, 1, 1, n), 10)
	if rms := settledRMS(stop.Samples); rms > 0.05 {
		t.Errorf("stopband (1 Hz) rms = %g, want strong attenuation", rms)
	}
}

func TestHighpassDoesNotMutateInput(t *testing.T) {
	ts := sineSeries(256, 5, 1, 512)
	orig := make([]float64, len(ts.Samples))
	copy(orig, ts.Samples)

	Highpass(ts, 10)
	for i := range orig {
		if ts.Samples[i] != orig[i] {
			t.Fatal("Highpass mutated its input")
		}
	}
}

func TestNewHighpassOddOrderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for odd order")
		}
	}()
	NewHighpass(3, 256, 10)
}
