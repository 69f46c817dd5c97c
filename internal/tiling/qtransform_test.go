package tiling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/burst-data/qscan/internal/signal"
)

// burstSeries is a Gaussian-enveloped sinusoid on a unit white noise floor,
// i.e. the shape of a whitened channel containing one burst. The noise floor
// matters: row energies are normalized by their own mean, so a noiseless
// input would renormalize quiet rows' leakage up to the same scale as the
// burst band.
func burstSeries(fs float64, n int, f0, center, width float64) signal.TimeSeries {
	rng := rand.New(rand.NewSource(7))
	ts := signal.TimeSeries{Start: 0, SampleRate: fs, Samples: make([]float64, n)}
	for i := range ts.Samples {
		t := float64(i) / fs
		env := math.Exp(-(t - center) * (t - center) / (2 * width * width))
		ts.Samples[i] = rng.NormFloat64() + 10*env*math.Sin(2*math.Pi*f0*t)
	}
	return ts
}

func TestQValuesCoverRange(t *testing.T) {
	tr := NewTransform(0.2)
	qr := QRange{Min: 4, Max: 64}
	qs := tr.QValues(qr)

	if len(qs) < 2 {
		t.Fatalf("got %d planes for a 4..64 Q range, want several", len(qs))
	}
	prev := 0.0
	for _, q := range qs {
		if q < qr.Min || q > qr.Max {
			t.Errorf("Q=%g outside [%g, %g]", q, qr.Min, qr.Max)
		}
		if q <= prev {
			t.Errorf("Q values not strictly increasing at %g", q)
		}
		prev = q
	}
}

func TestQValuesDegenerateRange(t *testing.T) {
	tr := NewTransform(0.2)
	qs := tr.QValues(QRange{Min: 10, Max: 10})
	if len(qs) != 1 || qs[0] != 10 {
		t.Errorf("QValues(10..10) = %v, want exactly [10]", qs)
	}
}

func TestPlanesStructure(t *testing.T) {
	ts := burstSeries(512, 4096, 64, 4, 0.1)
	tr := NewTransform(0.2)
	fr := FrequencyRange{Low: 16, High: 128}

	seq, err := tr.Planes(ts, QRange{Min: 4, Max: 16}, fr)
	if err != nil {
		t.Fatal(err)
	}

	nplanes := 0
	for p := seq.Next(); p != nil; p = seq.Next() {
		nplanes++
		if p.Start != ts.Start || math.Abs(p.Duration-ts.Duration()) > 1e-9 {
			t.Errorf("plane Q=%g span [%g, %g] does not match series", p.Q, p.Start, p.Duration)
		}
		prevF := 0.0
		for _, row := range p.Rows {
			if row.CenterFrequency < fr.Low || row.CenterFrequency > fr.High {
				t.Errorf("row %g Hz outside band", row.CenterFrequency)
			}
			if row.CenterFrequency <= prevF {
				t.Errorf("rows not in ascending frequency order at %g Hz", row.CenterFrequency)
			}
			prevF = row.CenterFrequency

			if len(row.Times) != len(row.Energies) {
				t.Fatalf("row %g Hz: %d times vs %d energies", row.CenterFrequency, len(row.Times), len(row.Energies))
			}
			var mean float64
			for i, e := range row.Energies {
				if e < 0 || math.IsNaN(e) {
					t.Fatalf("row %g Hz energy[%d] = %g", row.CenterFrequency, i, e)
				}
				mean += e
				if row.Times[i] < p.Start || row.Times[i] > p.Start+p.Duration {
					t.Errorf("row %g Hz time[%d] = %g outside span", row.CenterFrequency, i, row.Times[i])
				}
			}
			mean /= float64(len(row.Energies))
			if math.Abs(mean-1) > 1e-6 {
				t.Errorf("row %g Hz mean energy = %g, want 1 (normalized)", row.CenterFrequency, mean)
			}
		}
	}
	if nplanes == 0 {
		t.Fatal("sequence yielded no planes")
	}
}

func TestPlanesLocalizeBurst(t *testing.T) {
	ts := burstSeries(512, 4096, 64, 4, 0.1)
	tr := NewTransform(0.2)

	seq, err := tr.Planes(ts, QRange{Min: 8, Max: 8}, FrequencyRange{Low: 16, High: 128})
	if err != nil {
		t.Fatal(err)
	}
	p := seq.Next()
	if p == nil {
		t.Fatal("no plane for pinned Q")
	}
	if seq.Next() != nil {
		t.Fatal("pinned Q range must yield exactly one plane")
	}

	var bestE, bestT, bestF float64
	for _, row := range p.Rows {
		for i, e := range row.Energies {
			if e > bestE {
				bestE, bestT, bestF = e, row.Times[i], row.CenterFrequency
			}
		}
	}
	if bestE < 2 {
		t.Errorf("burst peak energy = %g, want well above the unit noise floor", bestE)
	}
	if math.Abs(bestT-4) > 1 {
		t.Errorf("burst peak at t=%g, want near 4 s", bestT)
	}
	if bestF < 32 || bestF > 128 {
		t.Errorf("burst peak at %g Hz, want near 64 Hz", bestF)
	}
}

func TestPlanesRejectsBadInput(t *testing.T) {
	tr := NewTransform(0.2)
	ts := burstSeries(512, 4096, 64, 4, 0.1)

	if _, err := tr.Planes(ts, QRange{Min: 4, Max: 16}, FrequencyRange{Low: 16, High: 1024}); err == nil {
		t.Error("expected an error for a band above Nyquist")
	}
	short := signal.TimeSeries{SampleRate: 512, Samples: []float64{1}}
	if _, err := tr.Planes(short, QRange{Min: 4, Max: 16}, FrequencyRange{Low: 16, High: 128}); err == nil {
		t.Error("expected an error for a one-sample series")
	}
}

func TestPlaneSliceSinglePass(t *testing.T) {
	p1 := &Plane{Q: 4}
	p2 := &Plane{Q: 8}
	seq := NewPlaneSlice([]*Plane{p1, p2})

	if got := seq.Next(); got != p1 {
		t.Errorf("first Next() = %v, want p1", got)
	}
	if got := seq.Next(); got != p2 {
		t.Errorf("second Next() = %v, want p2", got)
	}
	if got := seq.Next(); got != nil {
		t.Errorf("exhausted Next() = %v, want nil", got)
	}
	if got := seq.Next(); got != nil {
		t.Error("sequence restarted after exhaustion")
	}
}
