package signal

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTimeSeriesAccessors(t *testing.T) {
	ts := TimeSeries{Start: 10, SampleRate: 4, Samples: make([]float64, 16)}

	if got := ts.Duration(); got != 4 {
		t.Errorf("Duration() = %g, want 4", got)
	}
	if got := ts.End(); got != 14 {
		t.Errorf("End() = %g, want 14", got)
	}
	if got := ts.TimeAt(2); got != 10.5 {
		t.Errorf("TimeAt(2) = %g, want 10.5", got)
	}
}

func TestTimeSeriesCopyIsDeep(t *testing.T) {
	ts := TimeSeries{Start: 0, SampleRate: 1, Samples: []float64{1, 2, 3}}
	cp := ts.Copy()
	cp.Samples[0] = 99
	if ts.Samples[0] != 1 {
		t.Error("Copy shares the sample buffer")
	}
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	content := "0.0,1.5\n0.25,2.5\n0.5,-0.5\n0.75,0.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ts, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Start != 0 {
		t.Errorf("Start = %g, want 0", ts.Start)
	}
	if math.Abs(ts.SampleRate-4) > 1e-9 {
		t.Errorf("SampleRate = %g, want 4", ts.SampleRate)
	}
	want := []float64{1.5, 2.5, -0.5, 0}
	if len(ts.Samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(ts.Samples), len(want))
	}
	for i, v := range want {
		if ts.Samples[i] != v {
			t.Errorf("Samples[%d] = %g, want %g", i, ts.Samples[i], v)
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-increasing time", "0,1\n0,2\n1,3\n"},
		{"bad time", "x,1\n1,2\n"},
		{"bad value", "0,x\n1,2\n"},
		{"too short", "0,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readCSV(strings.NewReader(tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
