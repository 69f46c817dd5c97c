// Package signal provides the time-series model and conditioning filters
// applied to channel data before tiling: Butterworth highpass and spectral
// whitening. The scan core consumes conditioned series, it never filters.
package signal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// TimeSeries is a uniformly sampled real-valued series. Start is the epoch
// of the first sample in seconds; SampleRate is in Hz.
type TimeSeries struct {
	Start      float64
	SampleRate float64
	Samples    []float64
}

// Duration returns the span of the series in seconds.
func (ts TimeSeries) Duration() float64 {
	if ts.SampleRate <= 0 {
		return 0
	}
	return float64(len(ts.Samples)) / ts.SampleRate
}

// End returns the epoch just past the final sample.
func (ts TimeSeries) End() float64 {
	return ts.Start + ts.Duration()
}

// TimeAt returns the epoch of sample i.
func (ts TimeSeries) TimeAt(i int) float64 {
	return ts.Start + float64(i)/ts.SampleRate
}

// Copy returns a deep copy so filters can run per channel without sharing
// sample buffers across goroutines.
func (ts TimeSeries) Copy() TimeSeries {
	out := ts
	out.Samples = make([]float64, len(ts.Samples))
	copy(out.Samples, ts.Samples)
	return out
}

// ReadCSV reads a two-column (time,value) CSV file into a TimeSeries. The
// time column must be uniformly spaced; the sample rate is inferred from the
// first two rows.
func ReadCSV(path string) (TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) (TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var ts TimeSeries
	var prev float64
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return TimeSeries{}, fmt.Errorf("failed to read series row %d: %w", row, err)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return TimeSeries{}, fmt.Errorf("failed to parse time on row %d: %w", row, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return TimeSeries{}, fmt.Errorf("failed to parse value on row %d: %w", row, err)
		}
		switch row {
		case 0:
			ts.Start = t
		case 1:
			dt := t - prev
			if dt <= 0 {
				return TimeSeries{}, fmt.Errorf("non-increasing time column at row %d", row)
			}
			ts.SampleRate = 1 / dt
		}
		prev = t
		ts.Samples = append(ts.Samples, v)
		row++
	}
	if len(ts.Samples) < 2 {
		return TimeSeries{}, fmt.Errorf("series needs at least 2 samples, got %d", len(ts.Samples))
	}
	return ts, nil
}
