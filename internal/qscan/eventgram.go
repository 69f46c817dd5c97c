package qscan

import (
	"fmt"

	"github.com/burst-data/qscan/internal/tiling"
)

// Tile is a single time-frequency cell with reconstructed extents and its
// normalized energy. Immutable once emitted.
type Tile struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"`
	Bandwidth float64 `json:"bandwidth"`
	Energy    float64 `json:"energy"`
}

// EventgramMeta carries the peak statistics of the search that selected the
// plane an eventgram was built from, or pinned values supplied by the caller
// when building against a fixed Q.
type EventgramMeta struct {
	PeakEnergy     float64               `json:"peak_energy"`
	PeakSNR        float64               `json:"peak_snr"`
	PeakTime       float64               `json:"peak_time"`
	PeakFrequency  float64               `json:"peak_frequency"`
	FrequencyRange tiling.FrequencyRange `json:"frequency_range"`
	Threshold      float64               `json:"significance_threshold"`
}

// Eventgram is the sparse catalog of tiles from one plane whose energy
// clears the SNR threshold, in row-major then time-major order. Owned by
// the caller once returned; never mutated afterwards.
type Eventgram struct {
	Q     float64       `json:"q"`
	Tiles []Tile        `json:"tiles"`
	Meta  EventgramMeta `json:"meta"`
}

// MetaFromOutcome populates eventgram metadata from a search outcome.
func MetaFromOutcome(o *Outcome, fr tiling.FrequencyRange) EventgramMeta {
	return EventgramMeta{
		PeakEnergy:     o.PeakEnergy,
		PeakSNR:        o.PeakSNR,
		PeakTime:       o.PeakTime,
		PeakFrequency:  o.PeakFrequency,
		FrequencyRange: fr,
		Threshold:      o.Threshold,
	}
}

// BuildEventgram re-derives tile geometry for the plane and keeps every
// sample whose energy reaches snrThreshold^2/2 (inclusive). Row bandwidths
// are reconstructed from the plane's lower frequency bound; per-sample
// durations from the signal start time. Pure function of its inputs.
func BuildEventgram(p *tiling.Plane, snrThreshold float64, meta EventgramMeta) (*Eventgram, error) {
	minEnergy := snrThreshold * snrThreshold / 2
	eg := &Eventgram{Q: p.Q, Meta: meta}

	bandwidths := NewWidthIterator(p.FrequencyRange.Low)
	for ri, row := range p.Rows {
		bw, err := bandwidths.Next(row.CenterFrequency)
		if err != nil {
			return nil, fmt.Errorf("row %d (%.1f Hz) of Q=%.1f plane: %w", ri, row.CenterFrequency, p.Q, err)
		}

		durations := NewWidthIterator(p.Start)
		for i, t := range row.Times {
			d, err := durations.Next(t)
			if err != nil {
				return nil, fmt.Errorf("row %d (%.1f Hz) of Q=%.1f plane: %w", ri, row.CenterFrequency, p.Q, err)
			}
			if row.Energies[i] < minEnergy {
				continue
			}
			eg.Tiles = append(eg.Tiles, Tile{
				Time:      t,
				Frequency: row.CenterFrequency,
				Duration:  d,
				Bandwidth: bw,
				Energy:    row.Energies[i],
			})
		}
	}
	return eg, nil
}
