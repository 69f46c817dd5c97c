// Package config loads and validates scan configuration. Fields omitted
// from the JSON file fall back to defaults via the Get* accessors, so
// partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/burst-data/qscan/internal/qscan"
	"github.com/burst-data/qscan/internal/tiling"
)

// ScanConfig is the root configuration for a scan run.
type ScanConfig struct {
	QMin           *float64 `json:"q_min,omitempty"`
	QMax           *float64 `json:"q_max,omitempty"`
	FrequencyMin   *float64 `json:"frequency_min,omitempty"`
	FrequencyMax   *float64 `json:"frequency_max,omitempty"`
	FalseAlarmRate *float64 `json:"false_alarm_rate,omitempty"`
	SNRThreshold   *float64 `json:"snr_threshold,omitempty"`

	// WindowHalfWidth is the half-width in seconds of the search window
	// around the target time.
	WindowHalfWidth *float64 `json:"window_half_width,omitempty"`

	// Mismatch is the maximum fractional energy loss between neighbouring
	// tiles, controlling tiling density.
	Mismatch *float64 `json:"mismatch,omitempty"`

	// HighpassCutoff is the highpass corner frequency in Hz applied
	// before tiling.
	HighpassCutoff *float64 `json:"highpass_cutoff,omitempty"`

	// ASDSegment is the segment length in seconds for the whitening
	// spectral density estimate.
	ASDSegment *float64 `json:"asd_segment,omitempty"`

	// Workers bounds concurrent channel scans.
	Workers *int `json:"workers,omitempty"`

	// AlwaysInclude lists channels kept regardless of significance.
	AlwaysInclude []string `json:"always_include,omitempty"`
}

// Load reads a ScanConfig from a JSON file and validates it.
func Load(path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ScanConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration before any data is touched. Degenerate
// ranges and non-positive rates fail fast per the error taxonomy.
func (c *ScanConfig) Validate() error {
	if c.GetQMin() <= 0 || c.GetQMax() < c.GetQMin() {
		return fmt.Errorf("%w: q range [%g, %g]", qscan.ErrInvalidConfiguration, c.GetQMin(), c.GetQMax())
	}
	if c.GetFrequencyMin() <= 0 || c.GetFrequencyMax() <= c.GetFrequencyMin() {
		return fmt.Errorf("%w: frequency range [%g, %g]", qscan.ErrInvalidConfiguration, c.GetFrequencyMin(), c.GetFrequencyMax())
	}
	if c.GetFalseAlarmRate() <= 0 {
		return fmt.Errorf("%w: false alarm rate %g", qscan.ErrInvalidConfiguration, c.GetFalseAlarmRate())
	}
	if c.GetMismatch() <= 0 || c.GetMismatch() >= 1 {
		return fmt.Errorf("%w: mismatch %g", qscan.ErrInvalidConfiguration, c.GetMismatch())
	}
	if c.GetWindowHalfWidth() <= 0 {
		return fmt.Errorf("%w: window half-width %g", qscan.ErrInvalidConfiguration, c.GetWindowHalfWidth())
	}
	return nil
}

// GetQMin returns the minimum Q or the default.
func (c *ScanConfig) GetQMin() float64 {
	if c.QMin == nil {
		return 4
	}
	return *c.QMin
}

// GetQMax returns the maximum Q or the default.
func (c *ScanConfig) GetQMax() float64 {
	if c.QMax == nil {
		return 64
	}
	return *c.QMax
}

// GetFrequencyMin returns the lower frequency bound or the default.
func (c *ScanConfig) GetFrequencyMin() float64 {
	if c.FrequencyMin == nil {
		return 4
	}
	return *c.FrequencyMin
}

// GetFrequencyMax returns the upper frequency bound or the default.
func (c *ScanConfig) GetFrequencyMax() float64 {
	if c.FrequencyMax == nil {
		return 1024
	}
	return *c.FrequencyMax
}

// GetFalseAlarmRate returns the target false alarm rate or the default.
func (c *ScanConfig) GetFalseAlarmRate() float64 {
	if c.FalseAlarmRate == nil {
		return 1e-2
	}
	return *c.FalseAlarmRate
}

// GetSNRThreshold returns the eventgram SNR threshold or the default.
func (c *ScanConfig) GetSNRThreshold() float64 {
	if c.SNRThreshold == nil {
		return 5.5
	}
	return *c.SNRThreshold
}

// GetWindowHalfWidth returns the search window half-width or the default.
func (c *ScanConfig) GetWindowHalfWidth() float64 {
	if c.WindowHalfWidth == nil {
		return 0.5
	}
	return *c.WindowHalfWidth
}

// GetMismatch returns the tile mismatch or the default.
func (c *ScanConfig) GetMismatch() float64 {
	if c.Mismatch == nil {
		return 0.2
	}
	return *c.Mismatch
}

// GetHighpassCutoff returns the highpass corner or the default.
func (c *ScanConfig) GetHighpassCutoff() float64 {
	if c.HighpassCutoff == nil {
		return 4
	}
	return *c.HighpassCutoff
}

// GetASDSegment returns the whitening segment length or the default.
func (c *ScanConfig) GetASDSegment() float64 {
	if c.ASDSegment == nil {
		return 2
	}
	return *c.ASDSegment
}

// GetWorkers returns the worker count or the default.
func (c *ScanConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// IsAlwaysInclude reports whether the named channel bypasses the
// significance test.
func (c *ScanConfig) IsAlwaysInclude(channel string) bool {
	for _, name := range c.AlwaysInclude {
		if name == channel {
			return true
		}
	}
	return false
}

// ScanParams assembles the core search parameters from the config.
func (c *ScanConfig) ScanParams() qscan.SearchParams {
	return qscan.SearchParams{
		QRange:         tiling.QRange{Min: c.GetQMin(), Max: c.GetQMax()},
		FrequencyRange: tiling.FrequencyRange{Low: c.GetFrequencyMin(), High: c.GetFrequencyMax()},
		FalseAlarmRate: c.GetFalseAlarmRate(),
	}
}
