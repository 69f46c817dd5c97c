// Package units provides shared conversions between normalized tile energy
// and signal-to-noise ratio, and formatting helpers for report output.
package units

import (
	"fmt"
	"math"
)

// EnergyToSNR converts a normalized tile energy to SNR: sqrt(2E).
func EnergyToSNR(energy float64) float64 {
	return math.Sqrt(2 * energy)
}

// SNRToEnergy converts an SNR to the equivalent normalized tile energy:
// snr^2 / 2. This is the inclusive eventgram threshold for a given SNR cut.
func SNRToEnergy(snr float64) float64 {
	return snr * snr / 2
}

// FormatFrequency renders a frequency with a Hz or kHz suffix.
func FormatFrequency(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FormatEpoch renders an epoch in seconds with millisecond precision.
func FormatEpoch(t float64) string {
	return fmt.Sprintf("%.3f", t)
}
