package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burst-data/qscan/internal/qscan"
	"github.com/burst-data/qscan/internal/tiling"
)

func testResults() []qscan.ChannelResult {
	eg := &qscan.Eventgram{
		Q: 10,
		Tiles: []qscan.Tile{
			{Time: 2, Frequency: 20, Duration: 1, Bandwidth: 10, Energy: 50},
		},
		Meta: qscan.EventgramMeta{
			PeakSNR:        10,
			FrequencyRange: tiling.FrequencyRange{Low: 5, High: 80},
		},
	}
	plane := &tiling.Plane{
		Q:              10,
		FrequencyRange: tiling.FrequencyRange{Low: 5, High: 80},
		Start:          -0.5,
		Duration:       5,
		Rows: []tiling.Row{
			{CenterFrequency: 10, Times: []float64{0, 1, 2, 3}, Energies: []float64{1, 1, 2, 1}},
			{CenterFrequency: 20, Times: []float64{0, 1, 2, 3}, Energies: []float64{1, 50, 1, 1}},
		},
	}
	return []qscan.ChannelResult{
		{
			Channel:       "SENSOR:X",
			Q:             10,
			PeakSNR:       10,
			PeakTime:      2,
			PeakFrequency: 20,
			Threshold:     4.2,
			Whitened:      eg,
			Raw:           eg,
			Plane:         plane,
		},
		{
			Channel: "SENSOR:Y",
			Dropped: true,
			Reason:  qscan.DropFailed,
			Err:     errors.New("no peak found in search window"),
		},
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	index, err := Write(dir, "run-1234", 1234.5, testResults())
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(index)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	for _, want := range []string{
		"SENSOR:X",
		"SENSOR:Y",
		"run-1234",
		"1234.500",
		"failed",
		"no peak found",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("index.html missing %q", want)
		}
	}

	// The chart fragments and plane raster are written alongside.
	for _, f := range []string{
		"SENSOR-X_whitened.html",
		"SENSOR-X_raw.html",
		"SENSOR-X_plane.png",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing report artifact %s: %v", f, err)
		}
	}
}

func TestWriteReportNoKeptChannels(t *testing.T) {
	dir := t.TempDir()
	results := []qscan.ChannelResult{
		{Channel: "SENSOR:A", Dropped: true, Reason: qscan.DropInsignificant},
	}
	index, err := Write(dir, "run-x", 0, results)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(index)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "insignificant") {
		t.Error("dropped channel reason missing from report")
	}
}

func TestChannelAnchor(t *testing.T) {
	if got := channelAnchor("H1:SUS-ETMY L2/OUT"); got != "H1-SUS-ETMY_L2-OUT" {
		t.Errorf("channelAnchor = %q", got)
	}
}
