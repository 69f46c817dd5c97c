package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/burst-data/qscan/internal/qscan"
	"github.com/burst-data/qscan/internal/units"
)

// viridis color stops used for the SNR visual map.
var snrColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// eventgramChart builds a time-frequency scatter of the eventgram tiles,
// colored by SNR.
func eventgramChart(title string, eg *qscan.Eventgram) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(eg.Tiles))
	maxSNR := 1.0
	for _, tile := range eg.Tiles {
		snr := units.EnergyToSNR(tile.Energy)
		if snr > maxSNR {
			maxSNR = snr
		}
		data = append(data, opts.ScatterData{Value: []interface{}{tile.Time, tile.Frequency, snr}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Q=%.1f tiles=%d peak SNR=%.1f", eg.Q, len(eg.Tiles), eg.Meta.PeakSNR),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Frequency (Hz)", NameLocation: "middle", NameGap: 40,
			Type: "log",
			Min:  eg.Meta.FrequencyRange.Low,
			Max:  eg.Meta.FrequencyRange.High,
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSNR),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: snrColors},
		}),
	)
	scatter.AddSeries("tiles", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// renderEventgram writes the eventgram chart as a standalone HTML fragment.
func renderEventgram(path, title string, eg *qscan.Eventgram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	if err := eventgramChart(title, eg).Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
