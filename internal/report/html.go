// Package report writes the HTML scan report: a banner with the target
// time, a summary table of significant channels, per-channel blocks with
// eventgram charts and the winning plane raster, and the list of dropped
// channels.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/burst-data/qscan/internal/qscan"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Burst scan | {{printf "%.3f" .TargetTime}}</title>
<style>
body { font-family: sans-serif; margin: 0; color: #222; }
.banner { background: #1f77b4; color: #fff; padding: 0.8em 1.5em; }
.banner .time { float: right; }
.container { max-width: 1000px; margin: 1em auto; padding: 0 1em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.7em; text-align: left; }
th { background: #f4f4f4; }
.channel { border-top: 2px solid #1f77b4; margin-top: 2em; padding-top: 0.5em; }
.dropped { color: #888; }
iframe { border: none; width: 100%; height: 540px; }
img.plane { max-width: 100%; }
footer { border-top: 1px solid #ccc; margin-top: 3em; padding: 1em 1.5em; color: #666; font-size: 0.85em; }
</style>
</head>
<body>
<div class="banner"><h2>Burst scan <span class="time">{{printf "%.3f" .TargetTime}}</span></h2></div>
<div class="container">
<h3>Summary</h3>
<table>
<tr><th>Channel</th><th>Q</th><th>Peak SNR</th><th>Peak time (s)</th><th>Peak frequency (Hz)</th><th>Threshold (energy)</th></tr>
{{range .Kept}}<tr>
<td><a href="#{{.Anchor}}">{{.Channel}}</a></td>
<td>{{printf "%.1f" .Q}}</td>
<td>{{printf "%.1f" .PeakSNR}}</td>
<td>{{printf "%.3f" .PeakTime}}</td>
<td>{{printf "%.1f" .PeakFrequency}}</td>
<td>{{printf "%.1f" .Threshold}}</td>
</tr>{{end}}
</table>

{{range .Kept}}
<div class="channel" id="{{.Anchor}}">
<h3>{{.Channel}}</h3>
<p>Q={{printf "%.1f" .Q}}, peak SNR {{printf "%.1f" .PeakSNR}} at
{{printf "%.3f" .PeakTime}} s / {{printf "%.1f" .PeakFrequency}} Hz
(significance threshold {{printf "%.1f" .Threshold}}).</p>
{{if .PlanePNG}}<img class="plane" src="{{.PlanePNG}}" alt="winning plane">{{end}}
<h4>Whitened eventgram</h4>
<iframe src="{{.WhitenedChart}}"></iframe>
<h4>Raw eventgram</h4>
<iframe src="{{.RawChart}}"></iframe>
</div>
{{end}}

{{if .Dropped}}
<h3>Dropped channels</h3>
<table class="dropped">
<tr><th>Channel</th><th>Reason</th><th>Detail</th></tr>
{{range .Dropped}}<tr><td>{{.Channel}}</td><td>{{.Reason}}</td><td>{{.Detail}}</td></tr>{{end}}
</table>
{{end}}
</div>
<footer>Run {{.RunID}} &middot; generated {{.Generated}} by qscan</footer>
</body>
</html>
`

type keptChannel struct {
	Channel       string
	Anchor        string
	Q             float64
	PeakSNR       float64
	PeakTime      float64
	PeakFrequency float64
	Threshold     float64
	PlanePNG      string
	WhitenedChart string
	RawChart      string
}

type droppedChannel struct {
	Channel string
	Reason  string
	Detail  string
}

type pageData struct {
	TargetTime float64
	RunID      string
	Generated  string
	Kept       []keptChannel
	Dropped    []droppedChannel
}

// Write renders the full report into dir: one chart file per eventgram, one
// raster per winning plane, and index.html tying them together.
func Write(dir, runID string, targetTime float64, results []qscan.ChannelResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data := pageData{
		TargetTime: targetTime,
		RunID:      runID,
		Generated:  time.Now().UTC().Format(time.RFC3339),
	}

	for _, res := range results {
		if res.Dropped {
			detail := ""
			if res.Err != nil {
				detail = res.Err.Error()
			}
			data.Dropped = append(data.Dropped, droppedChannel{
				Channel: res.Channel,
				Reason:  string(res.Reason),
				Detail:  detail,
			})
			continue
		}

		anchor := channelAnchor(res.Channel)
		kept := keptChannel{
			Channel:       res.Channel,
			Anchor:        anchor,
			Q:             res.Q,
			PeakSNR:       res.PeakSNR,
			PeakTime:      res.PeakTime,
			PeakFrequency: res.PeakFrequency,
			Threshold:     res.Threshold,
			WhitenedChart: anchor + "_whitened.html",
			RawChart:      anchor + "_raw.html",
		}

		if err := renderEventgram(filepath.Join(dir, kept.WhitenedChart), res.Channel+" (whitened)", res.Whitened); err != nil {
			return "", err
		}
		if err := renderEventgram(filepath.Join(dir, kept.RawChart), res.Channel+" (raw)", res.Raw); err != nil {
			return "", err
		}
		if res.Plane != nil && len(res.Plane.Rows) > 0 {
			kept.PlanePNG = anchor + "_plane.png"
			if err := RenderPlane(res.Plane, filepath.Join(dir, kept.PlanePNG)); err != nil {
				return "", err
			}
		}
		data.Kept = append(data.Kept, kept)
	}

	index := filepath.Join(dir, "index.html")
	f, err := os.Create(index)
	if err != nil {
		return "", fmt.Errorf("failed to create index.html: %w", err)
	}
	defer f.Close()

	tmpl := template.Must(template.New("report").Parse(pageTemplate))
	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return index, nil
}

// channelAnchor derives a filesystem- and fragment-safe name for a channel.
func channelAnchor(name string) string {
	r := strings.NewReplacer(":", "-", "/", "-", " ", "_")
	return r.Replace(name)
}
