// Command qscan searches sensor channels for the most significant burst of
// time-frequency energy around a target time and writes an HTML report plus
// optional sqlite records of the scan.
//
// Channel data is supplied as two-column (time,value) CSV files:
//
//	qscan -time 1234.5 -config scan.json -out report \
//	      -channels SENSOR:X=x.csv,SENSOR:Y=y.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	osignal "os/signal"
	"strings"
	"syscall"

	"github.com/burst-data/qscan/internal/config"
	"github.com/burst-data/qscan/internal/qscan"
	"github.com/burst-data/qscan/internal/report"
	"github.com/burst-data/qscan/internal/scandb"
	"github.com/burst-data/qscan/internal/signal"
	"github.com/burst-data/qscan/internal/tiling"
)

var (
	configPath = flag.String("config", "", "Path to scan config JSON (defaults apply if empty)")
	targetTime = flag.Float64("time", 0, "Target epoch (seconds) to scan around")
	outDir     = flag.String("out", "scan-report", "Output directory for the HTML report")
	dbPath     = flag.String("db", "", "Optional sqlite database to record the scan in")
	channels   = flag.String("channels", "", "Comma-separated NAME=series.csv channel inputs")
)

func main() {
	flag.Parse()

	if *channels == "" {
		log.Fatal("at least one channel input is required (-channels)")
	}

	cfg := &config.ScanConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	chans, err := loadChannels(cfg, *channels)
	if err != nil {
		log.Fatalf("failed to load channels: %v", err)
	}

	orch, err := qscan.NewOrchestrator(qscan.Config{
		Search:       cfg.ScanParams(),
		Window:       qscan.SearchWindow{Center: *targetTime, HalfWidth: cfg.GetWindowHalfWidth()},
		SNRThreshold: cfg.GetSNRThreshold(),
		Workers:      cfg.GetWorkers(),
	}, tiling.NewTransform(cfg.GetMismatch()))
	if err != nil {
		log.Fatalf("invalid scan configuration: %v", err)
	}

	ctx, stop := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := orch.Run(ctx, chans)
	if err != nil {
		log.Fatalf("scan interrupted: %v", err)
	}

	kept := 0
	for _, res := range results {
		if res.Dropped {
			log.Printf("channel %s dropped (%s) after %s", res.Channel, res.Reason, res.Elapsed)
			continue
		}
		kept++
		log.Printf("channel %s: Q=%.1f peak SNR %.1f at %.3f s / %.1f Hz (%s)",
			res.Channel, res.Q, res.PeakSNR, res.PeakTime, res.PeakFrequency, res.Elapsed)
	}

	run, err := scandb.NewRun(*targetTime, cfg)
	if err != nil {
		log.Fatalf("failed to create run record: %v", err)
	}

	if *dbPath != "" {
		db, err := scandb.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open scan database: %v", err)
		}
		defer db.Close()
		if err := db.RecordRun(run); err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		for _, res := range results {
			if err := db.RecordChannelResult(run.ID, res); err != nil {
				log.Printf("failed to record channel %s: %v", res.Channel, err)
			}
		}
	}

	index, err := report.Write(*outDir, run.ID, *targetTime, results)
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	log.Printf("scan complete: %d/%d channels kept, report at %s", kept, len(results), index)
}

// loadChannels reads and conditions each NAME=path.csv input: highpass for
// the raw pass, then whitening on top of it for the search pass.
func loadChannels(cfg *config.ScanConfig, spec string) ([]qscan.Channel, error) {
	var out []qscan.Channel
	for _, item := range strings.Split(spec, ",") {
		name, path, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("bad channel spec %q, want NAME=path.csv", item)
		}

		series, err := signal.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}

		highpassed := signal.Highpass(series, cfg.GetHighpassCutoff())
		asd, err := signal.EstimateASD(highpassed, cfg.GetASDSegment())
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}
		whitened, err := signal.Whiten(highpassed, asd)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}

		out = append(out, qscan.Channel{
			Name:          name,
			Whitened:      whitened,
			Highpassed:    highpassed,
			AlwaysInclude: cfg.IsAlwaysInclude(name),
		})
	}
	return out, nil
}
