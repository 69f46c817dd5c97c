package qscan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/burst-data/qscan/internal/signal"
	"github.com/burst-data/qscan/internal/tiling"
	"github.com/burst-data/qscan/internal/timeutil"
)

// State is a channel's position in the scan state machine.
type State int

const (
	StateScanning State = iota
	StateSignificant
	StateInsignificant
	StateFailed
	StateRefining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateSignificant:
		return "significant"
	case StateInsignificant:
		return "insignificant"
	case StateFailed:
		return "failed"
	case StateRefining:
		return "refining"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DropReason records why a channel was excluded from the output.
type DropReason string

const (
	DropInsignificant DropReason = "insignificant"
	DropFailed        DropReason = "failed"
)

// PlaneProvider builds tiling planes for a conditioned series. Implemented
// by tiling.Transform; faked in tests.
type PlaneProvider interface {
	Planes(ts signal.TimeSeries, qr tiling.QRange, fr tiling.FrequencyRange) (tiling.PlaneSeq, error)
}

// Channel is one sensor channel's conditioned inputs. Whitened drives the
// Q selection and significance test; Highpassed is the less-processed series
// the refined eventgram is built from.
type Channel struct {
	Name       string
	Whitened   signal.TimeSeries
	Highpassed signal.TimeSeries

	// AlwaysInclude keeps the channel even when its peak fails the
	// significance test.
	AlwaysInclude bool
}

// ChannelResult is the per-channel output record. Either Dropped is set
// with a reason, or the scan statistics and both eventgrams are populated.
type ChannelResult struct {
	Channel string
	State   State
	Dropped bool
	Reason  DropReason
	// Err holds the failure for dropped channels with Reason DropFailed;
	// geometry contract violations surface here.
	Err error

	Q             float64
	PeakEnergy    float64
	PeakSNR       float64
	PeakTime      float64
	PeakFrequency float64
	Threshold     float64

	Whitened *Eventgram
	Raw      *Eventgram

	// Plane is the winning whitened plane, retained for rendering.
	Plane *tiling.Plane

	Elapsed time.Duration
}

// Config carries the per-run scan parameters. Everything is explicit so
// channels can run concurrently without shared mutable state.
type Config struct {
	Search       SearchParams
	Window       SearchWindow
	SNRThreshold float64

	// Workers bounds concurrent channel scans; 0 or 1 runs sequentially.
	Workers int
}

// Orchestrator sequences the peak search and eventgram construction for
// each channel and collects results. Channels are mutually independent;
// a failed channel never aborts its siblings.
type Orchestrator struct {
	cfg      Config
	provider PlaneProvider
	clock    timeutil.Clock
}

// NewOrchestrator validates the configuration and returns an orchestrator.
func NewOrchestrator(cfg Config, provider PlaneProvider) (*Orchestrator, error) {
	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	if cfg.SNRThreshold < 0 {
		return nil, fmt.Errorf("%w: snr threshold %g", ErrInvalidConfiguration, cfg.SNRThreshold)
	}
	if cfg.Window.HalfWidth <= 0 {
		return nil, fmt.Errorf("%w: window half-width %g", ErrInvalidConfiguration, cfg.Window.HalfWidth)
	}
	return &Orchestrator{cfg: cfg, provider: provider, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the wall clock, for tests.
func (o *Orchestrator) SetClock(c timeutil.Clock) { o.clock = c }

// Run scans every channel and returns one result per channel, in input
// order. Per-channel failures are converted to dropped records; Run itself
// only fails if the context is cancelled before all channels finish.
func (o *Orchestrator) Run(ctx context.Context, channels []Channel) ([]ChannelResult, error) {
	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(channels) {
		workers = len(channels)
	}

	results := make([]ChannelResult, len(channels))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.scanChannel(channels[i])
			}
		}()
	}

	var err error
feed:
	for i := range channels {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results, err
}

// scanChannel walks one channel through the state machine:
// Scanning -> {Significant, Insignificant, Failed} -> Refining -> Done.
func (o *Orchestrator) scanChannel(ch Channel) (res ChannelResult) {
	start := o.clock.Now()
	res = ChannelResult{Channel: ch.Name, State: StateScanning}
	defer func() { res.Elapsed = o.clock.Since(start) }()

	drop := func(reason DropReason, state State, err error) ChannelResult {
		res.State = state
		res.Dropped = true
		res.Reason = reason
		res.Err = err
		return res
	}

	planes, err := o.provider.Planes(ch.Whitened, o.cfg.Search.QRange, o.cfg.Search.FrequencyRange)
	if err != nil {
		log.Printf("channel %s: tiling failed: %v", ch.Name, err)
		return drop(DropFailed, StateFailed, err)
	}

	outcome, err := Search(planes, o.cfg.Window, o.cfg.Search)
	if errors.Is(err, ErrNoPeak) {
		log.Printf("channel %s: %v", ch.Name, err)
		return drop(DropFailed, StateFailed, err)
	}
	if err != nil {
		return drop(DropFailed, StateFailed, err)
	}

	res.Plane = outcome.Plane
	res.Q = outcome.Plane.Q
	res.PeakEnergy = outcome.PeakEnergy
	res.PeakSNR = outcome.PeakSNR
	res.PeakTime = outcome.PeakTime
	res.PeakFrequency = outcome.PeakFrequency
	res.Threshold = outcome.Threshold

	if !outcome.Significant(ch.AlwaysInclude) {
		return drop(DropInsignificant, StateInsignificant, nil)
	}
	res.State = StateRefining

	meta := MetaFromOutcome(outcome, o.cfg.Search.FrequencyRange)
	res.Whitened, err = BuildEventgram(outcome.Plane, o.cfg.SNRThreshold, meta)
	if err != nil {
		log.Printf("channel %s: whitened eventgram: %v", ch.Name, err)
		return drop(DropFailed, StateFailed, err)
	}

	// Second pass: re-tile the less-processed series with Q pinned to the
	// winning value and extract the refined eventgram from it. This is a
	// deliberate two-phase protocol with distinct inputs, not a repeat of
	// the first pass.
	pinned := tiling.QRange{Min: res.Q, Max: res.Q}
	rawPlanes, err := o.provider.Planes(ch.Highpassed, pinned, o.cfg.Search.FrequencyRange)
	if err != nil {
		log.Printf("channel %s: pinned tiling failed: %v", ch.Name, err)
		return drop(DropFailed, StateFailed, err)
	}
	rawPlane := rawPlanes.Next()
	if rawPlane == nil {
		return drop(DropFailed, StateFailed, fmt.Errorf("pinned tiling yielded no plane for Q=%.1f", res.Q))
	}
	res.Raw, err = BuildEventgram(rawPlane, o.cfg.SNRThreshold, meta)
	if err != nil {
		log.Printf("channel %s: raw eventgram: %v", ch.Name, err)
		return drop(DropFailed, StateFailed, err)
	}

	res.State = StateDone
	return res
}
