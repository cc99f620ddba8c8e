// Command ripple runs a WAV file through the spectrum-to-wave pipeline and
// logs the live wave set as it evolves.
//
// Usage:
//
//	ripple [flags] -in audio.wav
//
// Frames are processed as fast as they are decoded. The tick rate sets the
// hop between frames (sampleRate/tickRate samples) and the simulated time
// each tick advances the waves by, not a wall-clock pace. Every N ticks a
// summary of the live waves, the active amplitude range and the filter
// thresholds is logged.
//
// Examples:
//
//	ripple -in song.wav
//	ripple -config ripple.json -in song.wav -every 25
//	ripple -windows
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
	"github.com/RyanBlaney/sonido-ripple/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ripple/config"
	"github.com/RyanBlaney/sonido-ripple/logging"
	"github.com/RyanBlaney/sonido-ripple/processor"
	"github.com/RyanBlaney/sonido-ripple/propagation"
	"github.com/RyanBlaney/sonido-ripple/transcode"
	"github.com/RyanBlaney/sonido-ripple/visual/waveform"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (defaults when empty)")
	input := flag.String("in", "", "WAV file to analyze")
	every := flag.Int("every", 50, "log a summary every N ticks")
	listWindows := flag.Bool("windows", false, "list available window names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ripple [flags] -in audio.wav\n\n")
		fmt.Fprintf(os.Stderr, "Turns audio into expanding waves gated by a log-frequency pass filter.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listWindows {
		for _, w := range windowing.Types() {
			fmt.Println(w)
		}
		return
	}
	if *input == "" || *every < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "ripple: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ripple: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, *every); err != nil {
		logging.Error(err, "ripple failed", logging.Fields{"input": *input})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, input string, every int) error {
	audio, err := transcode.DecodeWAVFile(input)
	if err != nil {
		return err
	}

	if cfg.DCBlockHz > 0 {
		if err := audio.RemoveDC(cfg.DCBlockHz); err != nil {
			return err
		}
	}

	bands := cfg.BandConfig()
	if float64(audio.SampleRate) != bands.SampleRate {
		logging.Warn("Band sample rate differs from the input, using the input rate", logging.Fields{
			"configured": bands.SampleRate,
			"input":      audio.SampleRate,
		})
		bands.SampleRate = float64(audio.SampleRate)
	}

	proc, err := processor.New(cfg.Processor, bands, cfg.WaveConfig(), nil)
	if err != nil {
		return err
	}

	hop := cfg.HopSize(audio.SampleRate)
	frames, err := transcode.SliceFrames(audio, cfg.Processor.FrameSize(), hop)
	if err != nil {
		return err
	}

	logging.Info("Pipeline ready", logging.Fields{
		"input":    input,
		"duration": audio.Duration.String(),
		"frames":   len(frames),
		"hop":      hop,
		"bands":    proc.Reducer().Bands(),
	})

	summarize := func(res *processor.Result) {
		if proc.Ticks()%uint64(every) != 0 {
			return
		}
		logSummary(proc, res, cfg.Waveform)
	}

	// releases the frame producer when Run stops early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := proc.Run(ctx, transcode.StreamFrames(ctx, frames), summarize); err != nil {
		return err
	}

	stats := proc.Tracker().Stats()
	logging.Info("Done", logging.Fields{
		"ticks":    proc.Ticks(),
		"admitted": stats.Admitted,
		"gated":    stats.Gated,
		"dropped":  stats.Dropped,
		"evicted":  stats.Evicted,
	})
	return nil
}

func logSummary(proc *processor.Processor, res *processor.Result, layoutCfg waveform.Config) {
	tracker := proc.Tracker()
	thresholds := tracker.Thresholds()
	active := tracker.ActiveRange()
	_, peak := common.MinMax(res.Spectrum)

	fields := logging.Fields{
		"tick":       proc.Ticks(),
		"live":       tracker.Len(),
		"centroid":   fmt.Sprintf("%.0fHz", res.CentroidHz),
		"peak":       fmt.Sprintf("%.4f", peak),
		"low_index":  thresholds.LowIndex,
		"high_index": thresholds.HighIndex,
	}
	if !active.Empty() {
		fields["range_min"] = fmt.Sprintf("%.4f", active.Min)
		fields["range_max"] = fmt.Sprintf("%.4f", active.Max)
	}

	if layout, err := waveform.Build(res.Spectrum, tracker.Config().PassFilter, layoutCfg); err == nil {
		fields["pass_band_bins"] = layout.PassBandCount()
	}

	if newest := newestWave(tracker.Snapshot()); newest != nil {
		fields["newest_band"] = newest.DominantBand
		fields["newest_height"] = fmt.Sprintf("%.3f", newest.Height)
		fields["newest_radius"] = fmt.Sprintf("%.2f", newest.Radius)
	}

	logging.Info("Waves", fields)
}

func newestWave(views []propagation.WaveView) *propagation.WaveView {
	if len(views) == 0 {
		return nil
	}
	return &views[len(views)-1]
}
