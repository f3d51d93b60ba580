// Package app wires a configuration, a device backend and a session plan into
// one run, and saves the results, event log and metrics when it ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eyesync/dlp"
	"eyesync/engine"
	"eyesync/internal/log"
	"eyesync/internal/metrics"
	"eyesync/session"
	"eyesync/trigger"
)

// Backend is an opened set of presentation devices.
type Backend struct {
	Devices engine.Devices
	// Sounds prepares tones and WAV files for Devices.Audio. Nil when audio is
	// disabled.
	Sounds session.SoundBank
	// Preload, when set, loads the plan's images before the first step.
	Preload func(paths ...string) error
	Close   func()
}

// Opener opens the presentation devices for a configuration.
type Opener func(cfg *engine.Config, clock engine.Clock, logger zerolog.Logger) (*Backend, error)

// Options are the per-run choices made on the command line.
type Options struct {
	ConfigFile string
	PlanFile   string
	Output     string
	// Task names the paradigm in logs. Defaults to the plan file name.
	Task string
	// Override is applied to the loaded configuration before validation.
	Override  func(*engine.Config)
	LogOutput io.Writer
	Now       func() time.Time
}

// Summary describes a finished or aborted run.
type Summary struct {
	Session string
	Results string
	Events  string
	Steps   int
}

// Run executes the plan. Results collected before an error are still written;
// the returned error wraps engine.ErrSessionAborted when the operator quit.
func Run(ctx context.Context, opts Options, open Opener) (Summary, error) {
	cfg, err := engine.LoadConfig(opts.ConfigFile)
	if err != nil {
		return Summary{}, err
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return Summary{}, err
		}
	}
	plan, err := session.LoadPlan(opts.PlanFile)
	if err != nil {
		return Summary{}, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	started := now()
	task := opts.Task
	if task == "" {
		task = strings.TrimSuffix(filepath.Base(opts.PlanFile), filepath.Ext(opts.PlanFile))
	}
	sum := Summary{Session: uuid.NewString()}

	log.Configure(log.Config{
		Level:   cfg.Log.Level,
		Output:  opts.LogOutput,
		File:    log.SessionFile(cfg.Log.Dir, task, started),
		Session: sum.Session,
		Task:    task,
	})
	defer log.Close()
	logger := log.WithComponent("app")
	logger.Info().Str("plan", opts.PlanFile).Int("steps", len(plan.Steps)).Msg("starting session")

	clock := engine.NewMonotonicClock()
	events := engine.NewEventLog(clock)
	encOpts := []trigger.Option{
		trigger.WithPulseWidth(cfg.Trigger.PulseWidth),
		trigger.WithLogger(log.WithComponent("trigger")),
		trigger.WithRecorder(events),
	}
	if cfg.Trigger.Device != "" {
		box, err := dlp.Open(cfg.Trigger.Device, cfg.Trigger.Baud)
		if err != nil {
			return sum, fmt.Errorf("trigger box: %w", err)
		}
		defer box.Close()
		encOpts = append(encOpts, trigger.WithOutput(box))
		logger.Info().Str("device", cfg.Trigger.Device).Msg("trigger box ready")
	} else {
		logger.Warn().Msg("no trigger device configured, running in dummy mode")
	}
	encoder := trigger.NewEncoder(cfg.TriggerTable(), encOpts...)

	backend, err := open(cfg, clock, log.WithComponent("backend"))
	if err != nil {
		return sum, err
	}
	if backend.Close != nil {
		defer backend.Close()
	}

	if backend.Preload != nil {
		if err := backend.Preload(plan.Images()...); err != nil {
			return sum, fmt.Errorf("preload images: %w", err)
		}
	}

	pctx, err := engine.NewPresentationContext(backend.Devices, encoder, clock, cfg.Style(), log.WithComponent("presenter"))
	if err != nil {
		return sum, fmt.Errorf("presentation devices: %w", err)
	}
	pctx.Events = events

	runner := &session.Runner{
		Presenter: engine.NewPresenter(pctx, cfg),
		Table:     encoder.Table(),
		Style:     cfg.Style(),
		Sounds:    backend.Sounds,
		Logger:    log.WithComponent("session"),
	}
	results, runErr := runner.Run(ctx, plan)
	sum.Steps = len(results)
	if errors.Is(runErr, engine.ErrSessionAborted) {
		logger.Warn().Int("steps", len(results)).Msg("session aborted by operator, saving partial data")
	}

	saveErr := save(&sum, opts.Output, cfg, results, events, started)
	if saveErr != nil {
		logger.Error().Err(saveErr).Msg("failed to save session data")
	} else {
		logger.Info().Str("results", sum.Results).Str("events", sum.Events).Msg("session data saved")
	}
	return sum, errors.Join(runErr, saveErr)
}

func save(sum *Summary, output string, cfg *engine.Config, results []session.Result, events *engine.EventLog, started time.Time) error {
	if output == "" {
		output = "results.csv"
	}
	sum.Results = session.StampedName(output, started)
	ext := filepath.Ext(sum.Results)
	sum.Events = strings.TrimSuffix(sum.Results, ext) + "_events" + ext

	var errs []error
	if err := session.WriteResults(sum.Results, sum.Session, results); err != nil {
		errs = append(errs, fmt.Errorf("results: %w", err))
	}
	if err := events.Save(sum.Events); err != nil {
		errs = append(errs, fmt.Errorf("event log: %w", err))
	}
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
