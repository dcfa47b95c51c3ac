package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/config"
	"github.com/grovetools/launchpad/internal/history"
	"github.com/grovetools/launchpad/internal/picker"
	"github.com/grovetools/launchpad/internal/registry"
	"github.com/grovetools/launchpad/internal/runner"
	"github.com/grovetools/launchpad/pkg/launcher"
)

// app holds everything a command needs, built from settings and flags.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	reg      *registry.Registry
	launcher *launcher.Launcher
	runner   *runner.Runner
	history  *history.Store

	// regErr is set when the registry file was corrupt; reg is empty then.
	regErr error

	closers []func() error
}

func loadApp(cmd *cobra.Command, tui bool) (*app, error) {
	cfg, cfgErr := config.Load(configFile)
	if cfg == nil {
		return nil, cfgErr
	}
	if registryFile != "" {
		cfg.RegistryFile = registry.ExpandPath(registryFile)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, logCloser, err := newLogger(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr(), tui)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger, closers: []func() error{logCloser.Close}}

	if cfgErr != nil {
		logger.WithError(cfgErr).Warn("Using default settings")
	}
	logger.WithFields(logrus.Fields{
		"settings": cfg.Source,
		"registry": cfg.RegistryFile,
	}).Debug("Settings loaded")

	reg, err := registry.Load(cfg.RegistryFile, registry.WithLogger(logger.WithField("component", "registry")))
	if err != nil {
		if !registry.IsCorrupt(err) {
			a.Close()
			return nil, err
		}
		a.regErr = err
	}
	a.reg = reg

	a.launcher = launcher.New(
		launcher.WithLogger(logger.WithField("component", "launcher")),
		launcher.WithConcurrent(cfg.AllowConcurrent),
		launcher.WithChunkSize(cfg.ChunkSize),
	)

	opts := []runner.Option{runner.WithLogger(logger.WithField("component", "runner"))}
	if cfg.RecordHistory {
		store, err := history.Open(cfg.HistoryFile, logger.WithField("component", "history"))
		if err != nil {
			logger.WithError(err).Warn("Launch history disabled")
		} else {
			a.history = store
			a.closers = append(a.closers, store.Close)
			opts = append(opts, runner.WithRecorder(store))
		}
	}
	a.runner = runner.New(reg, a.launcher, opts...)

	return a, nil
}

// warnCorrupt tells CLI users that the registry started empty.
func (a *app) warnCorrupt(cmd *cobra.Command) {
	if a.regErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; starting with an empty registry\n", a.regErr)
	}
}

func (a *app) picker() (picker.Picker, error) {
	return picker.Detect(a.cfg.Picker, a.cfg.PickerOptions)
}

// Close kills captured sessions that are still running, waits for their
// exits to be recorded and releases resources.
func (a *app) Close() {
	if a.launcher != nil {
		for _, s := range a.launcher.Active() {
			s.Kill()
		}
	}
	if a.runner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.runner.Wait(ctx); err != nil {
			a.log.WithError(err).Warn("Gave up waiting for exit records")
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
