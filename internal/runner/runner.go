// Package runner implements the launch workflow: look up an application,
// make sure its executable exists (asking for a replacement if not), ask for
// a file argument when the application takes one, then start it detached or
// captured depending on its mode.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/launchpad/internal/history"
	"github.com/grovetools/launchpad/internal/picker"
	"github.com/grovetools/launchpad/internal/registry"
	"github.com/grovetools/launchpad/pkg/launcher"
)

// ErrFileRequired is returned when an application takes a file argument but
// no file was supplied.
var ErrFileRequired = errors.New("application requires a file argument")

// Launcher starts processes. *launcher.Launcher satisfies it.
type Launcher interface {
	LaunchDetached(ctx context.Context, path string, args []string) (*launcher.ProcessHandle, error)
	LaunchCaptured(ctx context.Context, path string, args []string) (*launcher.Session, error)
}

// Recorder keeps a record of launches. *history.Store satisfies it.
type Recorder interface {
	RecordStart(ctx context.Context, e history.Entry) (string, error)
	RecordExit(ctx context.Context, id string, code int, endedAt time.Time) error
}

// Plan is a fully resolved launch: an existing executable and its arguments.
type Plan struct {
	Name       string
	Descriptor registry.Descriptor
	Path       string
	Args       []string

	// SaveErr is set when a repaired path could not be persisted. The
	// launch can still go ahead.
	SaveErr error
}

// Result is a started launch. Exactly one of Handle and Session is set.
type Result struct {
	Plan      *Plan
	Handle    *launcher.ProcessHandle
	Session   *launcher.Session
	HistoryID string
}

// Runner drives launches for one registry.
type Runner struct {
	reg      *registry.Registry
	launcher Launcher
	recorder Recorder
	log      *logrus.Entry

	// pending counts captured sessions whose exit is not recorded yet
	pending sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder records every launch in rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets the logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(r *Runner) {
		if entry != nil {
			r.log = entry
		}
	}
}

// New creates a Runner.
func New(reg *registry.Registry, l Launcher, opts ...Option) *Runner {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	r := &Runner{
		reg:      reg,
		launcher: l,
		log:      logrus.NewEntry(quiet),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the runner launches from.
func (r *Runner) Registry() *registry.Registry {
	return r.reg
}

// Resolve looks up name and checks its executable. A stale path yields the
// descriptor together with a *registry.MissingPathError.
func (r *Runner) Resolve(name string) (registry.Descriptor, string, error) {
	d, ok := r.reg.Get(name)
	if !ok {
		return registry.Descriptor{}, "", fmt.Errorf("%w: %s", registry.ErrNotFound, name)
	}
	path, err := r.reg.ResolvePath(d)
	return d, path, err
}

// Repair stores a replacement executable for name and resolves it again. A
// failed save is returned as saveErr while the in-memory change stands.
func (r *Runner) Repair(name, path string) (d registry.Descriptor, resolved string, saveErr error, err error) {
	if err := r.reg.SetPath(name, path); err != nil {
		var pe *registry.PersistenceError
		if !errors.As(err, &pe) {
			return registry.Descriptor{}, "", nil, err
		}
		r.log.WithError(err).Warn("Could not persist repaired path")
		saveErr = err
	}
	r.log.WithFields(logrus.Fields{"app": name, "path": path}).Info("Executable path updated")

	d, resolved, err = r.Resolve(name)
	return d, resolved, saveErr, err
}

// BuildPlan assembles the plan for d. file is required exactly when d takes
// a file argument and ignored otherwise.
func BuildPlan(d registry.Descriptor, path, file string) (*Plan, error) {
	plan := &Plan{Name: d.Name, Descriptor: d, Path: path}
	if d.TakesFileArgument {
		if file == "" {
			return nil, ErrFileRequired
		}
		plan.Args = []string{file}
	}
	return plan, nil
}

// Prepare resolves name into a Plan, asking p for a replacement executable
// when the stored one is missing and for a file when the application takes
// one. If p reports a cancellation, picker.ErrCancelled is returned and
// nothing is started.
func (r *Runner) Prepare(ctx context.Context, name string, p picker.Picker) (*Plan, error) {
	d, path, err := r.Resolve(name)
	var saveErr error
	if err != nil {
		if !registry.IsMissingPath(err) || p == nil {
			return nil, err
		}
		r.log.WithField("app", name).Info("Executable missing, asking for a replacement")

		replacement, pickErr := p.PickExecutable(ctx, fmt.Sprintf("Select %s executable", name))
		if pickErr != nil {
			return nil, pickErr
		}
		d, path, saveErr, err = r.Repair(name, replacement)
		if err != nil {
			return nil, err
		}
	}

	var file string
	if d.TakesFileArgument {
		if p == nil {
			return nil, ErrFileRequired
		}
		file, err = p.PickFile(ctx, fmt.Sprintf("Select file for %s", name))
		if err != nil {
			return nil, err
		}
	}

	plan, err := BuildPlan(d, path, file)
	if err != nil {
		return nil, err
	}
	plan.SaveErr = saveErr
	return plan, nil
}

// Start launches plan: detached for GUI applications, captured for CLI
// applications.
func (r *Runner) Start(ctx context.Context, plan *Plan) (*Result, error) {
	log := r.log.WithFields(logrus.Fields{
		"app":  plan.Name,
		"mode": plan.Descriptor.Mode.String(),
	})
	entry := history.Entry{
		App:       plan.Name,
		Path:      plan.Path,
		Args:      plan.Args,
		Mode:      plan.Descriptor.Mode,
		StartedAt: time.Now(),
	}
	res := &Result{Plan: plan}

	var err error
	switch plan.Descriptor.Mode {
	case registry.ModeCLI:
		res.Session, err = r.launcher.LaunchCaptured(ctx, plan.Path, plan.Args)
	default:
		res.Handle, err = r.launcher.LaunchDetached(ctx, plan.Path, plan.Args)
	}
	if err != nil {
		log.WithError(err).Warn("Launch failed")
		if launcher.IsLaunchError(err) {
			entry.Error = err.Error()
			r.record(ctx, entry)
		}
		return nil, err
	}

	res.HistoryID = r.record(ctx, entry)
	if res.Session != nil && res.HistoryID != "" {
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			r.recordExit(res.Session, res.HistoryID)
		}()
	}
	log.Info("Application launched")
	return res, nil
}

// Launch is Prepare followed by Start.
func (r *Runner) Launch(ctx context.Context, name string, p picker.Picker) (*Result, error) {
	plan, err := r.Prepare(ctx, name, p)
	if err != nil {
		return nil, err
	}
	return r.Start(ctx, plan)
}

// Wait blocks until the exit of every captured session started so far has
// been recorded, or ctx ends. Call it before closing the Recorder.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) record(ctx context.Context, e history.Entry) string {
	if r.recorder == nil {
		return ""
	}
	id, err := r.recorder.RecordStart(context.WithoutCancel(ctx), e)
	if err != nil {
		r.log.WithError(err).Warn("Could not record launch")
		return ""
	}
	return id
}

func (r *Runner) recordExit(s *launcher.Session, id string) {
	<-s.Done()
	if err := r.recorder.RecordExit(context.Background(), id, s.ExitCode(), s.EndedAt()); err != nil {
		r.log.WithError(err).Warn("Could not record exit")
	}
}
