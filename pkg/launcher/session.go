package launcher

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Session is one captured run of an external program. It is created
// running and becomes exited exactly once; it is never reused.
//
// The caller must drain Events (or call Wait) until it is closed. Reader
// goroutines block on the event channel, so an abandoned session stalls the
// child once its pipe buffers fill.
type Session struct {
	id        string
	path      string
	args      []string
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	log       *logrus.Entry

	events chan Event
	done   chan struct{}

	mu       sync.Mutex
	state    State
	exitCode int
	endedAt  time.Time
}

// LaunchCaptured starts path with stdout and stderr piped into a new
// Session and returns immediately. If the process cannot be started a
// *LaunchError is returned and no session exists. ctx only bounds the
// start; the session itself runs until the process exits or Kill is called.
func (l *Launcher) LaunchCaptured(ctx context.Context, path string, args []string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	// Held across Start so two callers cannot both pass the active check.
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.concurrent && len(l.active) > 0 {
		return nil, ErrSessionActive
	}

	cmd := exec.Command(path, args...)
	if l.env != nil {
		cmd.Env = l.env
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, &LaunchError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		l.log.WithError(err).WithField("path", path).Warn("Captured launch failed")
		return nil, &LaunchError{Path: path, Err: err}
	}

	s := &Session{
		id:        uuid.New().String(),
		path:      path,
		args:      append([]string(nil), args...),
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		state:     StateRunning,
	}
	s.log = l.log.WithFields(logrus.Fields{
		"session": s.id,
		"path":    path,
		"args":    strings.Join(args, " "),
		"pid":     s.pid,
	})
	l.active[s.id] = s

	s.log.Info("Captured process started")

	go s.run(stdout, stderr, l.chunkSize, l.release)

	return s, nil
}

// run pumps both streams to EOF, reaps the child and then emits the exit
// event as the last event before closing the channel.
func (s *Session) run(stdout, stderr io.Reader, chunkSize int, release func(*Session)) {
	var g errgroup.Group
	g.Go(func() error { return s.pump(stdout, EventOutput, chunkSize) })
	g.Go(func() error { return s.pump(stderr, EventError, chunkSize) })
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Warn("Reading process output failed")
	}

	waitErr := s.cmd.Wait()
	code := exitCode(s.cmd.ProcessState, waitErr)

	s.mu.Lock()
	s.state = StateExited
	s.exitCode = code
	s.endedAt = time.Now()
	s.mu.Unlock()

	release(s)
	s.log.WithField("exit_code", code).Info("Captured process exited")

	s.events <- Event{Kind: EventExit, ExitCode: code}
	close(s.events)
	close(s.done)
}

func (s *Session) pump(r io.Reader, kind EventKind, chunkSize int) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.events <- Event{Kind: kind, Data: string(buf[:n])}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// PID returns the process id of the child.
func (s *Session) PID() int { return s.pid }

// Path returns the executable the session runs.
func (s *Session) Path() string { return s.path }

// Args returns the arguments the executable was started with.
func (s *Session) Args() []string { return append([]string(nil), s.args...) }

// StartedAt returns when the process was started.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Events returns the event channel. It is closed right after the exit event.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the session has exited and its last event was queued.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExitCode returns the exit code once the session has exited, -1 before.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateExited {
		return -1
	}
	return s.exitCode
}

// EndedAt returns when the process exited; zero while running.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Kill terminates the process and everything in its process group. The
// exit event is still delivered. Killing an exited session is a no-op.
func (s *Session) Kill() error {
	if s.State() == StateExited {
		return nil
	}
	s.log.Info("Killing captured process")
	if err := killProcessGroup(s.cmd); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return err
	}
	return nil
}

// Wait dispatches events to h on the calling goroutine until the exit event
// was handled. It returns ctx.Err() if ctx ends first; the session keeps
// running in that case and Wait may be called again.
func (s *Session) Wait(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				return nil
			}
			Dispatch(h, ev)
			if ev.Kind == EventExit {
				return nil
			}
		}
	}
}

func exitCode(state *os.ProcessState, err error) int {
	if state != nil {
		return state.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
