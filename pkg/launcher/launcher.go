package launcher

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultChunkSize is the largest chunk a single output event carries.
const DefaultChunkSize = 4096

// Launcher starts processes and tracks the captured sessions it created.
type Launcher struct {
	log        *logrus.Entry
	concurrent bool
	chunkSize  int
	env        []string

	mu     sync.Mutex
	active map[string]*Session
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets the logger used for launch and exit records.
func WithLogger(entry *logrus.Entry) Option {
	return func(l *Launcher) {
		if entry != nil {
			l.log = entry
		}
	}
}

// WithConcurrent allows more than one captured session at a time. Without
// it a second LaunchCaptured fails with ErrSessionActive.
func WithConcurrent(enabled bool) Option {
	return func(l *Launcher) {
		l.concurrent = enabled
	}
}

// WithChunkSize bounds the size of output and error events.
func WithChunkSize(n int) Option {
	return func(l *Launcher) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

// WithEnv replaces the environment of launched processes. By default they
// inherit the environment of the current process.
func WithEnv(env []string) Option {
	return func(l *Launcher) {
		l.env = env
	}
}

// New creates a Launcher.
func New(opts ...Option) *Launcher {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	l := &Launcher{
		log:       logrus.NewEntry(quiet),
		chunkSize: DefaultChunkSize,
		active:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Active returns the captured sessions that have not exited yet.
func (l *Launcher) Active() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	sessions := make([]*Session, 0, len(l.active))
	for _, s := range l.active {
		sessions = append(sessions, s)
	}
	return sessions
}

// Concurrent reports whether independent captured sessions are allowed.
func (l *Launcher) Concurrent() bool {
	return l.concurrent
}

func (l *Launcher) release(s *Session) {
	l.mu.Lock()
	delete(l.active, s.id)
	l.mu.Unlock()
}
