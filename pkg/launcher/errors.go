package launcher

import (
	"errors"
	"fmt"
)

// ErrSessionActive is returned by LaunchCaptured when another captured
// session is still running and concurrent sessions are not enabled.
var ErrSessionActive = errors.New("a captured session is already running")

// LaunchError reports that the operating system refused to start a process.
// Err carries the OS reason (not found, permission denied, ...).
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError reports whether err is, or wraps, a *LaunchError.
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}
