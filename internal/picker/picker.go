// Package picker asks the user for an executable or a file. Every backend
// returns either a path or ErrCancelled; callers must not start anything
// after a cancellation.
package picker

import (
	"context"
	"errors"
	"os/exec"
)

// ErrCancelled is returned when the user dismissed the selection.
var ErrCancelled = errors.New("selection cancelled")

// IsCancelled reports whether err means the user cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Picker selects paths on behalf of the user.
type Picker interface {
	// Name identifies the backend, e.g. "zenity".
	Name() string
	// PickExecutable asks for a program to run.
	PickExecutable(ctx context.Context, prompt string) (string, error)
	// PickFile asks for one file to pass as an argument.
	PickFile(ctx context.Context, prompt string) (string, error)
}

// exitCancelled maps the exit status dialog tools use for "closed without
// choosing" onto ErrCancelled.
func exitCancelled(err error, codes ...int) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	for _, code := range codes {
		if exitErr.ExitCode() == code {
			return ErrCancelled
		}
	}
	return err
}
