package launcher

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LaunchDetached starts path as an independent process and returns without
// waiting for it. The child gets its own process group and the null device
// as stdio; it is reaped in the background.
func (l *Launcher) LaunchDetached(ctx context.Context, path string, args []string) (*ProcessHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	cmd := exec.Command(path, args...)
	if l.env != nil {
		cmd.Env = l.env
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err == nil {
		defer devNull.Close()
		cmd.Stdin = devNull
		cmd.Stdout = devNull
		cmd.Stderr = devNull
	}
	detach(cmd)

	if err := cmd.Start(); err != nil {
		l.log.WithError(err).WithField("path", path).Warn("Detached launch failed")
		return nil, &LaunchError{Path: path, Err: err}
	}

	handle := &ProcessHandle{
		PID:       cmd.Process.Pid,
		Path:      path,
		Args:      append([]string(nil), args...),
		StartedAt: time.Now(),
	}

	log := l.log.WithFields(logrus.Fields{
		"path": path,
		"args": strings.Join(args, " "),
		"pid":  handle.PID,
	})
	log.Info("Detached process started")

	go func() {
		err := cmd.Wait()
		log.WithField("exit_code", exitCode(cmd.ProcessState, err)).Debug("Detached process exited")
	}()

	return handle, nil
}
