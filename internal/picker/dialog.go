package picker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DialogOptions configures the zenity and kdialog backends.
type DialogOptions struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	// Dir is where the file dialog opens.
	Dir string `mapstructure:"dir"`
}

// Zenity shows a GTK file chooser.
type Zenity struct {
	opts DialogOptions
}

// NewZenity returns a zenity picker.
func NewZenity(opts DialogOptions) *Zenity {
	if opts.Command == "" {
		opts.Command = "zenity"
	}
	return &Zenity{opts: opts}
}

func (z *Zenity) Name() string { return "zenity" }

func (z *Zenity) PickExecutable(ctx context.Context, prompt string) (string, error) {
	return z.pick(ctx, prompt)
}

func (z *Zenity) PickFile(ctx context.Context, prompt string) (string, error) {
	return z.pick(ctx, prompt)
}

func (z *Zenity) pick(ctx context.Context, prompt string) (string, error) {
	args := append([]string{"--file-selection", "--title=" + prompt}, z.opts.Args...)
	if z.opts.Dir != "" {
		args = append(args, "--filename="+strings.TrimSuffix(expandHome(z.opts.Dir), "/")+"/")
	}
	return runDialog(ctx, z.opts.Command, args)
}

// Kdialog shows a KDE file chooser.
type Kdialog struct {
	opts DialogOptions
}

// NewKdialog returns a kdialog picker.
func NewKdialog(opts DialogOptions) *Kdialog {
	if opts.Command == "" {
		opts.Command = "kdialog"
	}
	return &Kdialog{opts: opts}
}

func (k *Kdialog) Name() string { return "kdialog" }

func (k *Kdialog) PickExecutable(ctx context.Context, prompt string) (string, error) {
	return k.pick(ctx, prompt)
}

func (k *Kdialog) PickFile(ctx context.Context, prompt string) (string, error) {
	return k.pick(ctx, prompt)
}

func (k *Kdialog) pick(ctx context.Context, prompt string) (string, error) {
	dir := k.opts.Dir
	if dir == "" {
		dir = "~"
	}
	args := append([]string{"--getopenfilename", expandHome(dir), "--title", prompt}, k.opts.Args...)
	return runDialog(ctx, k.opts.Command, args)
}

// runDialog runs a dialog tool that prints the chosen path on stdout and
// exits with status 1 when dismissed.
func runDialog(ctx context.Context, command string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := exitCancelled(err, 1); IsCancelled(err) {
			return "", err
		}
		return "", fmt.Errorf("%s failed: %w", command, err)
	}

	choice := strings.TrimSpace(string(out))
	if choice == "" {
		return "", ErrCancelled
	}
	return choice, nil
}
