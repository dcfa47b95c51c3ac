package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FzfOptions configures the fzf backend.
type FzfOptions struct {
	Command    string   `mapstructure:"command"`
	Args       []string `mapstructure:"args"`
	Root       string   `mapstructure:"root"`
	MaxFiles   int      `mapstructure:"max_files"`
	ShowHidden bool     `mapstructure:"show_hidden"`
}

// Fzf lets the user fuzzy-find a file below Root.
type Fzf struct {
	opts FzfOptions
}

// NewFzf returns an fzf picker.
func NewFzf(opts FzfOptions) *Fzf {
	if opts.Command == "" {
		opts.Command = "fzf"
	}
	if opts.Root == "" {
		opts.Root = "~"
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 20000
	}
	return &Fzf{opts: opts}
}

func (f *Fzf) Name() string { return "fzf" }

func (f *Fzf) PickExecutable(ctx context.Context, prompt string) (string, error) {
	return f.pick(ctx, prompt, true)
}

func (f *Fzf) PickFile(ctx context.Context, prompt string) (string, error) {
	return f.pick(ctx, prompt, false)
}

func (f *Fzf) pick(ctx context.Context, prompt string, executables bool) (string, error) {
	root := expandHome(f.opts.Root)
	files, err := listFiles(root, f.opts.MaxFiles, f.opts.ShowHidden, executables)
	if err != nil {
		return "", err
	}

	args := append(append([]string(nil), f.opts.Args...), "--prompt", prompt+"> ")
	cmd := exec.CommandContext(ctx, f.opts.Command, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", f.opts.Command, err)
	}

	go func() {
		w := bufio.NewWriter(stdin)
		for _, file := range files {
			fmt.Fprintln(w, file)
		}
		w.Flush()
		stdin.Close()
	}()

	scanner := bufio.NewScanner(stdout)
	var choice string
	if scanner.Scan() {
		choice = strings.TrimSpace(scanner.Text())
	}
	// Drain so fzf never blocks on a full pipe before exiting.
	for scanner.Scan() {
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// 1: no match, 130: interrupted with ctrl-c or esc.
		if err := exitCancelled(err, 1, 130); IsCancelled(err) {
			return "", err
		}
		return "", fmt.Errorf("%s exited with error: %w", f.opts.Command, err)
	}

	if choice == "" {
		return "", ErrCancelled
	}
	if !filepath.IsAbs(choice) {
		choice = filepath.Join(root, choice)
	}
	return choice, nil
}

var errListFull = errors.New("file list full")

// listFiles walks root and returns regular files relative to it. Hidden
// entries are skipped unless showHidden is set; unreadable directories are
// ignored.
func listFiles(root string, max int, showHidden, executablesOnly bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if !showHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if executablesOnly {
			info, err := d.Info()
			if err != nil || info.Mode().Perm()&0o111 == 0 {
				return nil
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, rel)
		if len(files) >= max {
			return errListFull
		}
		return nil
	})
	if err != nil && !errors.Is(err, errListFull) {
		return nil, fmt.Errorf("failed to list files under %s: %w", root, err)
	}
	return files, nil
}
