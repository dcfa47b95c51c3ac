package picker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// PromptOptions configures the terminal prompt backend.
type PromptOptions struct {
	HistoryFile string `mapstructure:"history_file"`

	Stdin  io.ReadCloser `mapstructure:"-"`
	Stdout io.Writer     `mapstructure:"-"`
}

// Prompt reads a path from the terminal with tab completion. Ctrl-C,
// Ctrl-D and an empty line cancel.
type Prompt struct {
	opts PromptOptions
}

// NewPrompt returns a terminal prompt picker.
func NewPrompt(opts PromptOptions) *Prompt {
	return &Prompt{opts: opts}
}

func (p *Prompt) Name() string { return "prompt" }

func (p *Prompt) PickExecutable(ctx context.Context, prompt string) (string, error) {
	return p.pick(ctx, prompt)
}

func (p *Prompt) PickFile(ctx context.Context, prompt string) (string, error) {
	return p.pick(ctx, prompt)
}

func (p *Prompt) pick(ctx context.Context, prompt string) (string, error) {
	line, err := p.readLine(ctx, prompt+": ", pathCompleter{})
	return normalizeAnswer(line, err)
}

func (p *Prompt) readLine(ctx context.Context, prompt string, completer readline.AutoCompleter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     expandHome(p.opts.HistoryFile),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
		Stdin:           p.opts.Stdin,
		Stdout:          p.opts.Stdout,
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	line, err := rl.Readline()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return line, err
}

// Confirm asks a yes/no question on the terminal. Anything but y or yes,
// including Ctrl-C, is a no.
func (p *Prompt) Confirm(ctx context.Context, question string) (bool, error) {
	line, err := p.readLine(ctx, question+" [y/N]: ", nil)
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func normalizeAnswer(line string, err error) (string, error) {
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	line = strings.Trim(line, `"'`)
	if line == "" {
		return "", ErrCancelled
	}
	path := expandHome(line)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// pathCompleter completes the last word of the line as a filesystem path.
type pathCompleter struct{}

func (pathCompleter) Do(line []rune, pos int) ([][]rune, int) {
	typed := string(line[:pos])
	dir, prefix := filepath.Split(typed)

	lookIn := dir
	if lookIn == "" {
		lookIn = "."
	}
	entries, err := os.ReadDir(expandHome(lookIn))
	if err != nil {
		return nil, 0
	}

	var out [][]rune
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		suffix := name[len(prefix):]
		if e.IsDir() {
			suffix += string(filepath.Separator)
		}
		out = append(out, []rune(suffix))
	}
	return out, len([]rune(prefix))
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
