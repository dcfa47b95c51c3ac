package picker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/google/go-cmp/cmp"
)

// fakeTool writes an executable shell script standing in for a dialog tool.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available, skipping")
	}
	path := filepath.Join(t.TempDir(), "tool")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStatic(t *testing.T) {
	ctx := context.Background()

	s := Static{Executable: "/bin/echo", File: "/tmp/a.txt"}
	if got, err := s.PickExecutable(ctx, "exe"); err != nil || got != "/bin/echo" {
		t.Errorf("PickExecutable = %q, %v", got, err)
	}
	if got, err := s.PickFile(ctx, "file"); err != nil || got != "/tmp/a.txt" {
		t.Errorf("PickFile = %q, %v", got, err)
	}

	var empty Static
	if _, err := empty.PickFile(ctx, "file"); !IsCancelled(err) {
		t.Errorf("Expected cancellation from an empty Static, got %v", err)
	}

	chained := Static{File: "/tmp/b.txt", Fallback: Static{Executable: "/bin/true"}}
	if got, _ := chained.PickExecutable(ctx, "exe"); got != "/bin/true" {
		t.Errorf("Expected fallback answer, got %q", got)
	}
}

func TestDialogBackends(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "selection", body: `echo "/home/user/report.pdf"`, want: "/home/user/report.pdf"},
		{name: "dismissed", body: `exit 1`, wantErr: ErrCancelled},
		{name: "empty output", body: `exit 0`, wantErr: ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := fakeTool(t, tt.body)
			for _, p := range []Picker{
				NewZenity(DialogOptions{Command: tool}),
				NewKdialog(DialogOptions{Command: tool}),
			} {
				got, err := p.PickFile(context.Background(), "Select file")
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("%s: expected %v, got %v", p.Name(), tt.wantErr, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", p.Name(), err)
				}
				if got != tt.want {
					t.Errorf("%s: got %q, want %q", p.Name(), got, tt.want)
				}
			}
		})
	}
}

func TestDialogFailureIsNotCancellation(t *testing.T) {
	tool := fakeTool(t, "exit 5")
	_, err := NewZenity(DialogOptions{Command: tool}).PickFile(context.Background(), "x")
	if err == nil || IsCancelled(err) {
		t.Errorf("Expected a real error for exit status 5, got %v", err)
	}
}

func TestFzf(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"a.txt", "sub/b.txt", ".hidden/c.txt"} {
		p := filepath.Join(root, f)
		os.MkdirAll(filepath.Dir(p), 0o755)
		os.WriteFile(p, []byte("x"), 0o644)
	}

	t.Run("first candidate", func(t *testing.T) {
		// Pick the line containing b.txt out of whatever was fed in.
		tool := fakeTool(t, `grep b.txt`)
		f := NewFzf(FzfOptions{Command: tool, Root: root})
		got, err := f.PickFile(context.Background(), "file")
		if err != nil {
			t.Fatalf("PickFile failed: %v", err)
		}
		if want := filepath.Join(root, "sub", "b.txt"); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	for _, code := range []string{"1", "130"} {
		t.Run("exit "+code, func(t *testing.T) {
			tool := fakeTool(t, "cat >/dev/null; exit "+code)
			_, err := NewFzf(FzfOptions{Command: tool, Root: root}).PickFile(context.Background(), "file")
			if !IsCancelled(err) {
				t.Errorf("Expected cancellation, got %v", err)
			}
		})
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]os.FileMode{
		"a.txt":         0o644,
		"bin/run":       0o755,
		"sub/deep/b.md": 0o644,
		".git/config":   0o644,
		".env":          0o644,
	}
	for name, mode := range files {
		p := filepath.Join(root, name)
		os.MkdirAll(filepath.Dir(p), 0o755)
		os.WriteFile(p, []byte("x"), mode)
	}

	got, err := listFiles(root, 100, false, false)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{"a.txt", filepath.Join("bin", "run"), filepath.Join("sub", "deep", "b.md")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Visible files mismatch (-want +got):\n%s", diff)
	}

	exes, _ := listFiles(root, 100, false, true)
	if diff := cmp.Diff([]string{filepath.Join("bin", "run")}, exes); diff != "" {
		t.Errorf("Executables mismatch (-want +got):\n%s", diff)
	}

	capped, _ := listFiles(root, 2, true, false)
	if len(capped) != 2 {
		t.Errorf("Expected the cap to stop at 2 files, got %d", len(capped))
	}
}

func TestNormalizeAnswer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line    string
		err     error
		want    string
		wantErr error
	}{
		{line: "/tmp/a.txt", want: "/tmp/a.txt"},
		{line: "  '/tmp/with space.txt'  ", want: "/tmp/with space.txt"},
		{line: "~/doc.pdf", want: filepath.Join(home, "doc.pdf")},
		{line: "./tool", want: filepath.Join(cwd, "tool")},
		{line: "bin/../run.sh", want: filepath.Join(cwd, "run.sh")},
		{line: "   ", wantErr: ErrCancelled},
		{err: readline.ErrInterrupt, wantErr: ErrCancelled},
		{err: io.EOF, wantErr: ErrCancelled},
	}
	for _, tt := range tests {
		got, err := normalizeAnswer(tt.line, tt.err)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("normalizeAnswer(%q, %v) error = %v, want %v", tt.line, tt.err, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("normalizeAnswer(%q) = %q, %v; want %q", tt.line, got, err, tt.want)
		}
	}
}

func TestPathCompleter(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "report.pdf"), nil, 0o644)
	os.WriteFile(filepath.Join(dir, "readme.md"), nil, 0o644)
	os.Mkdir(filepath.Join(dir, "reports"), 0o755)
	os.WriteFile(filepath.Join(dir, ".rc"), nil, 0o644)

	line := []rune(dir + "/rep")
	candidates, length := pathCompleter{}.Do(line, len(line))
	if length != 3 {
		t.Errorf("Expected replacement length 3, got %d", length)
	}

	var got []string
	for _, c := range candidates {
		got = append(got, string(c))
	}
	sort.Strings(got)
	want := []string{"ort.pdf", "orts" + string(filepath.Separator)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Completions mismatch (-want +got):\n%s", diff)
	}

	line = []rune(dir + "/")
	candidates, _ = pathCompleter{}.Do(line, len(line))
	for _, c := range candidates {
		if strings.HasPrefix(string(c), ".") {
			t.Errorf("Hidden entry %q offered without a dot prefix", string(c))
		}
	}
}

func TestNewAndDetect(t *testing.T) {
	t.Run("options decode weakly typed", func(t *testing.T) {
		p, err := New(BackendFzf, map[string]interface{}{
			"command":     "myfzf",
			"max_files":   "50",
			"show_hidden": 1,
			"args":        []interface{}{"--reverse"},
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		f := p.(*Fzf)
		want := FzfOptions{Command: "myfzf", Args: []string{"--reverse"}, Root: "~", MaxFiles: 50, ShowHidden: true}
		if diff := cmp.Diff(want, f.opts); diff != "" {
			t.Errorf("Decoded options mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := New("rofi", nil); err == nil {
			t.Error("Expected an error for an unknown backend")
		}
	})

	t.Run("explicit backend", func(t *testing.T) {
		p, err := Detect(BackendPrompt, nil)
		if err != nil {
			t.Fatal(err)
		}
		if p.Name() != BackendPrompt {
			t.Errorf("Expected prompt, got %s", p.Name())
		}
	})

	t.Run("auto falls back to prompt", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		t.Setenv("DISPLAY", "")
		t.Setenv("WAYLAND_DISPLAY", "")
		p, err := Detect(BackendAuto, nil)
		if err != nil {
			t.Fatal(err)
		}
		if p.Name() != BackendPrompt {
			t.Errorf("Expected prompt without any tools installed, got %s", p.Name())
		}
	})

	t.Run("auto prefers configured command", func(t *testing.T) {
		tool := fakeTool(t, "exit 1")
		t.Setenv("DISPLAY", ":0")
		p, err := Detect("", func(name string) map[string]interface{} {
			if name == BackendZenity {
				return map[string]interface{}{"command": tool}
			}
			return map[string]interface{}{"command": "/nonexistent/" + name}
		})
		if err != nil {
			t.Fatal(err)
		}
		if p.Name() != BackendZenity {
			t.Errorf("Expected zenity, got %s", p.Name())
		}
	})
}
