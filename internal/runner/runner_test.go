package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/grovetools/launchpad/internal/history"
	"github.com/grovetools/launchpad/internal/picker"
	"github.com/grovetools/launchpad/internal/registry"
	"github.com/grovetools/launchpad/pkg/launcher"
)

// fakeLauncher records calls without starting anything.
type fakeLauncher struct {
	mu       sync.Mutex
	detached [][]string
	captured [][]string
	err      error
}

func (f *fakeLauncher) LaunchDetached(ctx context.Context, path string, args []string) (*launcher.ProcessHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = append(f.detached, append([]string{path}, args...))
	if f.err != nil {
		return nil, f.err
	}
	return &launcher.ProcessHandle{PID: 4242, Path: path, Args: args, StartedAt: time.Now()}, nil
}

func (f *fakeLauncher) LaunchCaptured(ctx context.Context, path string, args []string) (*launcher.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, append([]string{path}, args...))
	if f.err != nil {
		return nil, f.err
	}
	return nil, errors.New("fake launcher cannot capture")
}

func (f *fakeLauncher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detached) + len(f.captured)
}

// countingPicker answers like Static and counts questions.
type countingPicker struct {
	picker.Static
	exeAsked, fileAsked int
}

func (c *countingPicker) PickExecutable(ctx context.Context, prompt string) (string, error) {
	c.exeAsked++
	return c.Static.PickExecutable(ctx, prompt)
}

func (c *countingPicker) PickFile(ctx context.Context, prompt string) (string, error) {
	c.fileAsked++
	return c.Static.PickFile(ctx, prompt)
}

func newRegistry(t *testing.T, apps ...registry.Descriptor) *registry.Registry {
	t.Helper()
	r := registry.New(filepath.Join(t.TempDir(), "apps.yml"))
	for _, d := range apps {
		if err := r.Upsert(d.Name, d); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func existingFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCancelledFilePickStartsNothing(t *testing.T) {
	exe := existingFile(t, "viewer")
	reg := newRegistry(t, registry.Descriptor{Name: "Viewer", Path: exe, TakesFileArgument: true})
	fl := &fakeLauncher{}
	r := New(reg, fl)

	p := &countingPicker{}
	_, err := r.Launch(context.Background(), "Viewer", p)
	if !picker.IsCancelled(err) {
		t.Fatalf("Expected cancellation, got %v", err)
	}
	if p.fileAsked != 1 {
		t.Errorf("Expected one file question, got %d", p.fileAsked)
	}
	if fl.calls() != 0 {
		t.Errorf("Expected no process to be started, got %d launches", fl.calls())
	}
}

func TestLaunchGUIWithFile(t *testing.T) {
	exe := existingFile(t, "viewer")
	reg := newRegistry(t, registry.Descriptor{Name: "Viewer", Path: exe, TakesFileArgument: true})
	fl := &fakeLauncher{}
	r := New(reg, fl)

	res, err := r.Launch(context.Background(), "Viewer", picker.Static{File: "/tmp/doc.pdf"})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if res.Handle == nil || res.Handle.PID != 4242 {
		t.Errorf("Expected a detached handle, got %+v", res)
	}
	if diff := cmp.Diff([][]string{{exe, "/tmp/doc.pdf"}}, fl.detached); diff != "" {
		t.Errorf("Detached calls mismatch (-want +got):\n%s", diff)
	}
	if len(fl.captured) != 0 {
		t.Error("GUI applications must not be captured")
	}
}

func TestMissingPathRepaired(t *testing.T) {
	replacement := existingFile(t, "tool")
	reg := newRegistry(t, registry.Descriptor{Name: "Tool", Path: "/old/location/tool"})
	fl := &fakeLauncher{}
	r := New(reg, fl)

	p := &countingPicker{Static: picker.Static{Executable: replacement}}
	plan, err := r.Prepare(context.Background(), "Tool", p)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if plan.Path != replacement {
		t.Errorf("Expected repaired path %q, got %q", replacement, plan.Path)
	}
	if p.exeAsked != 1 || p.fileAsked != 0 {
		t.Errorf("Unexpected questions: exe=%d file=%d", p.exeAsked, p.fileAsked)
	}

	reloaded, err := registry.Load(reg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := reloaded.Get("Tool"); d.Path != replacement {
		t.Errorf("Expected the repaired path to be persisted, got %q", d.Path)
	}
}

func TestMissingPathCancelled(t *testing.T) {
	reg := newRegistry(t, registry.Descriptor{Name: "Tool", Path: "/old/location/tool"})
	fl := &fakeLauncher{}
	r := New(reg, fl)

	_, err := r.Launch(context.Background(), "Tool", picker.Static{})
	if !picker.IsCancelled(err) {
		t.Fatalf("Expected cancellation, got %v", err)
	}
	if fl.calls() != 0 {
		t.Error("Expected no launch after a cancelled repair")
	}
	if d, _ := reg.Get("Tool"); d.Path != "/old/location/tool" {
		t.Errorf("Cancelled repair must not change the registry, got %q", d.Path)
	}
}

func TestMissingPathWithoutPicker(t *testing.T) {
	reg := newRegistry(t, registry.Descriptor{Name: "Tool", Path: "/old/location/tool"})
	r := New(reg, &fakeLauncher{})

	_, err := r.Prepare(context.Background(), "Tool", nil)
	if !registry.IsMissingPath(err) {
		t.Errorf("Expected a missing path error, got %v", err)
	}
}

func TestUnknownApp(t *testing.T) {
	r := New(newRegistry(t), &fakeLauncher{})
	_, err := r.Launch(context.Background(), "Nope", picker.Static{})
	if !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBuildPlan(t *testing.T) {
	d := registry.Descriptor{Name: "Cat", Mode: registry.ModeCLI, TakesFileArgument: true}
	if _, err := BuildPlan(d, "/bin/cat", ""); !errors.Is(err, ErrFileRequired) {
		t.Errorf("Expected ErrFileRequired, got %v", err)
	}

	plan, err := BuildPlan(d, "/bin/cat", "/etc/hosts")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/etc/hosts"}, plan.Args); diff != "" {
		t.Errorf("Args mismatch:\n%s", diff)
	}

	d.TakesFileArgument = false
	plan, _ = BuildPlan(d, "/bin/cat", "/etc/hosts")
	if len(plan.Args) != 0 {
		t.Errorf("Expected no args without a file argument, got %v", plan.Args)
	}
}

func TestLaunchFailureRecorded(t *testing.T) {
	exe := existingFile(t, "broken")
	reg := newRegistry(t, registry.Descriptor{Name: "Broken", Path: exe})
	fl := &fakeLauncher{err: &launcher.LaunchError{Path: exe, Err: os.ErrPermission}}

	store, err := history.Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := New(reg, fl, WithRecorder(store))
	_, err = r.Launch(context.Background(), "Broken", nil)
	if !launcher.IsLaunchError(err) {
		t.Fatalf("Expected a launch error, got %v", err)
	}

	entries, _ := store.Recent(context.Background(), 10)
	if len(entries) != 1 || !strings.Contains(entries[0].Error, "permission") {
		t.Errorf("Expected the failure to be recorded, got %+v", entries)
	}
}

func TestCapturedEchoRecorded(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available, skipping")
	}

	reg := newRegistry(t, registry.Descriptor{Name: "Echo", Path: echo, Mode: registry.ModeCLI})
	store, err := history.Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := New(reg, launcher.New(), WithRecorder(store))
	plan, err := r.Prepare(context.Background(), "Echo", nil)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	plan.Args = []string{"hi"}

	res, err := r.Start(context.Background(), plan)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if res.Session == nil {
		t.Fatal("Expected a captured session for a CLI application")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out strings.Builder
	exit := -1
	err = res.Session.Wait(ctx, launcher.HandlerFuncs{
		Output: func(chunk string) { out.WriteString(chunk) },
		Exit:   func(code int) { exit = code },
	})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if out.String() != "hi\n" || exit != 0 {
		t.Errorf("Expected output %q and exit 0, got %q and %d", "hi\n", out.String(), exit)
	}

	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait for recorded exits failed: %v", err)
	}
	entries, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ExitCode == nil {
		t.Fatalf("Expected the exit to be recorded once Wait returns, got %+v", entries)
	}
	if *entries[0].ExitCode != 0 {
		t.Errorf("Expected recorded exit 0, got %d", *entries[0].ExitCode)
	}
}

func TestWaitBlocksOnRunningSession(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available, skipping")
	}

	reg := newRegistry(t, registry.Descriptor{Name: "Sleep", Path: sleep, Mode: registry.ModeCLI})
	store, err := history.Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := New(reg, launcher.New(), WithRecorder(store))
	plan, err := r.Prepare(context.Background(), "Sleep", nil)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	plan.Args = []string{"10"}

	res, err := r.Start(context.Background(), plan)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	go func() {
		for range res.Session.Events() {
		}
	}()

	short, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := r.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected Wait to time out while the session runs, got %v", err)
	}

	if err := res.Session.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait after kill failed: %v", err)
	}

	entries, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ExitCode == nil {
		t.Fatalf("Expected the killed session's exit to be recorded, got %+v", entries)
	}
}
