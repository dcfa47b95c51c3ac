package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/grovetools/launchpad/internal/registry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	idGUI, err := s.RecordStart(ctx, Entry{App: "Editor", Path: "/usr/bin/gedit", Args: []string{"/tmp/a.txt"}, Mode: registry.ModeGUI, StartedAt: base})
	if err != nil {
		t.Fatalf("RecordStart failed: %v", err)
	}
	if idGUI == "" {
		t.Fatal("Expected a generated id")
	}

	idCLI, err := s.RecordStart(ctx, Entry{App: "Echo", Path: "/bin/echo", Mode: registry.ModeCLI, StartedAt: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("RecordStart failed: %v", err)
	}
	ended := base.Add(2 * time.Minute)
	if err := s.RecordExit(ctx, idCLI, 3, ended); err != nil {
		t.Fatalf("RecordExit failed: %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	code := 3
	want := []Entry{
		{ID: idCLI, App: "Echo", Path: "/bin/echo", Mode: registry.ModeCLI, StartedAt: base.Add(time.Minute), EndedAt: &ended, ExitCode: &code},
		{ID: idGUI, App: "Editor", Path: "/usr/bin/gedit", Args: []string{"/tmp/a.txt"}, Mode: registry.ModeGUI, StartedAt: base},
	}
	opt := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, entries, opt); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}

	limited, _ := s.Recent(ctx, 1)
	if len(limited) != 1 || limited[0].ID != idCLI {
		t.Errorf("Expected only the newest entry, got %+v", limited)
	}
}

func TestRecordExitUnknown(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordExit(context.Background(), "missing", 0, time.Now()); err == nil {
		t.Error("Expected an error for an unknown launch id")
	}
}

func TestRecordFailure(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.RecordStart(ctx, Entry{App: "Gone", Path: "/nope", Error: "failed to launch /nope: not found"}); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.Recent(ctx, 5)
	if len(entries) != 1 || entries[0].Error == "" || entries[0].ExitCode != nil {
		t.Errorf("Expected a failed launch without exit code, got %+v", entries)
	}
}

func TestLastLaunchedAndSort(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Now().Add(-time.Hour)
	s.RecordStart(ctx, Entry{App: "B", Path: "/b", StartedAt: base})
	s.RecordStart(ctx, Entry{App: "C", Path: "/c", StartedAt: base.Add(time.Minute)})
	s.RecordStart(ctx, Entry{App: "B", Path: "/b", StartedAt: base.Add(2 * time.Minute)})

	last, err := s.LastLaunched(ctx)
	if err != nil {
		t.Fatalf("LastLaunched failed: %v", err)
	}
	if !last["B"].Equal(base.Add(2 * time.Minute)) {
		t.Errorf("Expected B's latest launch, got %v", last["B"])
	}

	apps := []registry.Descriptor{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	var got []string
	for _, d := range SortByRecent(apps, last) {
		got = append(got, d.Name)
	}
	if diff := cmp.Diff([]string{"B", "C", "A", "D"}, got); diff != "" {
		t.Errorf("Sort order mismatch (-want +got):\n%s", diff)
	}
	if apps[0].Name != "A" {
		t.Error("SortByRecent must not modify its input")
	}
}
