package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// isolate points every lookup the package makes at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{EnvRegistry, EnvHistory, EnvLogLevel, EnvLogFile, EnvPicker, EnvAllowConcurrent} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source != "" {
		t.Errorf("Expected no source file, got %q", cfg.Source)
	}
	if want := filepath.Join(dir, "config", "lpad", "apps.yml"); cfg.RegistryFile != want {
		t.Errorf("RegistryFile = %q, want %q", cfg.RegistryFile, want)
	}
	if want := filepath.Join(dir, "data", "lpad", "history.db"); cfg.HistoryFile != want {
		t.Errorf("HistoryFile = %q, want %q", cfg.HistoryFile, want)
	}
	if cfg.LogLevel != "warn" || cfg.Picker != "auto" || cfg.ChunkSize != 4096 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if !cfg.RecordHistory || cfg.AllowConcurrent {
		t.Errorf("Unexpected default toggles: record=%v concurrent=%v", cfg.RecordHistory, cfg.AllowConcurrent)
	}
	if cfg.PickerOptions("fzf")["command"] != "fzf" {
		t.Errorf("Expected fzf picker defaults, got %v", cfg.PickerOptions("fzf"))
	}
}

func TestLoadUserFileMerges(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	content := `
log_level = "debug"
allow_concurrent = true
registry_file = "~/apps.yml"

[pickers.fzf]
root = "/srv"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.LogLevel != "debug" || !cfg.AllowConcurrent {
		t.Errorf("User values not applied: %+v", cfg)
	}
	if cfg.Picker != "auto" {
		t.Errorf("Unset keys should keep defaults, got picker %q", cfg.Picker)
	}
	if want := filepath.Join(dir, "apps.yml"); cfg.RegistryFile != want {
		t.Errorf("RegistryFile = %q, want %q", cfg.RegistryFile, want)
	}

	fzf := cfg.PickerOptions("fzf")
	if fzf["root"] != "/srv" {
		t.Errorf("Expected user fzf root, got %v", fzf["root"])
	}
	if fzf["command"] != "fzf" {
		t.Errorf("Expected default fzf command to survive the merge, got %v", fzf["command"])
	}
}

func TestLoadInvalidFileFallsBack(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("log_level = [oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err == nil {
		t.Fatal("Expected an error for an invalid settings file")
	}
	if cfg == nil {
		t.Fatal("Expected defaults alongside the error")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected default log level, got %q", cfg.LogLevel)
	}
}

func TestEnvPrecedence(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "lpad")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "config.toml")
	os.WriteFile(path, []byte(`picker = "zenity"`+"\nlog_level = \"error\"\n"), 0o644)
	os.WriteFile(filepath.Join(cfgDir, EnvFileName), []byte("LPAD_PICKER=fzf\nLPAD_LOG_LEVEL=info\nLPAD_HISTORY=off\n"), 0o644)
	t.Setenv(EnvLogLevel, "trace")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := map[string]interface{}{
		"picker":  cfg.Picker,
		"level":   cfg.LogLevel,
		"history": cfg.RecordHistory,
	}
	want := map[string]interface{}{
		"picker":  "fzf",
		"level":   "trace",
		"history": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Precedence mismatch (-want +got):\n%s", diff)
	}

	if _, set := os.LookupEnv(EnvPicker); set {
		t.Error("The dotenv file must not leak into the process environment")
	}
}

func TestInitUserConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	written, err := InitUserConfig(path, false)
	if err != nil {
		t.Fatalf("InitUserConfig failed: %v", err)
	}
	if written != path {
		t.Errorf("Expected %q, got %q", path, written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chunk_size") {
		t.Error("Expected the default settings to be written")
	}

	if _, err := InitUserConfig(path, false); err == nil {
		t.Error("Expected an error when the file exists and force is off")
	}
	if _, err := InitUserConfig(path, true); err != nil {
		t.Errorf("Expected force to overwrite, got %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Written defaults should load cleanly: %v", err)
	}
	if diff := cmp.Diff(Defaults().Pickers, cfg.Pickers); diff != "" {
		t.Errorf("Picker tables differ from defaults:\n%s", diff)
	}
}
