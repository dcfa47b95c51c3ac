package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/grovetools/tend/pkg/command"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
	"github.com/grovetools/tend/pkg/verify"
)

// findLpadBinary returns the lpad binary under test: $LPAD_BINARY, then
// bin/lpad at the module root, then lpad on PATH.
func findLpadBinary() (string, error) {
	if bin := os.Getenv("LPAD_BINARY"); bin != "" {
		return filepath.Abs(bin)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			candidate := filepath.Join(dir, "bin", "lpad")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	bin, err := exec.LookPath("lpad")
	if err != nil {
		return "", fmt.Errorf("lpad binary not found; run make build or set LPAD_BINARY")
	}
	return bin, nil
}

// setupWorkspace writes an isolated settings file and registry location
// and stores the lpad arguments that select them.
func setupWorkspace(ctx *harness.Context) error {
	root := filepath.Join(ctx.RootDir, "lpad")
	scripts := filepath.Join(root, "scripts")
	if err := fs.CreateDir(scripts); err != nil {
		return err
	}

	settings := filepath.Join(root, "config.toml")
	content := fmt.Sprintf(`registry_file = %q
history_file = %q
record_history = true
log_level = "error"
`, filepath.Join(root, "apps.yml"), filepath.Join(root, "history.db"))
	if err := fs.WriteString(settings, content); err != nil {
		return err
	}

	ctx.Set("settings", settings)
	ctx.Set("scripts", scripts)
	return nil
}

// writeScript creates an executable shell script in the workspace.
func writeScript(ctx *harness.Context, name, body string) (string, error) {
	path := filepath.Join(ctx.GetString("scripts"), name)
	if err := fs.WriteString(path, "#!/bin/sh\n"+body+"\n"); err != nil {
		return "", err
	}
	if err := os.Chmod(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

type lpadResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// lpad runs the binary under test against the workspace settings.
func lpad(ctx *harness.Context, args ...string) (*lpadResult, error) {
	bin, err := findLpadBinary()
	if err != nil {
		return nil, err
	}
	full := append([]string{"--config", ctx.GetString("settings")}, args...)
	cmd := command.New(bin, full...).Dir(ctx.RootDir)
	result := cmd.Run()
	ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
	return &lpadResult{Stdout: result.Stdout, Stderr: result.Stderr, ExitCode: result.ExitCode}, nil
}

// lpadOK runs lpad and fails unless it exits 0.
func lpadOK(ctx *harness.Context, args ...string) (*lpadResult, error) {
	result, err := lpad(ctx, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("lpad %v exited %d: %s", args, result.ExitCode, result.Stderr)
	}
	return result, nil
}

// LpadAddListScenario registers a script and checks that list shows it.
func LpadAddListScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "lpad-add-list",
		Description: "Registers a script and lists it with its mode",
		Steps: []harness.Step{
			harness.NewStep("Setup workspace", setupWorkspace),
			harness.NewStep("Add a CLI script", func(ctx *harness.Context) error {
				path, err := writeScript(ctx, "hello.sh", `echo "hello $1"`)
				if err != nil {
					return err
				}
				_, err = lpadOK(ctx, "add", path, "--name", "Hello", "--cli")
				return err
			}),
			harness.NewStep("Adding the same name again fails", func(ctx *harness.Context) error {
				path := filepath.Join(ctx.GetString("scripts"), "hello.sh")
				result, err := lpad(ctx, "add", path, "--name", "Hello")
				if err != nil {
					return err
				}
				if result.ExitCode == 0 {
					return fmt.Errorf("duplicate add succeeded")
				}
				return nil
			}),
			harness.NewStep("List shows the application", func(ctx *harness.Context) error {
				result, err := lpadOK(ctx, "list")
				if err != nil {
					return err
				}
				return ctx.Verify(func(v *verify.Collector) {
					v.Contains("list names the app", result.Stdout, "Hello")
					v.Contains("list shows the capture mode", result.Stdout, "cli")
				})
			}),
		},
	}
}

// LpadRunCapturedScenario runs a CLI script and checks captured output.
func LpadRunCapturedScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "lpad-run-captured",
		Description: "Runs a CLI application and streams its output",
		Steps: []harness.Step{
			harness.NewStep("Setup workspace", setupWorkspace),
			harness.NewStep("Register the script", func(ctx *harness.Context) error {
				path, err := writeScript(ctx, "hello.sh", `echo "hello $1"; echo "warn" >&2`)
				if err != nil {
					return err
				}
				_, err = lpadOK(ctx, "add", path, "--name", "Hello", "--cli")
				return err
			}),
			harness.NewStep("Run passes extra arguments through", func(ctx *harness.Context) error {
				result, err := lpadOK(ctx, "run", "Hello", "--", "world")
				if err != nil {
					return err
				}
				return ctx.Verify(func(v *verify.Collector) {
					v.Contains("stdout carries the output", result.Stdout, "hello world")
					v.Contains("stderr carries the error stream", result.Stderr, "warn")
					v.Contains("footer reports the exit", result.Stderr, "--- Process Finished (exit 0) ---")
				})
			}),
			harness.NewStep("Unknown application fails", func(ctx *harness.Context) error {
				result, err := lpad(ctx, "run", "Nope")
				if err != nil {
					return err
				}
				if result.ExitCode == 0 {
					return fmt.Errorf("run of an unknown app succeeded")
				}
				return nil
			}),
		},
	}
}

// LpadRunExitHistoryScenario checks exit code propagation and that every
// captured run is recorded as finished.
func LpadRunExitHistoryScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "lpad-run-exit-history",
		Description: "Propagates a failing exit code and records it in history",
		Steps: []harness.Step{
			harness.NewStep("Setup workspace", setupWorkspace),
			harness.NewStep("Register a failing script", func(ctx *harness.Context) error {
				path, err := writeScript(ctx, "fail.sh", "exit 3")
				if err != nil {
					return err
				}
				_, err = lpadOK(ctx, "add", path, "--name", "Fail", "--cli")
				return err
			}),
			harness.NewStep("Run exits with the child's code", func(ctx *harness.Context) error {
				for i := 0; i < 3; i++ {
					result, err := lpad(ctx, "run", "Fail")
					if err != nil {
						return err
					}
					if result.ExitCode != 3 {
						return fmt.Errorf("run %d: expected exit 3, got %d", i, result.ExitCode)
					}
				}
				return nil
			}),
			harness.NewStep("History records every exit", func(ctx *harness.Context) error {
				result, err := lpadOK(ctx, "history", "-n", "10")
				if err != nil {
					return err
				}
				return ctx.Verify(func(v *verify.Collector) {
					v.Contains("history names the app", result.Stdout, "Fail")
					v.NotContains("no launch is left running", result.Stdout, "running")
				})
			}),
		},
	}
}

// LpadRunFileArgumentScenario checks the single file argument contract.
func LpadRunFileArgumentScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "lpad-run-file-argument",
		Description: "Passes a file as the only argument and rejects extras",
		Steps: []harness.Step{
			harness.NewStep("Setup workspace", setupWorkspace),
			harness.NewStep("Register a file viewer", func(ctx *harness.Context) error {
				path, err := writeScript(ctx, "view.sh", `echo "viewing $# $1"`)
				if err != nil {
					return err
				}
				if err := fs.WriteString(filepath.Join(ctx.RootDir, "notes.txt"), "notes\n"); err != nil {
					return err
				}
				_, err = lpadOK(ctx, "add", path, "--name", "Viewer", "--cli", "--file-input")
				return err
			}),
			harness.NewStep("Run passes the file", func(ctx *harness.Context) error {
				notes := filepath.Join(ctx.RootDir, "notes.txt")
				result, err := lpadOK(ctx, "run", "Viewer", "--file", notes)
				if err != nil {
					return err
				}
				return ctx.Verify(func(v *verify.Collector) {
					v.Contains("exactly one argument is passed", result.Stdout, "viewing 1 "+notes)
				})
			}),
			harness.NewStep("Extra arguments are rejected", func(ctx *harness.Context) error {
				notes := filepath.Join(ctx.RootDir, "notes.txt")
				result, err := lpad(ctx, "run", "Viewer", "--file", notes, "--", "extra")
				if err != nil {
					return err
				}
				if result.ExitCode == 0 {
					return fmt.Errorf("run with extra arguments succeeded")
				}
				return ctx.Verify(func(v *verify.Collector) {
					v.NotContains("the app never started", result.Stdout, "viewing")
				})
			}),
		},
	}
}
