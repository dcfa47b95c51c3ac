package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/picker"
	"github.com/grovetools/launchpad/pkg/launcher"
)

var runFile string

var runCmd = &cobra.Command{
	Use:   "run <name> [-- args...]",
	Short: "Launch a registered application",
	Long: `Launch a registered application. GUI applications are started detached.
CLI applications run in the foreground: their stdout is copied to stdout,
their stderr to stderr with an [ERROR] prefix, and lpad exits with their
exit code. Interrupting lpad kills the application.

Arguments after -- are appended to the command line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		name := args[0]
		var extra []string
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			if dash == 0 {
				return errors.New("the application name must come before --")
			}
			extra = args[dash:]
		} else if len(args) > 1 {
			return fmt.Errorf("unexpected arguments %v (put program arguments after --)", args[1:])
		}

		var p picker.Picker
		if detected, err := a.picker(); err == nil {
			p = detected
		} else {
			a.log.WithError(err).Warn("No picker available")
		}
		if runFile != "" {
			p = picker.Static{File: runFile, Fallback: p}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		plan, err := a.runner.Prepare(ctx, name, p)
		if err != nil {
			if picker.IsCancelled(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
				return nil
			}
			return err
		}
		if plan.SaveErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", plan.SaveErr)
		}
		if len(extra) > 0 && plan.Descriptor.TakesFileArgument {
			return fmt.Errorf("%s takes a single file argument; arguments after -- are not allowed", plan.Name)
		}
		plan.Args = append(plan.Args, extra...)

		res, err := a.runner.Start(ctx, plan)
		if err != nil {
			return err
		}

		if res.Handle != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s (pid %d)\n", plan.Name, res.Handle.PID)
			return nil
		}

		code, err := streamSession(ctx, res.Session, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if code != 0 {
			return &exitCodeError{code: code}
		}
		return nil
	},
}

// streamSession copies session output to the terminal until the process
// exits. An interrupt kills the process; its exit is still reported.
func streamSession(ctx context.Context, s *launcher.Session, stdout, stderr io.Writer) (int, error) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		select {
		case <-sigCtx.Done():
			s.Kill()
		case <-s.Done():
		}
	}()

	fmt.Fprintf(stderr, "Running %s\n", strings.TrimSpace(s.Path()+" "+strings.Join(s.Args(), " ")))

	code := -1
	err := s.Wait(context.Background(), launcher.HandlerFuncs{
		Output: func(chunk string) { io.WriteString(stdout, chunk) },
		Error:  func(chunk string) { io.WriteString(stderr, "[ERROR] "+chunk) },
		Exit:   func(c int) { code = c },
	})
	if err != nil {
		return code, err
	}

	fmt.Fprintf(stderr, "\n--- Process Finished (exit %d) ---\n", code)
	return code, nil
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "File argument for applications that take one")
}
