package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/registry"
)

var (
	addName      string
	addCLI       bool
	addFileInput bool
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register an application",
	Long: `Register an executable under a name. The name defaults to the file name
without its extension. An existing entry with the same name is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		path := registry.ExpandPath(args[0])
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s does not exist yet\n", path)
		}

		name := addName
		if name == "" {
			name = registry.DefaultName(path)
		}

		mode := registry.ModeGUI
		if addCLI {
			mode = registry.ModeCLI
		}

		_, existed := a.reg.Get(name)
		d := registry.Descriptor{Name: name, Path: path, Mode: mode, TakesFileArgument: addFileInput}
		if err := a.reg.Upsert(name, d); err != nil {
			return err
		}

		verb := "Added"
		if existed {
			verb = "Updated"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) -> %s\n", verb, name, mode, path)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Display name (default: file name without extension)")
	addCmd.Flags().BoolVar(&addCLI, "cli", false, "CLI tool: capture stdout and stderr")
	addCmd.Flags().BoolVar(&addFileInput, "file-input", false, "Ask for a file and pass it as the only argument")
}
