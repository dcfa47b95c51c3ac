package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/registry"
)

var setPathCmd = &cobra.Command{
	Use:   "set-path <name> <path>",
	Short: "Point an application at a new executable",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		name := args[0]
		path := registry.ExpandPath(args[1])
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		if err := a.reg.SetPath(name, path); err != nil {
			return err
		}
		d, _ := a.reg.Get(name)
		if _, err := registry.ResolvePath(d); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, path)
		return nil
	},
}
