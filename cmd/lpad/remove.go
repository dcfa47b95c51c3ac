package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/picker"
)

var removeYes bool

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an application from the registry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		name := args[0]
		if _, ok := a.reg.Get(name); !ok {
			return fmt.Errorf("no application named %q", name)
		}

		if !removeYes {
			prompt := picker.NewPrompt(picker.PromptOptions{
				Stdin:  io.NopCloser(cmd.InOrStdin()),
				Stdout: cmd.OutOrStdout(),
			})
			ok, err := prompt.Confirm(cmd.Context(), fmt.Sprintf("Remove %s?", name))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		if err := a.reg.Remove(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}
