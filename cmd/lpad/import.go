package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <apps_config.json>",
	Short: "Import applications from a JSON app list",
	Long: `Import applications from a JSON object of the form

  {"Name": {"path": "/usr/bin/tool", "cli": true, "file_input": false}}

Entries with the same name are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		n, err := a.reg.ImportJSON(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d application(s) into %s\n", n, a.reg.Path())
		return nil
	},
}
