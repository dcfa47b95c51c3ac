package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/registry"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent launches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.history == nil {
			return errors.New("launch history is disabled (record_history = false or the database could not be opened)")
		}

		entries, err := a.history.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No launches recorded yet")
			return nil
		}

		failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			exit := ""
			switch {
			case e.Error != "":
				exit = failStyle.Render("failed")
			case e.ExitCode != nil:
				exit = fmt.Sprintf("%d", *e.ExitCode)
				if *e.ExitCode != 0 {
					exit = failStyle.Render(exit)
				}
			case e.Mode == registry.ModeCLI:
				exit = "running"
			}

			detail := strings.Join(e.Args, " ")
			if e.Error != "" {
				detail = e.Error
			}
			rows = append(rows, []string{
				e.StartedAt.Local().Format("2006-01-02 15:04:05"),
				e.App,
				e.Mode.String(),
				exit,
				detail,
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Started", "App", "Mode", "Exit", "Args").
			Rows(rows...)
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of launches to show")
}
