package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/registry"
)

var listStyle string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered applications",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.warnCorrupt(cmd)

		apps := a.reg.List()
		out := cmd.OutOrStdout()
		if len(apps) == 0 {
			fmt.Fprintln(out, "No applications registered. Add one with 'lpad add <path>'.")
			return nil
		}

		if listStyle == "compact" {
			nameStyle := lipgloss.NewStyle().Bold(true)
			missingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))

			var lines []string
			for _, d := range apps {
				line := fmt.Sprintf("%s (%s)", nameStyle.Render(d.Name), d.Mode)
				if _, err := registry.ResolvePath(d); err != nil {
					line += " " + missingStyle.Render("missing")
				}
				lines = append(lines, line)
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		}

		fmt.Fprintln(out, renderAppTable(apps))
		return nil
	},
}

func renderAppTable(apps []registry.Descriptor) string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	missingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))

	rows := make([][]string, 0, len(apps))
	for _, d := range apps {
		status := okStyle.Render("ok")
		if _, err := registry.ResolvePath(d); err != nil {
			status = missingStyle.Render("missing")
		}
		fileArg := ""
		if d.TakesFileArgument {
			fileArg = "yes"
		}
		rows = append(rows, []string{d.Name, d.Mode.String(), fileArg, d.Path, status})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Mode", "File", "Path", "Status").
		Rows(rows...)
	return t.String()
}

func init() {
	listCmd.Flags().StringVar(&listStyle, "style", "table", "Output style: table or compact")
}
