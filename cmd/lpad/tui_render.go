package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/launchpad/internal/registry"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0af68"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
	tagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7"))
	highlightStyle = lipgloss.NewStyle().Reverse(true)
	outputBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b4261"))
)

func (m launchpadModel) View() string {
	if m.mode == modeHelp {
		return m.help.View(m.keys)
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Launchpad"))
	if len(m.running) > 0 {
		b.WriteString(" " + successStyle.Render(fmt.Sprintf("[%d running]", len(m.running))))
	}
	b.WriteString("\n")

	if m.mode == modeFilter || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderList())

	if m.outputText != "" || len(m.running) > 0 {
		b.WriteString("\n")
		b.WriteString(outputBorder.Render(m.output.View()))
	}
	b.WriteString("\n")

	switch m.mode {
	case modePrompt:
		b.WriteString(m.promptInput.View())
		b.WriteString("\n")
	case modeConfirm:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Remove %s? (y/n)", m.confirmApp)))
		b.WriteString("\n")
	case modeAddFlags:
		b.WriteString(m.renderAddFlags())
		b.WriteString("\n")
	}

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m launchpadModel) renderList() string {
	if len(m.filtered) == 0 {
		if len(m.apps) == 0 {
			return mutedStyle.Render("No applications registered. Press a to add one.") + "\n"
		}
		return mutedStyle.Render("No matching applications") + "\n"
	}

	filter := strings.TrimSpace(m.filterInput.Value())

	var b strings.Builder
	for i, d := range m.filtered {
		cursor := "  "
		name := highlightMatch(d.Name, filter)
		if i == m.cursor {
			cursor = selectedStyle.Render("> ")
			name = selectedStyle.Render(d.Name)
		}

		var tags []string
		if d.Mode == registry.ModeCLI {
			tags = append(tags, tagStyle.Render("[cli]"))
		}
		if d.TakesFileArgument {
			tags = append(tags, tagStyle.Render("[file]"))
		}
		if _, err := m.reg.ResolvePath(d); err != nil {
			tags = append(tags, errorStyle.Render("missing"))
		}
		if m.isRunning(d.Name) {
			tags = append(tags, successStyle.Render("running"))
		}
		if t, ok := m.last[d.Name]; ok {
			tags = append(tags, mutedStyle.Render(formatRelativeTime(t)))
		}

		b.WriteString(cursor + name)
		if len(tags) > 0 {
			b.WriteString(" " + strings.Join(tags, " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m launchpadModel) renderAddFlags() string {
	check := func(on bool) string {
		if on {
			return successStyle.Render("[x]")
		}
		return mutedStyle.Render("[ ]")
	}
	return fmt.Sprintf("%s -> %s  %s c: CLI  %s f: takes a file  %s",
		m.add.name, m.add.path,
		check(m.add.cli), check(m.add.fileInput),
		mutedStyle.Render("enter to save, esc to cancel"))
}

// highlightMatch reverses the first case-insensitive occurrence of filter.
func highlightMatch(text, filter string) string {
	if filter == "" {
		return text
	}
	index := strings.Index(strings.ToLower(text), strings.ToLower(filter))
	if index == -1 {
		return text
	}
	end := index + len(filter)
	return text[:index] + highlightStyle.Render(text[index:end]) + text[end:]
}

// formatRelativeTime formats a time as a short relative string.
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
