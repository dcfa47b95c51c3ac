package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/grovetools/launchpad/internal/history"
	"github.com/grovetools/launchpad/internal/registry"
	"github.com/grovetools/launchpad/internal/runner"
	"github.com/grovetools/launchpad/pkg/launcher"
)

// maxOutput bounds the text kept in the output pane; older text is dropped.
const maxOutput = 1 << 20

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive launcher (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func runTUI(cmd *cobra.Command) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	m := newLaunchpadModel(ctx, a)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running launcher: %w", err)
	}
	return nil
}

type viewMode int

const (
	modeList viewMode = iota
	modeFilter
	modePrompt
	modeConfirm
	modeAddFlags
	modeHelp
)

type promptKind int

const (
	promptRepairPath promptKind = iota
	promptFile
	promptAddPath
	promptAddName
	promptEditPath
)

// runningSession is a captured session and the application it belongs to
type runningSession struct {
	app     string
	session *launcher.Session
}

// pendingAdd collects the answers of the add dialog
type pendingAdd struct {
	path      string
	name      string
	cli       bool
	fileInput bool
}

// launchpadModel is the model for the interactive launcher
type launchpadModel struct {
	ctx     context.Context
	runner  *runner.Runner
	reg     *registry.Registry
	history *history.Store

	apps     []registry.Descriptor
	filtered []registry.Descriptor
	last     map[string]time.Time
	cursor   int

	mode        viewMode
	filterInput textinput.Model
	promptInput textinput.Model
	prompt      promptKind
	promptApp   string

	// Launch waiting for a file argument
	pendingDesc registry.Descriptor
	pendingPath string

	add        pendingAdd
	confirmApp string

	output     viewport.Model
	outputText string
	running    []runningSession
	concurrent bool

	status    string
	statusErr bool

	help   help.Model
	keys   launchpadKeyMap
	width  int
	height int
}

func newLaunchpadModel(ctx context.Context, a *app) launchpadModel {
	fi := textinput.New()
	fi.Placeholder = "Type to filter..."
	fi.Prompt = "/ "
	fi.CharLimit = 256
	fi.Width = 50

	pi := textinput.New()
	pi.CharLimit = 4096
	pi.Width = 60

	m := launchpadModel{
		ctx:         ctx,
		runner:      a.runner,
		reg:         a.reg,
		history:     a.history,
		last:        make(map[string]time.Time),
		filterInput: fi,
		promptInput: pi,
		output:      viewport.New(80, 10),
		concurrent:  a.launcher.Concurrent(),
		help:        help.New(),
		keys:        launchpadKeys,
	}
	m.reloadApps("")

	if a.regErr != nil {
		m.setError(fmt.Errorf("%v; starting with an empty registry", a.regErr))
	}
	return m
}

func (m launchpadModel) Init() tea.Cmd {
	return fetchLastLaunchedCmd(m.history)
}

func (m launchpadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.output.Width = msg.Width
		m.output.Height = max(5, msg.Height/2-2)
		return m, nil

	case lastLaunchedMsg:
		if msg.err == nil && msg.last != nil {
			m.last = msg.last
			m.reloadApps(m.selectedName())
		}
		return m, nil

	case sessionEventMsg:
		return m.handleSessionEvent(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.handleFilterKey(msg)
		case modePrompt:
			return m.handlePromptKey(msg)
		case modeConfirm:
			return m.handleConfirmKey(msg)
		case modeAddFlags:
			return m.handleAddFlagsKey(msg)
		case modeHelp:
			return m.handleHelpKey(msg)
		default:
			return m.handleListKey(msg)
		}
	}

	// Cursor blink and similar messages for the focused input
	var cmd tea.Cmd
	switch m.mode {
	case modeFilter:
		m.filterInput, cmd = m.filterInput.Update(msg)
	case modePrompt:
		m.promptInput, cmd = m.promptInput.Update(msg)
	}
	return m, cmd
}

func (m launchpadModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.killAll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Launch):
		name := m.selectedName()
		if name == "" {
			m.setError(errors.New("no application selected"))
			return m, nil
		}
		return m.startLaunch(name)

	case key.Matches(msg, m.keys.Add):
		m.add = pendingAdd{}
		return m.openPrompt(promptAddPath, "", "Executable: ", "")

	case key.Matches(msg, m.keys.Remove):
		name := m.selectedName()
		if name == "" {
			return m, nil
		}
		m.confirmApp = name
		m.mode = modeConfirm
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		name := m.selectedName()
		if name == "" {
			return m, nil
		}
		d, _ := m.reg.Get(name)
		return m.openPrompt(promptEditPath, name, fmt.Sprintf("Path for %s: ", name), d.Path)

	case key.Matches(msg, m.keys.Kill):
		if len(m.running) == 0 {
			m.setStatus("Nothing is running")
			return m, nil
		}
		last := m.running[len(m.running)-1]
		if err := last.session.Kill(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Killing %s", last.app))
		return m, nil

	case key.Matches(msg, m.keys.ClearOutput):
		m.outputText = ""
		m.output.SetContent("")
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
		m.help.ShowAll = true
		return m, nil
	}
	return m, nil
}

func (m launchpadModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.mode = modeList
		m.applyFilter("")
		return m, nil
	case "enter":
		m.filterInput.Blur()
		m.mode = modeList
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter("")
	return m, cmd
}

func (m launchpadModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m.cancelPrompt(), nil
	case "enter":
		value := strings.TrimSpace(m.promptInput.Value())
		if value == "" {
			return m.cancelPrompt(), nil
		}
		m.promptInput.Blur()
		m.mode = modeList
		return m.submitPrompt(value)
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m launchpadModel) submitPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptRepairPath:
		d, path, saveErr, err := m.runner.Repair(m.promptApp, absPath(value))
		m.reloadApps(m.promptApp)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if saveErr != nil {
			m.setError(saveErr)
		}
		return m.continueLaunch(d, path)

	case promptFile:
		return m.startPlan(m.pendingDesc, m.pendingPath, absPath(value))

	case promptAddPath:
		m.add.path = absPath(value)
		return m.openPrompt(promptAddName, "", "Name: ", registry.DefaultName(m.add.path))

	case promptAddName:
		m.add.name = value
		m.mode = modeAddFlags
		return m, nil

	case promptEditPath:
		err := m.reg.SetPath(m.promptApp, absPath(value))
		m.reloadApps(m.promptApp)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Updated path of %s", m.promptApp))
		return m, nil
	}
	return m, nil
}

func (m launchpadModel) cancelPrompt() launchpadModel {
	m.promptInput.Blur()
	m.promptInput.SetValue("")
	m.mode = modeList
	m.pendingDesc = registry.Descriptor{}
	m.pendingPath = ""
	m.add = pendingAdd{}
	m.setStatus("Cancelled")
	return m
}

func (m launchpadModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.confirmApp
		m.confirmApp = ""
		m.mode = modeList
		err := m.reg.Remove(name)
		m.reloadApps("")
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Removed %s", name))
	case "n", "N", "esc", "q":
		m.confirmApp = ""
		m.mode = modeList
		m.setStatus("Cancelled")
	}
	return m, nil
}

func (m launchpadModel) handleAddFlagsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		m.add.cli = !m.add.cli
	case "f":
		m.add.fileInput = !m.add.fileInput
	case "esc":
		m.mode = modeList
		m.add = pendingAdd{}
		m.setStatus("Cancelled")
	case "enter":
		mode := registry.ModeGUI
		if m.add.cli {
			mode = registry.ModeCLI
		}
		d := registry.Descriptor{Name: m.add.name, Path: m.add.path, Mode: mode, TakesFileArgument: m.add.fileInput}
		name := m.add.name
		m.add = pendingAdd{}
		m.mode = modeList

		err := m.reg.Upsert(name, d)
		m.reloadApps(name)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Added %s", name))
	}
	return m, nil
}

func (m launchpadModel) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q", "enter":
		m.mode = modeList
		m.help.ShowAll = false
	case "ctrl+c":
		m.killAll()
		return m, tea.Quit
	}
	return m, nil
}

// startLaunch checks the executable of name and asks for whatever is
// missing before starting it.
func (m launchpadModel) startLaunch(name string) (tea.Model, tea.Cmd) {
	d, path, err := m.runner.Resolve(name)
	if err != nil {
		if registry.IsMissingPath(err) {
			m2, cmd := m.openPrompt(promptRepairPath, name, fmt.Sprintf("Executable for %s: ", name), d.Path)
			lm := m2.(launchpadModel)
			lm.setError(fmt.Errorf("%v, enter a new path", err))
			return lm, cmd
		}
		m.setError(err)
		return m, nil
	}
	return m.continueLaunch(d, path)
}

func (m launchpadModel) continueLaunch(d registry.Descriptor, path string) (tea.Model, tea.Cmd) {
	if d.TakesFileArgument {
		m.pendingDesc = d
		m.pendingPath = path
		return m.openPrompt(promptFile, d.Name, fmt.Sprintf("File for %s: ", d.Name), "")
	}
	return m.startPlan(d, path, "")
}

func (m launchpadModel) startPlan(d registry.Descriptor, path, file string) (tea.Model, tea.Cmd) {
	m.pendingDesc = registry.Descriptor{}
	m.pendingPath = ""

	plan, err := runner.BuildPlan(d, path, file)
	if err != nil {
		m.setError(err)
		return m, nil
	}

	res, err := m.runner.Start(m.ctx, plan)
	if err != nil {
		if errors.Is(err, launcher.ErrSessionActive) {
			m.setError(errors.New("a CLI application is still running; press K to kill it"))
			return m, nil
		}
		m.setError(err)
		return m, nil
	}

	m.last[d.Name] = time.Now()
	m.reloadApps(d.Name)

	if res.Handle != nil {
		m.setStatus(fmt.Sprintf("Launched %s (pid %d)", d.Name, res.Handle.PID))
		return m, nil
	}

	if !m.concurrent {
		m.outputText = ""
	}
	m.running = append(m.running, runningSession{app: d.Name, session: res.Session})
	m.appendOutput(fmt.Sprintf("Running %s\n", strings.TrimSpace(plan.Path+" "+strings.Join(plan.Args, " "))))
	m.setStatus(fmt.Sprintf("Running %s", d.Name))
	return m, waitForEvent(res.Session)
}

func (m launchpadModel) handleSessionEvent(msg sessionEventMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		m.dropSession(msg.session)
		return m, nil
	}

	// Chunks are labelled with their application while sessions overlap
	label := ""
	if len(m.running) > 1 {
		label = "[" + m.sessionApp(msg.session) + "] "
	}

	switch msg.event.Kind {
	case launcher.EventOutput:
		m.appendOutput(label + msg.event.Data)
	case launcher.EventError:
		m.appendOutput(label + "[ERROR] " + msg.event.Data)
	case launcher.EventExit:
		app := m.dropSession(msg.session)
		code := msg.event.ExitCode
		if m.concurrent {
			m.appendOutput(fmt.Sprintf("\n--- Process Finished: %s (exit %d) ---\n", app, code))
		} else {
			m.appendOutput(fmt.Sprintf("\n--- Process Finished (exit %d) ---\n", code))
		}
		if code != 0 {
			m.setError(fmt.Errorf("%s exited with code %d", app, code))
		} else {
			m.setStatus(fmt.Sprintf("%s finished", app))
		}
		return m, fetchLastLaunchedCmd(m.history)
	}
	return m, waitForEvent(msg.session)
}

func (m launchpadModel) openPrompt(kind promptKind, app, prompt, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.promptApp = app
	m.promptInput.Prompt = prompt
	m.promptInput.SetValue(value)
	m.promptInput.CursorEnd()
	m.mode = modePrompt
	cmd := m.promptInput.Focus()
	return m, cmd
}

func (m launchpadModel) sessionApp(s *launcher.Session) string {
	for _, r := range m.running {
		if r.session == s {
			return r.app
		}
	}
	return filepath.Base(s.Path())
}

// dropSession forgets s and returns the application it ran.
func (m *launchpadModel) dropSession(s *launcher.Session) string {
	for i, r := range m.running {
		if r.session == s {
			m.running = append(m.running[:i:i], m.running[i+1:]...)
			return r.app
		}
	}
	return filepath.Base(s.Path())
}

func (m *launchpadModel) killAll() {
	for _, r := range m.running {
		r.session.Kill()
	}
}

func (m *launchpadModel) appendOutput(s string) {
	m.outputText += s
	if len(m.outputText) > maxOutput {
		m.outputText = m.outputText[len(m.outputText)-maxOutput:]
	}
	m.output.SetContent(m.outputText)
	m.output.GotoBottom()
}

// reloadApps rebuilds the list from the registry, most recently launched
// first, and keeps the cursor on keep when it is still listed.
func (m *launchpadModel) reloadApps(keep string) {
	m.apps = history.SortByRecent(m.reg.List(), m.last)
	m.applyFilter(keep)
}

func (m *launchpadModel) applyFilter(keep string) {
	if keep == "" {
		keep = m.selectedName()
	}

	pattern := strings.TrimSpace(m.filterInput.Value())
	if pattern == "" {
		m.filtered = m.apps
	} else {
		names := make([]string, len(m.apps))
		for i, d := range m.apps {
			names[i] = d.Name
		}
		matches := fuzzy.Find(pattern, names)
		m.filtered = make([]registry.Descriptor, 0, len(matches))
		for _, match := range matches {
			m.filtered = append(m.filtered, m.apps[match.Index])
		}
	}

	m.cursor = 0
	for i, d := range m.filtered {
		if d.Name == keep {
			m.cursor = i
			break
		}
	}
}

func (m launchpadModel) selectedName() string {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return ""
	}
	return m.filtered[m.cursor].Name
}

func (m launchpadModel) isRunning(app string) bool {
	for _, r := range m.running {
		if r.app == app {
			return true
		}
	}
	return false
}

func (m *launchpadModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *launchpadModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func absPath(p string) string {
	p = registry.ExpandPath(strings.Trim(p, `"'`))
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
