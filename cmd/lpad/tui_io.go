package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/launchpad/internal/history"
	"github.com/grovetools/launchpad/pkg/launcher"
)

// sessionEventMsg carries one event of a captured session into Update.
// closed is set when the event channel was already closed.
type sessionEventMsg struct {
	session *launcher.Session
	event   launcher.Event
	closed  bool
}

// lastLaunchedMsg is sent when the launch times were read from history
type lastLaunchedMsg struct {
	last map[string]time.Time
	err  error
}

// waitForEvent blocks on the session's channel off the UI loop and hands
// the next event to Update, which re-arms it until the exit event.
func waitForEvent(s *launcher.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		return sessionEventMsg{session: s, event: ev, closed: !ok}
	}
}

// fetchLastLaunchedCmd reads the most recent launch per application
func fetchLastLaunchedCmd(store *history.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		last, err := store.LastLaunched(ctx)
		return lastLaunchedMsg{last: last, err: err}
	}
}
