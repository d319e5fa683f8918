package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"layered/internal/dashboard"
	"layered/internal/feed"
)

// feedMsg is a poller refresh received from the subscription.
type feedMsg struct{ update feed.Update }

// feedClosedMsg reports that the poller stopped and closed the subscription.
type feedClosedMsg struct{}

// activatedMsg is the first snapshot of a feed the user just switched on.
type activatedMsg struct{ update feed.Update }

// exportedMsg reports the outcome of a dashboard HTML export.
type exportedMsg struct {
	path string
	err  error
}

// waitForUpdate blocks on ch for the next poller update. It is re-issued after every
// feedMsg so exactly one receive is pending at a time.
func waitForUpdate(ch <-chan feed.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return feedMsg{update: u}
	}
}

// activateFeed fetches the first snapshot off the Update loop.
func activateFeed(ctx context.Context, p *feed.Poller, kind feed.Kind) tea.Cmd {
	return func() tea.Msg {
		return activatedMsg{update: p.Activate(ctx, kind)}
	}
}

func exportDashboard(s dashboard.State, path string) tea.Cmd {
	return func() tea.Msg {
		return exportedMsg{path: path, err: s.ExportHTML(path)}
	}
}
