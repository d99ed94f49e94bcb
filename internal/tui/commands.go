package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/scribe/internal/engine"
)

// applyCmd commits the staged record off the update loop.
func applyCmd(ctx context.Context, session *engine.Session) tea.Cmd {
	return func() tea.Msg {
		outcome, applied := session.Apply(ctx)
		return applyResultMsg{outcome: outcome, applied: applied}
	}
}
