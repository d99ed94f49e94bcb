package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/scribe/internal/engine"
)

// Run shows the review screen for the session's staged record and blocks
// until the clinician applies, discards or quits.
func Run(ctx context.Context, session *engine.Session, opts ...Option) (Result, error) {
	if session == nil {
		return Result{}, fmt.Errorf("session is required")
	}

	m := New(ctx, session, opts...)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if m.config.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil {
		return Result{}, fmt.Errorf("TUI error: %w", err)
	}

	finalModel, ok := final.(Model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected TUI model type %T", final)
	}
	return finalModel.Result(), nil
}
