package tui

import (
	"github.com/Veraticus/scribe/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Width       int
	Height      int
	ShowHelp    bool
	QuitOnApply bool
	AltScreen   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Width:       100,
		Height:      30,
		QuitOnApply: true,
		AltScreen:   true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithQuitOnApply controls whether a finished commit closes the review.
func WithQuitOnApply(enabled bool) Option {
	return func(c *Config) {
		c.QuitOnApply = enabled
	}
}

// WithAltScreen controls whether the review takes over the whole terminal.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
