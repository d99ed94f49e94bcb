package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	NextSection key.Binding
	PrevSection key.Binding

	// Editing
	Edit    key.Binding
	Add     key.Binding
	Remove  key.Binding
	Summary key.Binding
	Confirm key.Binding
	Cancel  key.Binding

	// Record
	Commit  key.Binding
	Discard key.Binding

	// Application
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "item anterior"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "próximo item"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "campo anterior"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "próximo campo"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "próxima seção"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "seção anterior"),
		),

		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("Enter/e", "editar campo"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "adicionar"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remover"),
		),
		Summary: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "editar resumo"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "salvar"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancelar"),
		),

		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "aplicar ao prontuário"),
		),
		Discard: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "descartar"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "ajuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/Esc", "sair"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "forçar saída"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Add, k.Remove, k.Commit, k.Discard, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.NextSection, k.PrevSection},
		{k.Edit, k.Add, k.Remove, k.Summary},
		{k.Commit, k.Discard, k.Help, k.Quit},
	}
}
