// Package tui implements the terminal review screen where the clinician
// checks and edits an extraction before it is applied to the chart.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/tui/themes"
	"github.com/Veraticus/scribe/internal/tui/viewmodel"
)

// Mode is what keystrokes currently drive.
type Mode int

// Review modes.
const (
	ModeBrowse Mode = iota
	ModeEditField
	ModeEditSummary
)

// Result is what the review ended with.
type Result struct {
	Outcome   engine.Outcome
	Applied   bool
	Discarded bool
}

// Model holds the review screen state. Staged data lives in the session's
// store; the model only keeps the cursor and the editor.
type Model struct {
	ctx        context.Context
	session    *engine.Session
	outcome    *engine.Outcome
	theme      themes.Theme
	status     string
	help       help.Model
	input      textinput.Model
	keymap     KeyMap
	config     Config
	cursor     viewmodel.Position
	statusKind statusKind
	mode       Mode
	width      int
	height     int
	applying   bool
	discarded  bool
	quitting   bool
}

// New creates a review model over session.
func New(ctx context.Context, session *engine.Session, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 1024

	h := help.New()
	h.ShowAll = cfg.ShowHelp
	h.Width = cfg.Width

	return Model{
		ctx:     ctx,
		session: session,
		config:  cfg,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		help:    h,
		input:   input,
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Cursor returns the review cursor.
func (m Model) Cursor() viewmodel.Position {
	return m.cursor
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Result reports how the review ended.
func (m Model) Result() Result {
	r := Result{Discarded: m.discarded}
	if m.outcome != nil {
		r.Outcome = *m.outcome
		r.Applied = true
	}
	return r
}

func (m Model) review() viewmodel.Review {
	record, ok := m.session.Store().Current()
	return viewmodel.FromRecord(m.session.Guard().Active(), record, ok)
}

func (m *Model) setStatus(text string, kind statusKind) {
	m.status = text
	m.statusKind = kind
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case PatientSwitchedMsg:
		if m.session.SetActivePatient(msg.Patient) {
			m.cursor = viewmodel.Position{}
			m.mode = ModeBrowse
			m.input.Blur()
			m.applying = false
			m.setStatus("Paciente alterado: os dados em revisão foram descartados.", statusWarning)
		}
		return m, nil

	case applyResultMsg:
		return m.handleApplyResult(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode != ModeBrowse {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	if m.mode != ModeBrowse {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleApplyResult(msg applyResultMsg) (tea.Model, tea.Cmd) {
	m.applying = false
	if !msg.applied {
		m.setStatus("Nada para aplicar.", statusInfo)
		return m, nil
	}
	if msg.outcome.Stale {
		m.setStatus("Resultado descartado: o paciente foi alterado durante a gravação.", statusWarning)
		return m, nil
	}

	outcome := msg.outcome
	m.outcome = &outcome
	m.cursor = viewmodel.Position{}
	if outcome.Success {
		m.setStatus(outcome.Message, statusSuccess)
	} else {
		m.setStatus(outcome.Message, statusError)
	}

	if m.config.QuitOnApply {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) currentCategory() model.Category {
	categories := model.ReportCategories()
	return categories[m.cursor.Section%len(categories)]
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	review := m.review()
	store := m.session.Store()
	sections := len(model.ReportCategories())
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keymap.Up):
		m.cursor.Item--
	case key.Matches(msg, m.keymap.Down):
		m.cursor.Item++
	case key.Matches(msg, m.keymap.Left):
		m.cursor.Field--
	case key.Matches(msg, m.keymap.Right):
		m.cursor.Field++

	case key.Matches(msg, m.keymap.NextSection):
		m.cursor = viewmodel.Position{Section: (m.cursor.Section + 1) % sections}
	case key.Matches(msg, m.keymap.PrevSection):
		m.cursor = viewmodel.Position{Section: (m.cursor.Section + sections - 1) % sections}

	case key.Matches(msg, m.keymap.Add):
		category := m.currentCategory()
		if !store.Add(category) {
			m.setStatus("Nenhuma extração em revisão.", statusInfo)
			break
		}
		record, _ := store.Current()
		m.cursor.Item = record.Len(category) - 1
		m.cursor.Field = 0
		m.setStatus("Item adicionado.", statusInfo)

	case key.Matches(msg, m.keymap.Remove):
		if store.Remove(m.currentCategory(), m.cursor.Item) {
			m.setStatus("Item removido.", statusInfo)
		}

	case key.Matches(msg, m.keymap.Edit):
		item, ok := review.Selected(m.cursor)
		if !ok || m.cursor.Field >= len(item.Fields) {
			break
		}
		cmd = m.startEditing(ModeEditField, item.Fields[m.cursor.Field].Value)

	case key.Matches(msg, m.keymap.Summary):
		if review.Present {
			cmd = m.startEditing(ModeEditSummary, review.Summary)
		}

	case key.Matches(msg, m.keymap.Commit):
		if m.applying || store.Applying() {
			m.setStatus("Gravação já em andamento.", statusWarning)
			break
		}
		if !review.Present {
			m.setStatus("Nada para aplicar.", statusInfo)
			break
		}
		m.applying = true
		m.setStatus("Aplicando ao prontuário...", statusInfo)
		return m, applyCmd(m.ctx, m.session)

	case key.Matches(msg, m.keymap.Discard):
		if review.Present {
			m.session.Discard()
			m.discarded = true
			m.cursor = viewmodel.Position{}
			m.setStatus("Extração descartada.", statusWarning)
		}
	}

	m.cursor = m.review().Clamp(m.cursor)
	return m, cmd
}

func (m *Model) startEditing(mode Mode, value string) tea.Cmd {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.mode = ModeBrowse
		m.input.Blur()
		m.setStatus("Edição cancelada.", statusInfo)
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		value := m.input.Value()
		store := m.session.Store()
		applied := false

		if m.mode == ModeEditSummary {
			applied = store.SetSummary(value)
		} else if item, ok := m.review().Selected(m.cursor); ok && m.cursor.Field < len(item.Fields) {
			applied = store.SetField(m.currentCategory(), item.Index, item.Fields[m.cursor.Field].Name, value)
		}

		m.mode = ModeBrowse
		m.input.Blur()
		if applied {
			m.setStatus("Campo atualizado.", statusInfo)
		} else {
			m.setStatus("Valor não aplicado.", statusWarning)
		}
		m.cursor = m.review().Clamp(m.cursor)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
