package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/scribe/internal/tui/viewmodel"
)

// View renders the review screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	review := m.review()
	var sections []string

	sections = append(sections, m.renderHeader(review))
	if review.Present {
		for i, section := range review.Sections {
			sections = append(sections, m.renderSection(section, i))
		}
	} else {
		sections = append(sections, m.theme.Faint.Render("Nenhuma extração em revisão."))
	}

	if m.mode != ModeBrowse {
		sections = append(sections, m.renderEditor(review))
	}
	if m.status != "" {
		sections = append(sections, m.renderStatus())
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(review viewmodel.Review) string {
	title := m.theme.Title.Render("Revisão do prontuário")
	patient := m.theme.Subtitle.Render("Paciente: " + orPlaceholder(review.Patient, "nenhum"))

	summary := m.theme.FieldName.Render("Resumo: ")
	if review.Summary == "" {
		summary += m.theme.Faint.Render("vazio")
	} else {
		summary += m.theme.Normal.Render(review.Summary)
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return m.theme.BorderedBox.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, patient, summary))
}

func (m Model) renderSection(section viewmodel.Section, index int) string {
	active := index == m.cursor.Section
	heading := fmt.Sprintf("%s (%d)", section.Title, len(section.Items))
	if active {
		heading = "▸ " + heading
	} else {
		heading = "  " + heading
	}

	lines := []string{m.theme.Section.Render(heading)}
	if len(section.Items) == 0 {
		lines = append(lines, "    "+m.theme.Faint.Render("nenhum item"))
	}
	for _, item := range section.Items {
		selected := active && item.Index == m.cursor.Item
		lines = append(lines, m.renderItem(item, selected))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderItem(item viewmodel.Item, selected bool) string {
	parts := make([]string, 0, len(item.Fields))
	for i, field := range item.Fields {
		value := field.Value
		if value == "" {
			value = m.theme.Faint.Render("vazio")
		}
		text := m.theme.FieldName.Render(field.Label+": ") + value
		if selected && i == m.cursor.Field {
			text = m.theme.Selected.Render(field.Label + ": " + orPlaceholder(field.Value, "vazio"))
		}
		parts = append(parts, text)
	}

	prefix := "    "
	line := strings.Join(parts, " │ ")
	if selected {
		prefix = "  ● "
		line = m.theme.Highlighted.Render(line)
	}
	return fmt.Sprintf("%s%d. %s", prefix, item.Index+1, line)
}

func (m Model) renderEditor(review viewmodel.Review) string {
	label := "Resumo"
	if m.mode == ModeEditField {
		if item, ok := review.Selected(m.cursor); ok && m.cursor.Field < len(item.Fields) {
			label = fmt.Sprintf("%s %d · %s", review.Sections[m.cursor.Section].Title, item.Index+1, item.Fields[m.cursor.Field].Label)
		}
	}
	return m.theme.Input.Render(m.theme.FieldName.Render(label) + "\n" + m.input.View())
}

func (m Model) renderStatus() string {
	switch m.statusKind {
	case statusSuccess:
		return m.theme.StatusSuccess.Render("✓ " + m.status)
	case statusWarning:
		return m.theme.StatusWarning.Render("! " + m.status)
	case statusError:
		return m.theme.StatusError.Render("✗ " + m.status)
	default:
		return m.theme.StatusInfo.Render(m.status)
	}
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
