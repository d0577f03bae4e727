package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#7D56F4")
	mutedColor  = lipgloss.Color("#7D7A85")
	errorColor  = lipgloss.Color("#E06C75")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor).Padding(0, 1)
	modalStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

func (m *Model) View() string {
	parts := []string{
		m.headerView(),
		m.viewport.View(),
	}
	if m.slash.Open() {
		parts = append(parts, modalStyle.Render(m.slash.View(maxInt(20, m.width-4))))
	}
	parts = append(parts,
		renderPane(m.textarea.View(), m.width),
		m.statusView(),
	)
	if footer := m.footerView(); footer != "" {
		parts = append(parts, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	title := m.title
	if title == "" {
		title = "session " + m.snap.Key.SessionID
	}
	return headerStyle.Render("agentchat · " + title)
}

func (m *Model) statusView() string {
	parts := []string{}
	if m.pending {
		parts = append(parts, m.spin.View()+" waiting for assistant")
	} else {
		parts = append(parts, "ready")
	}
	if n := len(m.files); n > 0 {
		names := make([]string, 0, n)
		for _, f := range m.files {
			names = append(names, f.Name)
		}
		parts = append(parts, fmt.Sprintf("📎 %s", strings.Join(names, ", ")))
	}
	line := mutedStyle.Width(maxInt(20, m.width)).Render(strings.Join(parts, " • "))
	if m.err != nil {
		line = lipgloss.JoinVertical(lipgloss.Left, line, errorStyle.Render("Error: "+m.err.Error()))
	}
	return line
}

// footerView 展示最近一次命令的提示，没有提示时显示快捷键。
func (m *Model) footerView() string {
	text := m.notice
	if text == "" {
		text = "Enter send • Alt+Enter newline • PgUp/PgDn scroll • / commands • Ctrl+C quit"
	}
	return mutedStyle.Width(maxInt(20, m.width)).Render(text)
}

func renderPane(body string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	return style.Render(body)
}
