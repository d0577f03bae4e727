package render

import "github.com/charmbracelet/lipgloss"

// Style 是一组组件样式，渲染器在构造时选定。
type Style struct {
	Body lipgloss.Style
}

// Theme 汇总所有组件使用的样式。
type Theme struct {
	UserHeader      lipgloss.Style
	AssistantHeader lipgloss.Style
	Body            Style
	Dim             lipgloss.Style
	Badge           lipgloss.Style
	AccordionTitle  lipgloss.Style
	Gutter          lipgloss.Style
	ButtonPrimary   lipgloss.Style
	ButtonDefault   lipgloss.Style
}

// DefaultTheme 返回终端默认主题。
func DefaultTheme() Theme {
	return Theme{
		UserHeader:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		AssistantHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Body:            Style{Body: lipgloss.NewStyle()},
		Dim:             lipgloss.NewStyle().Faint(true),
		Badge:           lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11")),
		AccordionTitle:  lipgloss.NewStyle().Bold(true),
		Gutter:          lipgloss.NewStyle().Faint(true),
		ButtonPrimary:   lipgloss.NewStyle().Bold(true).Reverse(true),
		ButtonDefault:   lipgloss.NewStyle().Underline(true),
	}
}
