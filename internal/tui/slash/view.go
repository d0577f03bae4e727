package slash

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C4A1FF"))
	usageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	descStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EBCB8B"))
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2F2A3D"))
)

const minPopupWidth = 20

// View 渲染弹窗内容（不含外围边框），每条命令占一行。
func (s *State) View(width int) string {
	if s == nil || !s.open {
		return ""
	}
	if width < minPopupWidth {
		width = minPopupWidth
	}
	if len(s.matches) == 0 {
		return descStyle.Render("no matches")
	}

	nameWidth := 0
	for _, m := range s.matches {
		if w := runewidth.StringWidth(m.item.DisplayName()); w > nameWidth {
			nameWidth = w
		}
	}
	start, end := window(len(s.matches), s.selected, s.maxLines)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := s.entryLine(s.matches[i], nameWidth, width)
		if i == s.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// entryLine 拼出 "名称  用法  描述"，描述按剩余宽度截断。
func (s *State) entryLine(m match, nameWidth, width int) string {
	name := m.item.DisplayName()
	var b strings.Builder
	b.WriteString(highlight(name, m.highlights))
	b.WriteString(strings.Repeat(" ", nameWidth-runewidth.StringWidth(name)+2))
	used := nameWidth + 2
	if m.item.Usage != "" {
		b.WriteString(usageStyle.Render(m.item.Usage))
		b.WriteString("  ")
		used += runewidth.StringWidth(m.item.Usage) + 2
	}
	if rest := width - used; rest > 1 {
		b.WriteString(descStyle.Render(runewidth.Truncate(m.item.Description, rest, "…")))
	}
	return b.String()
}

// window 返回包含 selected 的可见区间 [start, end)。
func window(total, selected, maxLines int) (int, int) {
	if maxLines <= 0 || total <= maxLines {
		return 0, total
	}
	start := 0
	if selected >= maxLines {
		start = selected - maxLines + 1
	}
	return start, start + maxLines
}

func highlight(name string, indexes []int) string {
	if len(indexes) == 0 {
		return nameStyle.Render(name)
	}
	marked := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		marked[idx] = true
	}
	var b strings.Builder
	for i, r := range []rune(name) {
		if marked[i] {
			b.WriteString(highlightStyle.Render(string(r)))
			continue
		}
		b.WriteString(nameStyle.Render(string(r)))
	}
	return b.String()
}
