package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// 排版结果缓存的条目上限，超出后整体清空。
const maxMarkdownCache = 128

type markdownKey struct {
	width int
	text  string
}

// markdown 按换行宽度缓存 glamour renderer，并按 (宽度, 文本) 缓存排版结果。
// 同一气泡的 DesiredHeight 与 Render 共用一次排版。
type markdown struct {
	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	results   map[markdownKey][]Line
	renders   int
}

func newMarkdown() *markdown {
	return &markdown{
		renderers: map[int]*glamour.TermRenderer{},
		results:   map[markdownKey][]Line{},
	}
}

// lines 渲染 markdown；任何失败都返回 false，由调用方回退为纯文本。
func (m *markdown) lines(text string, width int) ([]Line, bool) {
	if m == nil || width <= 0 {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := markdownKey{width: width, text: text}
	if cached, ok := m.results[key]; ok {
		return cached, true
	}
	r, ok := m.renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStylePath("notty"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.WithError(err).Warn("create markdown renderer failed")
			return nil, false
		}
		m.renderers[width] = r
	}
	m.renders++
	out, err := r.Render(text)
	if err != nil {
		log.WithError(err).Debug("markdown render failed, using plain text")
		return nil, false
	}
	var lines []Line
	for _, raw := range strings.Split(out, "\n") {
		lines = append(lines, Line{Spans: []Span{{Text: strings.TrimRight(raw, " ")}}})
	}
	lines = TrimBlankLines(lines)
	if len(lines) == 0 {
		return nil, false
	}
	lines = dedent(lines)
	if len(m.results) >= maxMarkdownCache {
		clear(m.results)
	}
	m.results[key] = lines
	return lines, true
}

// dedent 去掉 glamour 文档边距带来的公共缩进。
func dedent(lines []Line) []Line {
	indent := -1
	for _, l := range lines {
		text := l.Plain()
		if strings.TrimSpace(text) == "" {
			continue
		}
		n := len(text) - len(strings.TrimLeft(text, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return lines
	}
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		text := l.Plain()
		if len(text) >= indent {
			text = text[indent:]
		} else {
			text = strings.TrimLeft(text, " ")
		}
		out = append(out, Line{Spans: []Span{{Text: text}}})
	}
	return out
}

// markdownRenderable 在渲染时按实际宽度排版 markdown。
type markdownRenderable struct {
	text  string
	md    *markdown
	style Style
}

func (m markdownRenderable) build(width int) []Line {
	if lines, ok := m.md.lines(m.text, width); ok {
		return lines
	}
	var out []Line
	for _, s := range wrapText(m.text, width) {
		out = append(out, Line{Spans: []Span{{Text: s, Style: m.style.Body}}})
	}
	return out
}

func (m markdownRenderable) Render(area Rect, buf *Buffer) {
	StaticLines(m.build(area.Width)).Render(Rect{X: area.X, Y: area.Y, Width: area.Width}, buf)
}

func (m markdownRenderable) DesiredHeight(width int) int {
	return len(m.build(width))
}
