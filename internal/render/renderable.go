package render

import "github.com/charmbracelet/lipgloss"

// Renderable 统一的可渲染抽象。
type Renderable interface {
	Render(area Rect, buf *Buffer)
	DesiredHeight(width int) int
}

// empty 是 render(nil) 的结果。
type empty struct{}

func (empty) Render(Rect, *Buffer)  {}
func (empty) DesiredHeight(int) int { return 0 }

// StaticLines 用于包装已准备好的行。
type StaticLines []Line

func (s StaticLines) Render(area Rect, buf *Buffer) {
	lines := []Line(s)
	if area.Height > 0 && len(lines) > area.Height {
		lines = lines[:area.Height]
	}
	for _, line := range lines {
		buf.Put(area, line)
	}
}

func (s StaticLines) DesiredHeight(int) int {
	return len(s)
}

// ColumnRenderable 垂直堆叠子元素，Gap 为子元素间的空行数。
type ColumnRenderable struct {
	children []Renderable
	Gap      int
}

// NewColumn 创建空列。
func NewColumn() *ColumnRenderable {
	return &ColumnRenderable{children: []Renderable{}}
}

// WithColumnChildren 便捷构造列。
func WithColumnChildren(children ...Renderable) *ColumnRenderable {
	c := NewColumn()
	for _, child := range children {
		c.Push(child)
	}
	return c
}

// Push 添加子元素。
func (c *ColumnRenderable) Push(child Renderable) {
	if c == nil || child == nil {
		return
	}
	c.children = append(c.children, child)
}

// Len 返回子元素数量。
func (c *ColumnRenderable) Len() int {
	if c == nil {
		return 0
	}
	return len(c.children)
}

// Render 依次渲染子元素。
func (c *ColumnRenderable) Render(area Rect, buf *Buffer) {
	if c == nil {
		return
	}
	y := area.Y
	for i, child := range c.children {
		if i > 0 && c.Gap > 0 {
			for g := 0; g < c.Gap; g++ {
				buf.Put(area, Line{})
			}
			y += c.Gap
		}
		height := child.DesiredHeight(area.Width)
		childArea := Rect{X: area.X, Y: y, Width: area.Width, Height: height}
		child.Render(childArea, buf)
		y += height
		if area.Height > 0 && y-area.Y >= area.Height {
			break
		}
	}
}

// DesiredHeight 返回所有子元素高度与间隔之和。
func (c *ColumnRenderable) DesiredHeight(width int) int {
	if c == nil {
		return 0
	}
	total := 0
	for i, child := range c.children {
		if i > 0 {
			total += c.Gap
		}
		total += child.DesiredHeight(width)
	}
	return total
}

// InsetRenderable 为子元素应用内边距。
type InsetRenderable struct {
	child  Renderable
	insets Insets
}

// NewInset 创建带内边距的 Renderable。
func NewInset(child Renderable, insets Insets) *InsetRenderable {
	return &InsetRenderable{child: child, insets: insets}
}

func (i *InsetRenderable) Render(area Rect, buf *Buffer) {
	if i == nil || i.child == nil {
		return
	}
	for t := 0; t < i.insets.Top; t++ {
		buf.Put(area, Line{})
	}
	inner := area.Inset(i.insets)
	inner.Height = 0
	i.child.Render(inner, buf)
	for b := 0; b < i.insets.Bottom; b++ {
		buf.Put(area, Line{})
	}
}

func (i *InsetRenderable) DesiredHeight(width int) int {
	if i == nil || i.child == nil {
		return 0
	}
	inner := width - i.insets.Left - i.insets.Right
	if inner < 1 {
		inner = 1
	}
	return i.child.DesiredHeight(inner) + i.insets.Top + i.insets.Bottom
}

// TextRenderable 渲染按宽度换行的文本。
type TextRenderable struct {
	Text  string
	Style lipgloss.Style
}

func (p TextRenderable) Render(area Rect, buf *Buffer) {
	for _, line := range wrapText(p.Text, area.Width) {
		buf.Put(area, Line{Spans: []Span{{Text: line, Style: p.Style}}})
	}
}

func (p TextRenderable) DesiredHeight(width int) int {
	return len(wrapText(p.Text, width))
}
