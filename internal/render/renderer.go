package render

import (
	"errors"
	"fmt"
	"strings"

	"agentchat/internal/view"
)

// ErrUnknownComponent 表示注册表中没有节点类型对应的组件。
var ErrUnknownComponent = errors.New("unknown component")

// DefaultWidth 是未配置宽度时的排版宽度。
const DefaultWidth = 80

// Options 配置 Renderer；零值使用默认注册表与宽度。
type Options struct {
	Width    int
	Markdown bool
	Registry *Registry
	Theme    *Theme
}

// Renderer 把节点树渲染为 Output。相同的树总是得到相同的输出。
type Renderer struct {
	registry Registry
	width    int
	ctx      BuildContext
}

// New 创建 Renderer。
func New(opts Options) *Renderer {
	reg := DefaultRegistry()
	if opts.Registry != nil {
		reg = *opts.Registry
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	ctx := BuildContext{Theme: theme, Markdown: opts.Markdown}
	if opts.Markdown {
		ctx.md = newMarkdown()
	}
	return &Renderer{registry: reg, width: width, ctx: ctx}
}

// Width 返回排版宽度。
func (r *Renderer) Width() int { return r.width }

// WithWidth 返回共享注册表与主题、宽度不同的 Renderer。
func (r *Renderer) WithWidth(width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	cp := *r
	cp.width = width
	return &cp
}

// Output 是一次渲染的结果。
type Output struct {
	Lines []Line
}

// Empty 在没有任何行时返回 true。
func (o Output) Empty() bool { return len(o.Lines) == 0 }

// Strings 返回带样式的行。
func (o Output) Strings() []string { return LinesToStrings(o.Lines) }

// PlainStrings 返回不含样式的行。
func (o Output) PlainStrings() []string { return LinesToPlainStrings(o.Lines) }

// String 以换行拼接带样式的行。
func (o Output) String() string { return strings.Join(o.Strings(), "\n") }

// Render 渲染节点树；nil 得到空输出。
// 未注册的组件类型返回 ErrUnknownComponent，本次渲染整体失败。
func (r *Renderer) Render(node view.Node) (Output, error) {
	root, err := r.Build(node)
	if err != nil {
		return Output{}, err
	}
	var buf Buffer
	root.Render(Rect{Width: r.width}, &buf)
	return Output{Lines: buf.Lines}, nil
}

// Build 只构建 Renderable 树，不排版。
func (r *Renderer) Build(node view.Node) (Renderable, error) {
	if node == nil {
		return empty{}, nil
	}
	component, ok := r.registry.Lookup(node.Tag())
	if !ok {
		log.WithField("tag", node.Tag()).WithField("id", node.NodeID()).Error("no component registered for tag")
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, node.Tag())
	}
	kids := view.Children(node)
	children := make([]Renderable, 0, len(kids))
	for _, kid := range kids {
		child, err := r.Build(kid)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return component(r.ctx, node, children), nil
}
