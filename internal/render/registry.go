// Package render 把 view 节点树转换为终端行。
//
// 组件注册表在构建期固定：DefaultRegistry 覆盖 view 包中的全部组件类型，
// 渲染时找不到组件视为配置缺陷。
package render

import (
	"agentchat/internal/logger"
	"agentchat/internal/view"
)

var log = logger.Named("render")

// BuildContext 在构建组件时提供主题与 markdown 能力。
type BuildContext struct {
	Theme    Theme
	Markdown bool

	md *markdown
}

// Component 把单个节点及其已渲染的子节点组合为 Renderable。
// Container 的 children 按顺序给出；accordion 的 children 只包含 Embedded。
type Component func(ctx BuildContext, node view.Node, children []Renderable) Renderable

// Registry 是组件类型到实现的只读映射。
type Registry struct {
	entries map[view.Tag]Component
}

// NewRegistry 以给定条目构造注册表，之后不可修改。
func NewRegistry(entries map[view.Tag]Component) Registry {
	copied := make(map[view.Tag]Component, len(entries))
	for tag, c := range entries {
		if c != nil {
			copied[tag] = c
		}
	}
	return Registry{entries: copied}
}

// DefaultRegistry 返回内置组件注册表。
func DefaultRegistry() Registry {
	return NewRegistry(map[view.Tag]Component{
		view.TagButton:                    renderButton,
		view.TagContainer:                 renderContainer,
		view.TagChatBubble:                renderChatBubble,
		view.TagChatLoading:               renderChatLoading,
		view.TagToolCallIndicatorBadge:    renderBadge,
		view.TagFunctionToolCallAccordion: renderAccordion,
		view.TagParagraph:                 renderParagraph,
	})
}

// Lookup 返回 tag 对应的组件。
func (r Registry) Lookup(tag view.Tag) (Component, bool) {
	c, ok := r.entries[tag]
	return c, ok
}

// Tags 返回已注册的组件类型，按 view.Tags 的顺序。
func (r Registry) Tags() []view.Tag {
	var out []view.Tag
	for _, tag := range view.Tags() {
		if _, ok := r.entries[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}
