// Package view 定义抽象渲染节点（ViewUnit）。
//
// 每种组件是一个带显式字段的具体类型，Node 接口是封闭的：
// 包外无法新增变体，渲染注册表因此可以在构建期穷举。
package view

// Tag 是组件类型名，与注册表中的键一一对应。
type Tag string

const (
	TagButton                    Tag = "Button"
	TagContainer                 Tag = "Container"
	TagChatBubble                Tag = "ChatBubble"
	TagChatLoading               Tag = "ChatLoading"
	TagToolCallIndicatorBadge    Tag = "ToolCallIndicatorBadge"
	TagFunctionToolCallAccordion Tag = "FunctionToolCallAccordion"
	TagParagraph                 Tag = "Paragraph"
)

// Tags 返回全部已知组件类型，顺序固定。
func Tags() []Tag {
	return []Tag{
		TagButton,
		TagContainer,
		TagChatBubble,
		TagChatLoading,
		TagToolCallIndicatorBadge,
		TagFunctionToolCallAccordion,
		TagParagraph,
	}
}

// Node 是渲染树中的一个节点。
type Node interface {
	NodeID() string
	Tag() Tag
	sealed()
}

// BadgeKind 记录工具调用徽章对应的服务端调用类型。
type BadgeKind string

const (
	BadgeFileSearch BadgeKind = "file_search_call"
	BadgeWebSearch  BadgeKind = "web_search_call"
)

// Attachment 是气泡中展示的附件信息。
type Attachment struct {
	Name     string
	MimeType string
	Size     int64
}

type Button struct {
	ID      string
	Label   string
	Variant string
}

// Container 自上而下排列子节点。
type Container struct {
	ID    string
	Items []Node
}

// ChatBubble 是一条用户或助手消息；IsStreaming 为 true 时内容仍在增长。
type ChatBubble struct {
	ID          string
	Content     string
	IsUser      bool
	IsStreaming bool
	Attachments []Attachment
}

// ChatLoading 是等待后端响应时的占位指示。
type ChatLoading struct {
	ID string
}

// ToolCallIndicatorBadge 展示一次搜索类工具调用。
type ToolCallIndicatorBadge struct {
	ID   string
	Icon string
	Text string
	Kind BadgeKind
}

// FunctionToolCallAccordion 展示函数调用产出的 artifact，Embedded 为折叠区内容。
// ArtifactType/ArtifactTitle 保留原始参数，用于写回历史记录。
type FunctionToolCallAccordion struct {
	ID            string
	Title         string
	ArtifactType  string
	ArtifactTitle string
	Embedded      Node
}

type Paragraph struct {
	ID   string
	Text string
}

func (n Button) NodeID() string                    { return n.ID }
func (n Container) NodeID() string                 { return n.ID }
func (n ChatBubble) NodeID() string                { return n.ID }
func (n ChatLoading) NodeID() string               { return n.ID }
func (n ToolCallIndicatorBadge) NodeID() string    { return n.ID }
func (n FunctionToolCallAccordion) NodeID() string { return n.ID }
func (n Paragraph) NodeID() string                 { return n.ID }

func (Button) Tag() Tag                    { return TagButton }
func (Container) Tag() Tag                 { return TagContainer }
func (ChatBubble) Tag() Tag                { return TagChatBubble }
func (ChatLoading) Tag() Tag               { return TagChatLoading }
func (ToolCallIndicatorBadge) Tag() Tag    { return TagToolCallIndicatorBadge }
func (FunctionToolCallAccordion) Tag() Tag { return TagFunctionToolCallAccordion }
func (Paragraph) Tag() Tag                 { return TagParagraph }

func (Button) sealed()                    {}
func (Container) sealed()                 {}
func (ChatBubble) sealed()                {}
func (ChatLoading) sealed()               {}
func (ToolCallIndicatorBadge) sealed()    {}
func (FunctionToolCallAccordion) sealed() {}
func (Paragraph) sealed()                 {}

// Children 返回节点的直接子节点：Container 的 Items，或 accordion 的 Embedded。
func Children(n Node) []Node {
	switch v := n.(type) {
	case Container:
		return v.Items
	case FunctionToolCallAccordion:
		if v.Embedded != nil {
			return []Node{v.Embedded}
		}
	}
	return nil
}

// Walk 先序遍历节点树，fn 返回 false 时停止进入该节点的子树。
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}
