package stream

import (
	"github.com/google/uuid"

	"agentchat/internal/view"
	"agentchat/internal/wire"
)

// 工具调用徽章的固定文案。
const (
	FileSearchLabel = "Searching your files…"
	WebSearchLabel  = "Searching the web…"

	fileSearchIcon = "🔍"
	webSearchIcon  = "🌐"
)

// State 是一个会话的流式渲染状态。Finalized 只追加，Current 为正在构建的单元。
type State struct {
	Finalized []view.Node
	Current   view.Node
}

// Complete 在没有进行中的单元时返回 true。
func (s State) Complete() bool { return s.Current == nil }

// Units 返回 Finalized 与非空 Current 拼接后的新切片。
func (s State) Units() []view.Node {
	out := make([]view.Node, 0, len(s.Finalized)+1)
	out = append(out, s.Finalized...)
	if s.Current != nil {
		out = append(out, s.Current)
	}
	return out
}

// Reducer 推进状态机；NewID 为空时使用 uuid。
type Reducer struct {
	NewID func() string
}

func (r Reducer) id() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// Step 应用一条信封并返回新状态，不修改入参。
func (r Reducer) Step(s State, env wire.Envelope) State {
	ev, ok := Decode(env)
	if !ok {
		return s
	}

	switch ev.Event {
	case wire.EventConnectionEstablished:
		return State{}
	case wire.EventProcessingSession:
		if _, loading := s.Current.(view.ChatLoading); loading {
			return s
		}
		return State{Finalized: finalize(s), Current: view.ChatLoading{ID: r.id()}}
	}

	switch ev.Kind {
	case wire.PayloadAgentSwitch:
		return State{Finalized: finalize(s), Current: view.ChatLoading{ID: r.id()}}
	case wire.PayloadToken:
		if prev, ok := s.Current.(view.ChatBubble); ok && prev.IsStreaming && !prev.IsUser {
			prev.ID = r.id()
			prev.Content += ev.Text
			return State{Finalized: s.Finalized, Current: prev}
		}
		return State{
			Finalized: finalize(s),
			Current:   view.ChatBubble{ID: r.id(), Content: ev.Text, IsStreaming: true},
		}
	case wire.PayloadFileSearchCall:
		return State{Finalized: finalize(s), Current: SearchBadge(r.id(), view.BadgeFileSearch)}
	case wire.PayloadWebSearchCall:
		return State{Finalized: finalize(s), Current: SearchBadge(r.id(), view.BadgeWebSearch)}
	case wire.PayloadFunctionCall:
		return State{Finalized: finalize(s), Current: Accordion(r.id(), r.id(), ev.Call)}
	case wire.PayloadMessage:
		return State{
			Finalized: finalize(s),
			Current:   view.ChatBubble{ID: r.id(), Content: ev.Text},
		}
	case wire.PayloadDone:
		if s.Current == nil {
			return s
		}
		return State{Finalized: finalize(s)}
	}
	return s
}

// ForceFinalize 结束进行中的单元，用于取消和传输错误。
func ForceFinalize(s State) State {
	if s.Current == nil {
		return s
	}
	return State{Finalized: finalize(s)}
}

// SearchBadge 构造搜索类工具调用的徽章。
func SearchBadge(id string, kind view.BadgeKind) view.ToolCallIndicatorBadge {
	if kind == view.BadgeWebSearch {
		return view.ToolCallIndicatorBadge{ID: id, Icon: webSearchIcon, Text: WebSearchLabel, Kind: kind}
	}
	return view.ToolCallIndicatorBadge{ID: id, Icon: fileSearchIcon, Text: FileSearchLabel, Kind: view.BadgeFileSearch}
}

// Accordion 构造 function_call 的折叠视图，标题为 "{artifact_type} | {title}"。
func Accordion(id, bodyID string, call Artifact) view.FunctionToolCallAccordion {
	return view.FunctionToolCallAccordion{
		ID:            id,
		Title:         call.ArtifactType + " | " + call.Title,
		ArtifactType:  call.ArtifactType,
		ArtifactTitle: call.Title,
		Embedded:      view.Paragraph{ID: bodyID, Text: call.Body},
	}
}

// finalize 返回追加了 Current 的新 Finalized 切片。
// ChatLoading 直接丢弃；气泡的 IsStreaming 强制为 false。
func finalize(s State) []view.Node {
	switch cur := s.Current.(type) {
	case nil, view.ChatLoading:
		return s.Finalized
	case view.ChatBubble:
		cur.IsStreaming = false
		return appendCopy(s.Finalized, cur)
	default:
		return appendCopy(s.Finalized, cur)
	}
}

func appendCopy(units []view.Node, n view.Node) []view.Node {
	out := make([]view.Node, len(units), len(units)+1)
	copy(out, units)
	return append(out, n)
}
