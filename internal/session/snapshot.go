package session

import (
	"agentchat/internal/history"
	"agentchat/internal/message"
	"agentchat/internal/view"
)

// Snapshot 是某一时刻的会话视图：已提交的历史、未提交的已完成单元和进行中的单元。
type Snapshot struct {
	Key       history.Key
	History   []message.Record
	Finalized []view.Node
	Current   view.Node
	Complete  bool
}

// Units 返回未提交的单元与进行中的单元。
func (s Snapshot) Units() []view.Node {
	out := append([]view.Node(nil), s.Finalized...)
	if s.Current != nil {
		out = append(out, s.Current)
	}
	return out
}

// Tree 组合出完整的渲染树：历史节点在前，随后是本轮的单元。
func (s Snapshot) Tree() view.Container {
	items := make([]view.Node, 0, len(s.History)+len(s.Finalized)+1)
	for _, rec := range s.History {
		if n, ok := message.ToNode(rec, rec.ID); ok {
			items = append(items, n)
		}
	}
	items = append(items, s.Units()...)
	return view.Container{ID: "session:" + s.Key.SessionID, Items: items}
}

// LastAssistantText 返回最近一条助手气泡的文本，用于复制。
// 嵌套在容器或工具折叠面板里的气泡也计入。
func (s Snapshot) LastAssistantText() (string, bool) {
	var last string
	view.Walk(s.Tree(), func(n view.Node) bool {
		if b, ok := n.(view.ChatBubble); ok && !b.IsUser && b.Content != "" {
			last = b.Content
		}
		return true
	})
	return last, last != ""
}
