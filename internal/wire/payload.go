package wire

import "strings"

// Payload 是所有已知载荷的公共接口。
type Payload interface {
	payloadType() PayloadType
}

// ConnectionEstablished 是新 socket 会话的首个事件。
type ConnectionEstablished struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
}

// ProcessingSession 表示后端开始处理某个会话。
type ProcessingSession struct {
	SessionID   string `json:"session_id"`
	AssistantID string `json:"assistant_id"`
}

// Token 携带一段流式文本增量。
type Token struct {
	Type  PayloadType `json:"type"`
	Delta string      `json:"delta"`
}

// ContentSegment 是完整 message 载荷中的一段输出文本。
type ContentSegment struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text"`
	Annotations []any  `json:"annotations,omitempty"`
}

// Message 是一次性下发的完整助手回复。
type Message struct {
	Type    PayloadType      `json:"type"`
	Status  string           `json:"status,omitempty"`
	Role    string           `json:"role,omitempty"`
	Content []ContentSegment `json:"content"`
}

// Text 按顺序拼接所有片段文本。
func (m Message) Text() string {
	var b strings.Builder
	for _, seg := range m.Content {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Done 标志一个 turn 结束，不携带字段。
type Done struct{}

// SearchCall 覆盖 file_search_call 与 web_search_call。
type SearchCall struct {
	Type   PayloadType `json:"type"`
	ID     string      `json:"id,omitempty"`
	Status string      `json:"status,omitempty"`
}

// FunctionCall 的 Arguments 是序列化后的 JSON 字符串。
type FunctionCall struct {
	Type      PayloadType `json:"type"`
	ID        string      `json:"id,omitempty"`
	CallID    string      `json:"call_id,omitempty"`
	Name      string      `json:"name,omitempty"`
	Arguments string      `json:"arguments"`
}

// AgentSwitch 表示后端切换了内部 agent。
type AgentSwitch struct {
	Type  PayloadType `json:"type"`
	Agent string      `json:"agent"`
}

// ToolCall 是旧版本服务端使用的工具调用载荷。
type ToolCall struct {
	Type     PayloadType `json:"type"`
	ToolCall struct {
		ID   string         `json:"id"`
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	} `json:"tool_call"`
}

// ToolOutput 是工具执行结果。
type ToolOutput struct {
	Type PayloadType `json:"type"`
	Tool struct {
		ID        string `json:"id"`
		CallID    string `json:"call_id"`
		RawOutput string `json:"raw_output"`
		Output    string `json:"output"`
	} `json:"tool"`
}

// Handoff 描述 agent 之间的交接（requested / completed）。
type Handoff struct {
	Type   PayloadType `json:"type"`
	Action string      `json:"action"`
	From   string      `json:"from"`
	To     string      `json:"to"`
}

// Error 是服务端报告的会话级错误。
type Error struct {
	Type      PayloadType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func (ConnectionEstablished) payloadType() PayloadType { return "" }
func (ProcessingSession) payloadType() PayloadType     { return "" }
func (Token) payloadType() PayloadType                 { return PayloadToken }
func (Message) payloadType() PayloadType               { return PayloadMessage }
func (Done) payloadType() PayloadType                  { return PayloadDone }
func (s SearchCall) payloadType() PayloadType          { return s.Type }
func (FunctionCall) payloadType() PayloadType          { return PayloadFunctionCall }
func (AgentSwitch) payloadType() PayloadType           { return PayloadAgentSwitch }
func (ToolCall) payloadType() PayloadType              { return PayloadToolCall }
func (ToolOutput) payloadType() PayloadType            { return PayloadToolOutput }
func (Handoff) payloadType() PayloadType               { return PayloadHandoff }
func (Error) payloadType() PayloadType                 { return PayloadError }

// TypeOf 返回载荷的判别类型，非 agent_response 载荷返回空字符串。
func TypeOf(p Payload) PayloadType {
	if p == nil {
		return ""
	}
	return p.payloadType()
}
