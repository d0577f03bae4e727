package events

import (
	"time"

	"agentchat/internal/wire"
)

// Submission 代表进入 SQ 的一帧出站消息。
type Submission struct {
	ID        string
	Frame     wire.Outbound
	SessionID string
	Timestamp time.Time
	Metadata  map[string]string
}

// EventType 描述 EQ 中分发的事件类型。
type EventType string

const (
	// EventViewUpdated 在每条入站信封处理后发出，Payload 为会话快照。
	EventViewUpdated    EventType = "view.updated"
	EventTurnCompleted  EventType = "turn.completed"
	EventTurnFailed     EventType = "turn.failed"
	EventUserSubmitted  EventType = "user.submitted"
	EventTransportError EventType = "transport.error"
	// EventReauthRequired 表示凭据失效，UI 需要重新登录。
	EventReauthRequired EventType = "auth.reauth_required"
)

// TurnCompleted 描述一次 done 之后写入历史的内容。
type TurnCompleted struct {
	Units   int `json:"units"`
	Records int `json:"records"`
}

// TurnFailed 描述被服务端错误或传输错误中断的 turn。
type TurnFailed struct {
	Reason  string `json:"reason"`
	Partial int    `json:"partial"`
}

// UserSubmitted 描述一次已乐观写入的用户输入。
type UserSubmitted struct {
	RecordID    string `json:"record_id"`
	Content     string `json:"content"`
	Attachments int    `json:"attachments,omitempty"`
}

// TransportError 描述 socket 层错误。
type TransportError struct {
	Error        string `json:"error"`
	Unauthorized bool   `json:"unauthorized,omitempty"`
}

// Event 是 EQ 中传递的唯一消息格式，Payload 的具体结构由 Type 决定。
type Event struct {
	Type      EventType
	SessionID string
	Timestamp time.Time
	Payload   any
	Metadata  map[string]string
}
