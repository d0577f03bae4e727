// Package message 定义历史记录消息及其与视图单元之间的转换。
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"agentchat/internal/wire"
)

// Sender 标识消息方向。
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// 助手输出的类型。
const (
	OutputMessage        = "message"
	OutputFileSearchCall = "file_search_call"
	OutputWebSearchCall  = "web_search_call"
	OutputFunctionCall   = "function_call"

	StatusCompleted = "completed"
	ContentText     = "output_text"
)

// Attachment 是消息附带的文件元数据。
type Attachment struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// Wire 转换为出站 ingest_message 中的附件格式。
func (a Attachment) Wire() wire.Attachment {
	return wire.Attachment{Type: a.Type, Name: a.Name, MimeType: a.MimeType, Size: a.Size}
}

// OutputContent 是助手输出中的一段内容。
type OutputContent struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Annotations []any  `json:"annotations"`
}

// Output 是助手消息的 output 字段。
type Output struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Role      string          `json:"role,omitempty"`
	Content   []OutputContent `json:"content,omitempty"`
	Name      string          `json:"name,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Arguments string          `json:"arguments,omitempty"`
}

// Text 返回第一段 output_text 的文本。
func (o Output) Text() (string, bool) {
	for _, c := range o.Content {
		if c.Type == ContentText {
			return c.Text, true
		}
	}
	return "", false
}

// Body 是消息内容的两种形态之一：UserBody 或 AssistantBody。
type Body interface {
	Sender() Sender
	attachments() []Attachment
}

// UserBody 是用户输入。
type UserBody struct {
	Content     string
	Attachments []Attachment
}

// AssistantBody 是助手输出。
type AssistantBody struct {
	Output      Output
	Attachments []Attachment
}

func (UserBody) Sender() Sender      { return SenderUser }
func (AssistantBody) Sender() Sender { return SenderAssistant }

func (b UserBody) attachments() []Attachment      { return b.Attachments }
func (b AssistantBody) attachments() []Attachment { return b.Attachments }

// Record 是历史接口返回、也由本地 turn 提交产生的一条消息。
type Record struct {
	ID             string
	CreatedAt      string
	UserID         string
	OrganizationID string
	AssistantID    string
	SessionID      string
	AccountID      string
	Body           Body
}

// Sender 由 Body 的具体类型决定。
func (r Record) Sender() Sender {
	if r.Body == nil {
		return ""
	}
	return r.Body.Sender()
}

// Attachments 返回消息附件。
func (r Record) Attachments() []Attachment {
	if r.Body == nil {
		return nil
	}
	return r.Body.attachments()
}

type inputJSON struct {
	Content string `json:"content"`
}

type recordJSON struct {
	ID             string       `json:"id"`
	CreatedAt      string       `json:"created_at,omitempty"`
	Sender         Sender       `json:"sender"`
	Input          *inputJSON   `json:"input"`
	Output         *Output      `json:"output"`
	Attachments    []Attachment `json:"attachments"`
	UserID         string       `json:"user_id"`
	OrganizationID string       `json:"organization_id"`
	AssistantID    string       `json:"assistant_id"`
	SessionID      string       `json:"session_id"`
	AccountID      string       `json:"account_id"`
}

// MarshalJSON 输出历史接口格式：input 与 output 恰有一个非 null。
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		Attachments:    r.Attachments(),
		UserID:         r.UserID,
		OrganizationID: r.OrganizationID,
		AssistantID:    r.AssistantID,
		SessionID:      r.SessionID,
		AccountID:      r.AccountID,
	}
	switch b := r.Body.(type) {
	case UserBody:
		out.Sender = SenderUser
		out.Input = &inputJSON{Content: b.Content}
	case AssistantBody:
		out.Sender = SenderAssistant
		o := b.Output
		out.Output = &o
	default:
		return nil, errors.New("message record without body")
	}
	if out.Attachments == nil {
		out.Attachments = []Attachment{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 按 sender 分派；sender 未知时按 input/output 是否存在判断。
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	sender := in.Sender
	if sender != SenderUser && sender != SenderAssistant {
		switch {
		case in.Input != nil:
			sender = SenderUser
		case in.Output != nil:
			sender = SenderAssistant
		default:
			return fmt.Errorf("message %q: neither input nor output present", in.ID)
		}
	}

	*r = Record{
		ID:             in.ID,
		CreatedAt:      in.CreatedAt,
		UserID:         in.UserID,
		OrganizationID: in.OrganizationID,
		AssistantID:    in.AssistantID,
		SessionID:      in.SessionID,
		AccountID:      in.AccountID,
	}
	switch sender {
	case SenderUser:
		body := UserBody{Attachments: in.Attachments}
		if in.Input != nil {
			body.Content = in.Input.Content
		}
		r.Body = body
	case SenderAssistant:
		if in.Output == nil {
			return fmt.Errorf("message %q: assistant message without output", in.ID)
		}
		r.Body = AssistantBody{Output: *in.Output, Attachments: in.Attachments}
	}
	return nil
}

// WithSession 返回带上账户与会话 id 的副本，不修改入参。
func WithSession(records []Record, accountID, sessionID string) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		rec.AccountID = accountID
		rec.SessionID = sessionID
		out[i] = rec
	}
	return out
}

// WireAttachments 转换为 ingest_message 的附件列表。
func WireAttachments(atts []Attachment) []wire.Attachment {
	if len(atts) == 0 {
		return nil
	}
	out := make([]wire.Attachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, a.Wire())
	}
	return out
}
