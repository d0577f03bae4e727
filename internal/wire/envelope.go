// Package wire 定义 socket 上传输的 JSON 信封与各类载荷。
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind 是信封的 event 字段。
type EventKind string

const (
	EventConnectionEstablished EventKind = "connection_established"
	EventProcessingSession     EventKind = "processing_session"
	EventAgentResponse         EventKind = "agent_response"
	// EventIngestMessage 只用于出站信封。
	EventIngestMessage EventKind = "ingest_message"
)

// PayloadType 是 data.type 判别字段。
type PayloadType string

const (
	PayloadToken          PayloadType = "token"
	PayloadMessage        PayloadType = "message"
	PayloadDone           PayloadType = "done"
	PayloadFileSearchCall PayloadType = "file_search_call"
	PayloadWebSearchCall  PayloadType = "web_search_call"
	PayloadFunctionCall   PayloadType = "function_call"
	PayloadAgentSwitch    PayloadType = "agent_switch"
	PayloadToolCall       PayloadType = "tool_call"
	PayloadToolOutput     PayloadType = "tool_output"
	PayloadHandoff        PayloadType = "handoff"
	PayloadError          PayloadType = "error"
)

// ErrUnknownPayload 表示 data.type 不在已声明的集合内。
var ErrUnknownPayload = errors.New("unknown payload type")

// Envelope 是一条入站消息：{event, data}。
// Data 保留原始 JSON，按需再解码为具体载荷。
type Envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// New 将载荷编码为信封，主要用于测试与录制回放。
func New(event EventKind, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// Parse 解析单条 JSON 信封。
func Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, errors.New("decode envelope: missing event")
	}
	return env, nil
}

// PayloadType 只读取 data.type，不解码其余字段。
// data 缺失或不是对象时返回空字符串。
func (e Envelope) PayloadType() PayloadType {
	if len(e.Data) == 0 {
		return ""
	}
	var head struct {
		Type PayloadType `json:"type"`
	}
	if err := json.Unmarshal(e.Data, &head); err != nil {
		return ""
	}
	return head.Type
}

// Payload 根据 event 与 data.type 解码为具体载荷。
func (e Envelope) Payload() (Payload, error) {
	switch e.Event {
	case EventConnectionEstablished:
		var p ConnectionEstablished
		if err := e.decodeInto(&p); err != nil {
			return nil, err
		}
		return p, nil
	case EventProcessingSession:
		var p ProcessingSession
		if err := e.decodeInto(&p); err != nil {
			return nil, err
		}
		return p, nil
	case EventAgentResponse:
	default:
		return nil, fmt.Errorf("%w: event %q", ErrUnknownPayload, e.Event)
	}

	typ := e.PayloadType()
	var p Payload
	switch typ {
	case PayloadToken:
		p = &Token{}
	case PayloadMessage:
		p = &Message{}
	case PayloadDone:
		return Done{}, nil
	case PayloadFileSearchCall, PayloadWebSearchCall:
		p = &SearchCall{}
	case PayloadFunctionCall:
		p = &FunctionCall{}
	case PayloadAgentSwitch:
		p = &AgentSwitch{}
	case PayloadToolCall:
		p = &ToolCall{}
	case PayloadToolOutput:
		p = &ToolOutput{}
	case PayloadHandoff:
		p = &Handoff{}
	case PayloadError:
		p = &Error{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayload, typ)
	}
	if err := e.decodeInto(p); err != nil {
		return nil, err
	}
	return deref(p), nil
}

func (e Envelope) decodeInto(dst any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *Token:
		return *v
	case *Message:
		return *v
	case *SearchCall:
		return *v
	case *FunctionCall:
		return *v
	case *AgentSwitch:
		return *v
	case *ToolCall:
		return *v
	case *ToolOutput:
		return *v
	case *Handoff:
		return *v
	case *Error:
		return *v
	}
	return p
}
