// Package stream 把入站信封投影为解析事件，并维护 {finalized, current} 状态机。
package stream

import (
	"github.com/tidwall/gjson"

	"agentchat/internal/logger"
	"agentchat/internal/wire"
)

var log = logger.Named("stream")

// Artifact 是 function_call 参数中携带的产物描述。
type Artifact struct {
	ArtifactType string
	Title        string
	Body         string
}

// Parsed 是单条信封的解析结果。
// Kind 为空表示 connection_established/processing_session 的占位标记。
type Parsed struct {
	Event wire.EventKind
	Kind  wire.PayloadType
	Text  string
	Call  Artifact
}

// Decode 将信封投影为 Parsed；第二个返回值为 false 表示该信封被忽略。
// 不会 panic，未知或格式错误的载荷一律返回 false。
func Decode(env wire.Envelope) (Parsed, bool) {
	switch env.Event {
	case wire.EventConnectionEstablished, wire.EventProcessingSession:
		return Parsed{Event: env.Event}, true
	case wire.EventAgentResponse:
	default:
		return Parsed{}, false
	}

	payload, err := env.Payload()
	if err != nil {
		log.WithError(err).Debug("skip undecodable payload")
		return Parsed{}, false
	}

	out := Parsed{Event: env.Event}
	switch p := payload.(type) {
	case wire.Token:
		out.Kind, out.Text = wire.PayloadToken, p.Delta
	case wire.Message:
		out.Kind, out.Text = wire.PayloadMessage, p.Text()
	case wire.Done:
		out.Kind = wire.PayloadDone
	case wire.SearchCall:
		out.Kind = p.Type
	case wire.FunctionCall:
		call, ok := parseArtifact(p.Arguments)
		if !ok {
			log.WithField("call_id", p.CallID).Debug("skip function_call with malformed arguments")
			return Parsed{}, false
		}
		out.Kind, out.Call = wire.PayloadFunctionCall, call
	case wire.AgentSwitch:
		out.Kind, out.Text = wire.PayloadAgentSwitch, p.Agent
	default:
		log.WithField("type", wire.TypeOf(payload)).Debug("ignore payload")
		return Parsed{}, false
	}
	return out, true
}

func parseArtifact(arguments string) (Artifact, bool) {
	if !gjson.Valid(arguments) {
		return Artifact{}, false
	}
	args := gjson.Parse(arguments)
	if !args.IsObject() {
		return Artifact{}, false
	}
	return Artifact{
		ArtifactType: args.Get("artifact_type").String(),
		Title:        args.Get("title").String(),
		Body:         args.Get("body").String(),
	}, true
}
