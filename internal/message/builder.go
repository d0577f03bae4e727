package message

import (
	"encoding/json"

	"github.com/google/uuid"

	"agentchat/internal/stream"
	"agentchat/internal/view"
)

// File 是待上传文件的元数据。
type File struct {
	Name     string
	MimeType string
	Size     int64
}

// BuildInput 是 Build 的参数。
type BuildInput struct {
	IsUser bool
	Text   string
	Files  []File
}

// Builder 生成消息记录；NewID 为空时使用 uuid。
type Builder struct {
	NewID func() string
}

func (b Builder) id() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

// Build 使用默认 Builder 构造消息。
func Build(in BuildInput) Record {
	return Builder{}.Build(in)
}

// Build 构造一条新消息。
// 用户消息携带 input 与附件；助手消息是 status=completed 的单段 output_text，附件为空。
func (b Builder) Build(in BuildInput) Record {
	if in.IsUser {
		atts := make([]Attachment, 0, len(in.Files))
		for _, f := range in.Files {
			atts = append(atts, Attachment{Type: "file", Name: f.Name, MimeType: f.MimeType, Size: f.Size})
		}
		return Record{ID: b.id(), Body: UserBody{Content: in.Text, Attachments: atts}}
	}
	return Record{ID: b.id(), Body: AssistantBody{
		Output:      textOutput(b.id(), in.Text),
		Attachments: []Attachment{},
	}}
}

func textOutput(id, text string) Output {
	return Output{
		ID:      id,
		Type:    OutputMessage,
		Status:  StatusCompleted,
		Role:    string(SenderAssistant),
		Content: []OutputContent{{Type: ContentText, Text: text, Annotations: []any{}}},
	}
}

// FromUnits 使用默认 Builder 转换已完成的单元。
func FromUnits(units []view.Node) []Record {
	return Builder{}.FromUnits(units)
}

// FromUnits 把一个 turn 中已完成的视图单元转换为消息记录。
// ChatLoading 与无法持久化的单元被跳过。
func (b Builder) FromUnits(units []view.Node) []Record {
	var out []Record
	for _, unit := range units {
		switch n := unit.(type) {
		case view.ChatBubble:
			if n.IsUser {
				out = append(out, Record{ID: b.id(), Body: UserBody{Content: n.Content, Attachments: fromViewAttachments(n.Attachments)}})
				continue
			}
			out = append(out, b.Build(BuildInput{Text: n.Content}))
		case view.ToolCallIndicatorBadge:
			typ := OutputFileSearchCall
			if n.Kind == view.BadgeWebSearch {
				typ = OutputWebSearchCall
			}
			out = append(out, Record{ID: b.id(), Body: AssistantBody{
				Output:      Output{ID: b.id(), Type: typ, Status: StatusCompleted},
				Attachments: []Attachment{},
			}})
		case view.FunctionToolCallAccordion:
			body := ""
			if p, ok := n.Embedded.(view.Paragraph); ok {
				body = p.Text
			}
			args, err := json.Marshal(map[string]string{
				"artifact_type": n.ArtifactType,
				"title":         n.ArtifactTitle,
				"body":          body,
			})
			if err != nil {
				continue
			}
			out = append(out, Record{ID: b.id(), Body: AssistantBody{
				Output:      Output{ID: b.id(), Type: OutputFunctionCall, Status: StatusCompleted, Arguments: string(args)},
				Attachments: []Attachment{},
			}})
		}
	}
	return out
}

// ToNode 把历史记录转换为视图节点；返回 false 表示该记录不展示。
func ToNode(rec Record, id string) (view.Node, bool) {
	switch b := rec.Body.(type) {
	case UserBody:
		if b.Content == "" && len(b.Attachments) == 0 {
			return nil, false
		}
		return view.ChatBubble{ID: id, Content: b.Content, IsUser: true, Attachments: toViewAttachments(b.Attachments)}, true
	case AssistantBody:
		switch b.Output.Type {
		case OutputMessage:
			text, ok := b.Output.Text()
			if !ok {
				return nil, false
			}
			return view.ChatBubble{ID: id, Content: text, Attachments: toViewAttachments(b.Attachments)}, true
		case OutputFileSearchCall:
			return stream.SearchBadge(id, view.BadgeFileSearch), true
		case OutputWebSearchCall:
			return stream.SearchBadge(id, view.BadgeWebSearch), true
		case OutputFunctionCall:
			var args struct {
				ArtifactType string `json:"artifact_type"`
				Title        string `json:"title"`
				Body         string `json:"body"`
			}
			if err := json.Unmarshal([]byte(b.Output.Arguments), &args); err != nil {
				return nil, false
			}
			call := stream.Artifact{ArtifactType: args.ArtifactType, Title: args.Title, Body: args.Body}
			return stream.Accordion(id, id+"-body", call), true
		}
	}
	return nil, false
}

func toViewAttachments(atts []Attachment) []view.Attachment {
	if len(atts) == 0 {
		return nil
	}
	out := make([]view.Attachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, view.Attachment{Name: a.Name, MimeType: a.MimeType, Size: a.Size})
	}
	return out
}

func fromViewAttachments(atts []view.Attachment) []Attachment {
	out := make([]Attachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, Attachment{Type: "file", Name: a.Name, MimeType: a.MimeType, Size: a.Size})
	}
	return out
}
