package view

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// 描述符中由结构递归使用、不作为 props 透传的保留键。
const (
	keyID       = "id"
	keyItems    = "items"
	keyEmbedded = "embeddedView"
)

// ErrUnknownTag 表示描述符的 type 不在封闭集合内。
var ErrUnknownTag = errors.New("unknown component tag")

// Descriptor 是数据驱动的组件描述：{type, data:{id, items|embeddedView, ...props}}。
type Descriptor struct {
	Type Tag                        `json:"type"`
	Data map[string]json.RawMessage `json:"data"`
}

// DecodeTree 解析 JSON 描述符并转换为节点树。
func DecodeTree(raw []byte) (Node, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return FromDescriptor(d)
}

type bubbleProps struct {
	Content     string `json:"content"`
	IsUser      bool   `json:"isUser"`
	IsStreaming bool   `json:"isStreaming"`
	Attachments []struct {
		Name     string `json:"name"`
		MimeType string `json:"mimetype"`
		Size     int64  `json:"size"`
	} `json:"attachments"`
}

type buttonProps struct {
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

type badgeProps struct {
	Icon string    `json:"icon"`
	Text string    `json:"text"`
	Kind BadgeKind `json:"kind"`
}

type accordionProps struct {
	Title         string `json:"title"`
	ArtifactType  string `json:"artifactType"`
	ArtifactTitle string `json:"artifactTitle"`
}

type paragraphProps struct {
	Text string `json:"text"`
}

// FromDescriptor 将描述符转换为具体节点。
// 未知 type 返回 ErrUnknownTag；未声明的 prop 或类型不匹配同样报错。
func FromDescriptor(d Descriptor) (Node, error) {
	id, err := stringField(d.Data, keyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Type, err)
	}
	children, err := childDescriptors(d)
	if err != nil {
		return nil, err
	}
	props := make(map[string]json.RawMessage, len(d.Data))
	for k, v := range d.Data {
		switch k {
		case keyID, keyItems, keyEmbedded:
			continue
		}
		props[k] = v
	}

	switch d.Type {
	case TagContainer:
		if err := decodeProps(d.Type, props, &struct{}{}); err != nil {
			return nil, err
		}
		return Container{ID: id, Items: children}, nil
	case TagFunctionToolCallAccordion:
		var p accordionProps
		if err := decodeProps(d.Type, props, &p); err != nil {
			return nil, err
		}
		if len(children) > 1 {
			return nil, fmt.Errorf("%s: expects a single embedded view, got %d", d.Type, len(children))
		}
		n := FunctionToolCallAccordion{ID: id, Title: p.Title, ArtifactType: p.ArtifactType, ArtifactTitle: p.ArtifactTitle}
		if len(children) == 1 {
			n.Embedded = children[0]
		}
		return n, nil
	}

	if len(children) > 0 {
		if _, known := leafTags[d.Type]; known {
			return nil, fmt.Errorf("%s: component takes no nested views", d.Type)
		}
	}
	switch d.Type {
	case TagButton:
		var p buttonProps
		if err := decodeProps(d.Type, props, &p); err != nil {
			return nil, err
		}
		return Button{ID: id, Label: p.Label, Variant: p.Variant}, nil
	case TagChatBubble:
		var p bubbleProps
		if err := decodeProps(d.Type, props, &p); err != nil {
			return nil, err
		}
		n := ChatBubble{ID: id, Content: p.Content, IsUser: p.IsUser, IsStreaming: p.IsStreaming}
		for _, a := range p.Attachments {
			n.Attachments = append(n.Attachments, Attachment{Name: a.Name, MimeType: a.MimeType, Size: a.Size})
		}
		return n, nil
	case TagChatLoading:
		if err := decodeProps(d.Type, props, &struct{}{}); err != nil {
			return nil, err
		}
		return ChatLoading{ID: id}, nil
	case TagToolCallIndicatorBadge:
		var p badgeProps
		if err := decodeProps(d.Type, props, &p); err != nil {
			return nil, err
		}
		return ToolCallIndicatorBadge{ID: id, Icon: p.Icon, Text: p.Text, Kind: p.Kind}, nil
	case TagParagraph:
		var p paragraphProps
		if err := decodeProps(d.Type, props, &p); err != nil {
			return nil, err
		}
		return Paragraph{ID: id, Text: p.Text}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, d.Type)
}

var leafTags = map[Tag]struct{}{
	TagButton:                 {},
	TagChatBubble:             {},
	TagChatLoading:            {},
	TagToolCallIndicatorBadge: {},
	TagParagraph:              {},
}

// ToDescriptor 是 FromDescriptor 的逆操作。
func ToDescriptor(n Node) (Descriptor, error) {
	if n == nil {
		return Descriptor{}, errors.New("nil node")
	}
	data := map[string]any{keyID: n.NodeID()}
	switch v := n.(type) {
	case Button:
		data["label"] = v.Label
		if v.Variant != "" {
			data["variant"] = v.Variant
		}
	case Container:
		items := make([]Descriptor, 0, len(v.Items))
		for _, child := range v.Items {
			d, err := ToDescriptor(child)
			if err != nil {
				return Descriptor{}, err
			}
			items = append(items, d)
		}
		data[keyItems] = items
	case ChatBubble:
		data["content"] = v.Content
		data["isUser"] = v.IsUser
		data["isStreaming"] = v.IsStreaming
		if len(v.Attachments) > 0 {
			atts := make([]map[string]any, 0, len(v.Attachments))
			for _, a := range v.Attachments {
				atts = append(atts, map[string]any{"name": a.Name, "mimetype": a.MimeType, "size": a.Size})
			}
			data["attachments"] = atts
		}
	case ChatLoading:
	case ToolCallIndicatorBadge:
		data["icon"] = v.Icon
		data["text"] = v.Text
		if v.Kind != "" {
			data["kind"] = v.Kind
		}
	case FunctionToolCallAccordion:
		data["title"] = v.Title
		data["artifactType"] = v.ArtifactType
		data["artifactTitle"] = v.ArtifactTitle
		if v.Embedded != nil {
			d, err := ToDescriptor(v.Embedded)
			if err != nil {
				return Descriptor{}, err
			}
			data[keyEmbedded] = d
		}
	case Paragraph:
		data["text"] = v.Text
	}

	out := Descriptor{Type: n.Tag(), Data: make(map[string]json.RawMessage, len(data))}
	for k, v := range data {
		raw, err := json.Marshal(v)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%s.%s: %w", n.Tag(), k, err)
		}
		out.Data[k] = raw
	}
	return out, nil
}

func childDescriptors(d Descriptor) ([]Node, error) {
	var descs []Descriptor
	if raw, ok := d.Data[keyItems]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &descs); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Type, keyItems, err)
		}
	} else if raw, ok := d.Data[keyEmbedded]; ok && !isNull(raw) {
		var one Descriptor
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Type, keyEmbedded, err)
		}
		descs = []Descriptor{one}
	}
	if len(descs) == 0 {
		return nil, nil
	}
	nodes := make([]Node, 0, len(descs))
	for _, cd := range descs {
		n, err := FromDescriptor(cd)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeProps(tag Tag, props map[string]json.RawMessage, dst any) error {
	if len(props) == 0 {
		return nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("%s props: %w", tag, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s props: %w", tag, err)
	}
	return nil
}

func stringField(data map[string]json.RawMessage, key string) (string, error) {
	raw, ok := data[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string: %w", key, err)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
