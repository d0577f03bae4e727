package view

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeTree(t *testing.T) {
	raw := `{"type":"Container","data":{"id":"root","items":[
		{"type":"ChatBubble","data":{"id":"b1","content":"hi","isUser":true,"attachments":[{"name":"a.pdf","mimetype":"application/pdf","size":3}]}},
		{"type":"ToolCallIndicatorBadge","data":{"id":"t1","icon":"🔍","text":"Searching the web…","kind":"web_search_call"}},
		{"type":"FunctionToolCallAccordion","data":{"id":"f1","title":"memo | Plan","embeddedView":{"type":"Paragraph","data":{"id":"p1","text":"body"}}}},
		{"type":"Button","data":{"id":"btn","label":"Retry"}},
		{"type":"ChatLoading","data":{"id":"l1"}}
	]}}`
	got, err := DecodeTree([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Container{ID: "root", Items: []Node{
		ChatBubble{ID: "b1", Content: "hi", IsUser: true, Attachments: []Attachment{{Name: "a.pdf", MimeType: "application/pdf", Size: 3}}},
		ToolCallIndicatorBadge{ID: "t1", Icon: "🔍", Text: "Searching the web…", Kind: BadgeWebSearch},
		FunctionToolCallAccordion{ID: "f1", Title: "memo | Plan", Embedded: Paragraph{ID: "p1", Text: "body"}},
		Button{ID: "btn", Label: "Retry"},
		ChatLoading{ID: "l1"},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tree:\n got %#v\nwant %#v", got, want)
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	tree := Container{ID: "c", Items: []Node{
		ChatBubble{ID: "b", Content: "**bold**", IsStreaming: true},
		FunctionToolCallAccordion{ID: "f", Title: "a | b", ArtifactType: "a", ArtifactTitle: "b", Embedded: Paragraph{ID: "p", Text: "x"}},
	}}
	d, err := ToDescriptor(tree)
	if err != nil {
		t.Fatalf("to descriptor: %v", err)
	}
	back, err := FromDescriptor(d)
	if err != nil {
		t.Fatalf("from descriptor: %v", err)
	}
	if !reflect.DeepEqual(back, tree) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", back, tree)
	}
}

func TestFromDescriptorErrors(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		unknown bool
	}{
		{"unknown tag", `{"type":"Carousel","data":{"id":"x"}}`, true},
		{"unknown nested tag", `{"type":"Container","data":{"items":[{"type":"Nope","data":{}}]}}`, true},
		{"typo prop", `{"type":"Paragraph","data":{"txt":"x"}}`, false},
		{"wrong prop type", `{"type":"ChatBubble","data":{"isUser":"yes"}}`, false},
		{"id not string", `{"type":"Paragraph","data":{"id":7}}`, false},
		{"leaf with items", `{"type":"Paragraph","data":{"items":[{"type":"ChatLoading","data":{}}]}}`, false},
		{"accordion with two children", `{"type":"FunctionToolCallAccordion","data":{"items":[{"type":"Paragraph","data":{}},{"type":"Paragraph","data":{}}]}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTree([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, ErrUnknownTag) != tc.unknown {
				t.Fatalf("errors.Is(ErrUnknownTag)=%v, want %v (err=%v)", !tc.unknown, tc.unknown, err)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	tree := Container{ID: "root", Items: []Node{
		ChatBubble{ID: "a"},
		Container{ID: "inner", Items: []Node{Paragraph{ID: "b"}}},
		FunctionToolCallAccordion{ID: "c", Embedded: Paragraph{ID: "d"}},
	}}
	var ids []string
	Walk(tree, func(n Node) bool {
		ids = append(ids, n.NodeID())
		return n.NodeID() != "inner"
	})
	want := []string{"root", "a", "inner", "c", "d"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("walk order=%v, want %v", ids, want)
	}
	Walk(nil, func(Node) bool {
		t.Fatalf("nil tree should not visit")
		return true
	})
}

func TestTagsMatchVariants(t *testing.T) {
	nodes := []Node{Button{}, Container{}, ChatBubble{}, ChatLoading{}, ToolCallIndicatorBadge{}, FunctionToolCallAccordion{}, Paragraph{}}
	tags := Tags()
	if len(tags) != len(nodes) {
		t.Fatalf("tags=%d variants=%d", len(tags), len(nodes))
	}
	for i, n := range nodes {
		if n.Tag() != tags[i] {
			t.Fatalf("variant %d tag=%q, want %q", i, n.Tag(), tags[i])
		}
	}
}
