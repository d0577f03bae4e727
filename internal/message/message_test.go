package message

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"agentchat/internal/stream"
	"agentchat/internal/view"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func TestBuildUser(t *testing.T) {
	rec := Build(BuildInput{IsUser: true, Text: "hi"})
	if rec.Sender() != SenderUser {
		t.Fatalf("sender=%q", rec.Sender())
	}
	body, ok := rec.Body.(UserBody)
	if !ok || body.Content != "hi" {
		t.Fatalf("unexpected body: %#v", rec.Body)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if generic["sender"] != "user" || generic["output"] != nil {
		t.Fatalf("unexpected json: %s", raw)
	}
	if input, _ := generic["input"].(map[string]any); input["content"] != "hi" {
		t.Fatalf("input.content missing: %s", raw)
	}
}

func TestBuildUserAttachments(t *testing.T) {
	rec := Builder{NewID: seqIDs()}.Build(BuildInput{
		IsUser: true,
		Text:   "see attached",
		Files:  []File{{Name: "r.pdf", MimeType: "application/pdf", Size: 42}},
	})
	want := []Attachment{{Type: "file", Name: "r.pdf", MimeType: "application/pdf", Size: 42}}
	if !reflect.DeepEqual(rec.Attachments(), want) {
		t.Fatalf("attachments=%#v", rec.Attachments())
	}
}

func TestBuildAssistant(t *testing.T) {
	rec := Builder{NewID: seqIDs()}.Build(BuildInput{Text: "hello"})
	body, ok := rec.Body.(AssistantBody)
	if !ok {
		t.Fatalf("expected assistant body, got %T", rec.Body)
	}
	if rec.ID != "m1" || body.Output.ID != "m2" {
		t.Fatalf("ids: record=%q output=%q", rec.ID, body.Output.ID)
	}
	if body.Output.Status != StatusCompleted || body.Output.Type != OutputMessage {
		t.Fatalf("unexpected output: %#v", body.Output)
	}
	if text, ok := body.Output.Text(); !ok || text != "hello" {
		t.Fatalf("text=%q ok=%v", text, ok)
	}

	raw, _ := json.Marshal(rec)
	if !strings.Contains(string(raw), `"input":null`) || !strings.Contains(string(raw), `"attachments":[]`) {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestUnmarshalRecord(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Sender
		wantErr bool
	}{
		{"user by sender", `{"id":"1","sender":"user","input":{"content":"q"},"output":null,"attachments":[]}`, SenderUser, false},
		{"assistant by sender", `{"id":"2","sender":"assistant","input":null,"output":{"id":"o","type":"message","status":"completed","content":[{"type":"output_text","text":"a"}]}}`, SenderAssistant, false},
		{"user by shape", `{"id":"3","input":{"content":"q"}}`, SenderUser, false},
		{"assistant by shape", `{"id":"4","output":{"id":"o","type":"web_search_call","status":"completed"}}`, SenderAssistant, false},
		{"neither", `{"id":"5"}`, "", true},
		{"assistant without output", `{"id":"6","sender":"assistant"}`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec Record
			err := json.Unmarshal([]byte(tc.raw), &rec)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if rec.Sender() != tc.want {
				t.Fatalf("sender=%q, want %q", rec.Sender(), tc.want)
			}
		})
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	in := Record{
		ID:        "r1",
		AccountID: "acc",
		SessionID: "s",
		Body: AssistantBody{
			Output:      Output{ID: "o1", Type: OutputFunctionCall, Status: StatusCompleted, Arguments: `{"a":1}`},
			Attachments: []Attachment{},
		},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in %#v\nout %#v", in, out)
	}
}

func TestFromUnits(t *testing.T) {
	units := []view.Node{
		view.ChatLoading{ID: "l"},
		stream.SearchBadge("b", view.BadgeWebSearch),
		view.ChatBubble{ID: "c", Content: "Found it"},
		stream.Accordion("f", "p", stream.Artifact{ArtifactType: "memo", Title: "Plan", Body: "Do it."}),
		view.ChatBubble{ID: "u", Content: "thanks", IsUser: true},
	}
	recs := Builder{NewID: seqIDs()}.FromUnits(units)
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}

	search := recs[0].Body.(AssistantBody)
	if search.Output.Type != OutputWebSearchCall {
		t.Fatalf("first record type=%q", search.Output.Type)
	}
	if text, _ := recs[1].Body.(AssistantBody).Output.Text(); text != "Found it" {
		t.Fatalf("second record text=%q", text)
	}
	call := recs[2].Body.(AssistantBody).Output
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		t.Fatalf("arguments not json: %v", err)
	}
	if args["artifact_type"] != "memo" || args["title"] != "Plan" || args["body"] != "Do it." {
		t.Fatalf("arguments=%v", args)
	}
	if recs[3].Sender() != SenderUser {
		t.Fatalf("last record should be user")
	}
}

func TestToNodeInvertsFromUnits(t *testing.T) {
	units := []view.Node{
		stream.SearchBadge("b", view.BadgeFileSearch),
		view.ChatBubble{ID: "c", Content: "answer"},
		stream.Accordion("f", "f-body", stream.Artifact{ArtifactType: "memo", Title: "Plan", Body: "Do it."}),
	}
	recs := FromUnits(units)
	for i, rec := range recs {
		got, ok := ToNode(rec, units[i].NodeID())
		if !ok {
			t.Fatalf("record %d not renderable", i)
		}
		if !reflect.DeepEqual(got, units[i]) {
			t.Fatalf("record %d:\n got %#v\nwant %#v", i, got, units[i])
		}
	}
}

func TestToNodeSkips(t *testing.T) {
	cases := []Record{
		{Body: UserBody{}},
		{Body: AssistantBody{Output: Output{Type: OutputMessage}}},
		{Body: AssistantBody{Output: Output{Type: "reasoning"}}},
		{Body: AssistantBody{Output: Output{Type: OutputFunctionCall, Arguments: "{bad"}}},
		{},
	}
	for i, rec := range cases {
		if _, ok := ToNode(rec, "x"); ok {
			t.Fatalf("case %d should be skipped", i)
		}
	}
}

func TestWithSession(t *testing.T) {
	in := []Record{{ID: "a"}, {ID: "b", SessionID: "old"}}
	out := WithSession(in, "acc", "sess")
	for _, rec := range out {
		if rec.AccountID != "acc" || rec.SessionID != "sess" {
			t.Fatalf("ids not stamped: %#v", rec)
		}
	}
	if in[1].SessionID != "old" {
		t.Fatalf("input mutated")
	}
}
