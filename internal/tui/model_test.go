package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"agentchat/internal/attach"
	"agentchat/internal/events"
	"agentchat/internal/history"
	"agentchat/internal/message"
	"agentchat/internal/session"
	"agentchat/internal/view"

	tea "github.com/charmbracelet/bubbletea"
)

type submitCall struct {
	text  string
	files []message.File
}

type fakeController struct {
	mu    sync.Mutex
	snap  session.Snapshot
	calls []submitCall
	err   error
}

func (f *fakeController) Submit(_ context.Context, text string, files []message.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submitCall{text: text, files: files})
	return f.err
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func newModel(t *testing.T, ctrl *fakeController, copyFn func(string) error) *Model {
	t.Helper()
	if copyFn == nil {
		copyFn = func(string) error { return nil }
	}
	m := New(Options{Controller: ctrl, Clipboard: copyFn, Title: "test"})
	m.resize(80, 30)
	return m
}

// runCmd 执行 cmd 并把得到的消息送回 Update；Batch 只展开一层。
func runCmd(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if inner := c(); inner != nil {
				m.Update(inner)
			}
		}
		return
	}
	if msg != nil {
		m.Update(msg)
	}
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func enter(m *Model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func snapshotWith(nodes ...view.Node) session.Snapshot {
	return session.Snapshot{Key: history.Key{SessionID: "s1"}, Finalized: nodes, Complete: true}
}

func TestViewShowsWelcomeWhenEmpty(t *testing.T) {
	m := newModel(t, &fakeController{snap: session.Snapshot{Complete: true}}, nil)
	if !strings.Contains(m.View(), "Welcome to agentchat") {
		t.Fatalf("expected welcome text in view")
	}
}

func TestViewUpdatedEventRendersTree(t *testing.T) {
	m := newModel(t, &fakeController{snap: session.Snapshot{Complete: true}}, nil)
	snap := snapshotWith(view.ChatBubble{ID: "b1", Content: "Hello from the assistant"})
	m.Update(eventMsg{OK: true, Event: events.Event{Type: events.EventViewUpdated, Payload: snap}})
	out := m.View()
	if !strings.Contains(out, "Hello from the assistant") {
		t.Fatalf("expected bubble content in view:\n%s", out)
	}
	if m.pending {
		t.Fatalf("complete snapshot should clear pending")
	}
}

func TestEnterSubmitsTextAndAttachments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# hi"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ctrl := &fakeController{snap: session.Snapshot{Complete: true}}
	m := newModel(t, ctrl, nil)

	m.applySlash(m.slash.ResolveSubmit("/attach " + path + " " + filepath.Join(dir, "x.exe")))
	if len(m.files) != 1 {
		t.Fatalf("expected 1 accepted file, got %d", len(m.files))
	}
	if !strings.Contains(m.notice, "x.exe") {
		t.Fatalf("expected rejection notice, got %q", m.notice)
	}

	typeText(m, "summarize")
	runCmd(m, enter(m))
	if len(ctrl.calls) != 1 {
		t.Fatalf("expected one submit, got %d", len(ctrl.calls))
	}
	call := ctrl.calls[0]
	if call.text != "summarize" || len(call.files) != 1 || call.files[0].Name != "notes.md" {
		t.Fatalf("unexpected submit: %+v", call)
	}
	if call.files[0].MimeType != "text/markdown" {
		t.Fatalf("unexpected mime type %q", call.files[0].MimeType)
	}
	if len(m.files) != 0 {
		t.Fatalf("attachments should be consumed by submit")
	}
	if m.textarea.Value() != "" {
		t.Fatalf("composer should reset after submit")
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{Complete: true}}
	m := newModel(t, ctrl, nil)
	typeText(m, "   ")
	runCmd(m, enter(m))
	if len(ctrl.calls) != 0 {
		t.Fatalf("blank input should not submit")
	}
}

func TestSubmitErrorShowsInStatus(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{Complete: true}, err: errors.New("socket closed")}
	m := newModel(t, ctrl, nil)
	typeText(m, "hi")
	runCmd(m, enter(m))
	if m.pending {
		t.Fatalf("failed submit should clear pending")
	}
	if !strings.Contains(m.View(), "socket closed") {
		t.Fatalf("expected error in view")
	}
}

func TestCopyCommand(t *testing.T) {
	var copied string
	ctrl := &fakeController{snap: session.Snapshot{Complete: true}}
	m := newModel(t, ctrl, func(s string) error { copied = s; return nil })

	m.applySlash(m.slash.ResolveSubmit("/copy"))
	if !strings.Contains(m.notice, "nothing to copy") {
		t.Fatalf("expected empty notice, got %q", m.notice)
	}

	m.Update(eventMsg{OK: true, Event: events.Event{
		Type:    events.EventViewUpdated,
		Payload: snapshotWith(view.ChatBubble{ID: "u", Content: "q", IsUser: true}, view.ChatBubble{ID: "a", Content: "answer"}),
	}})
	m.applySlash(m.slash.ResolveSubmit("/copy"))
	if copied != "answer" {
		t.Fatalf("copied %q, want %q", copied, "answer")
	}
}

func TestClearAttachmentsAndHelp(t *testing.T) {
	m := newModel(t, &fakeController{snap: session.Snapshot{Complete: true}}, nil)
	m.files = []attach.FileInfo{{Name: "a.md", MimeType: "text/markdown"}}
	m.applySlash(m.slash.ResolveSubmit("/clear-attachments"))
	if len(m.files) != 0 || m.notice != "attachments cleared" {
		t.Fatalf("unexpected state: files=%d notice=%q", len(m.files), m.notice)
	}
	m.applySlash(m.slash.ResolveSubmit("/help"))
	if !strings.Contains(m.notice, "/attach") {
		t.Fatalf("help should list commands, got %q", m.notice)
	}
}

func TestTurnEventsUpdatePending(t *testing.T) {
	m := newModel(t, &fakeController{snap: session.Snapshot{Complete: true}}, nil)
	m.Update(eventMsg{OK: true, Event: events.Event{
		Type:    events.EventViewUpdated,
		Payload: session.Snapshot{Current: view.ChatLoading{ID: "l"}, Complete: false},
	}})
	if !m.pending {
		t.Fatalf("in-flight snapshot should set pending")
	}
	m.Update(eventMsg{OK: true, Event: events.Event{
		Type:    events.EventTurnFailed,
		Payload: events.TurnFailed{Reason: "boom"},
	}})
	if m.pending || !strings.Contains(m.notice, "boom") {
		t.Fatalf("turn.failed should clear pending and set notice, got %q", m.notice)
	}
}

func TestReauthQuits(t *testing.T) {
	m := newModel(t, &fakeController{snap: session.Snapshot{Complete: true}}, nil)
	_, cmd := m.Update(eventMsg{OK: true, Event: events.Event{Type: events.EventReauthRequired}})
	if !m.ReauthRequired() {
		t.Fatalf("expected reauth flag")
	}
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestPromptHistoryBrowsing(t *testing.T) {
	var h promptHistory
	h.Seed([]string{"one", "one", "two"})
	if got, _ := h.Prev("draft"); got != "two" {
		t.Fatalf("Prev = %q, want two", got)
	}
	if got, _ := h.Prev(""); got != "one" {
		t.Fatalf("Prev = %q, want one", got)
	}
	if got, _ := h.Prev(""); got != "one" {
		t.Fatalf("Prev at start = %q, want one", got)
	}
	if got, _ := h.Next(); got != "two" {
		t.Fatalf("Next = %q, want two", got)
	}
	if got, _ := h.Next(); got != "draft" {
		t.Fatalf("Next past end = %q, want draft", got)
	}
	if _, ok := h.Next(); ok {
		t.Fatalf("Next without browsing should report false")
	}
}

func TestUploadFailureDropsFileButSends(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{Complete: true}}
	m := New(Options{
		Controller: ctrl,
		Clipboard:  func(string) error { return nil },
		Upload: func(_ context.Context, f attach.FileInfo) error {
			if f.Name == "bad.md" {
				return errors.New("too large")
			}
			return nil
		},
	})
	m.files = []attach.FileInfo{
		{Path: "/tmp/good.md", Name: "good.md", MimeType: "text/markdown"},
		{Path: "/tmp/bad.md", Name: "bad.md", MimeType: "text/markdown"},
	}
	runCmd(m, m.submit("see files"))
	if len(ctrl.calls) != 1 || len(ctrl.calls[0].files) != 1 || ctrl.calls[0].files[0].Name != "good.md" {
		t.Fatalf("unexpected submit: %+v", ctrl.calls)
	}
	if !strings.Contains(m.notice, "too large") {
		t.Fatalf("expected upload failure notice, got %q", m.notice)
	}
}
