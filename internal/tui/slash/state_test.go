package slash

import (
	"strings"
	"testing"
)

func TestSyncInputOpensOnSlashToken(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/co", CursorLine: 0, CursorColumn: 3})
	if !state.Open() {
		t.Fatalf("expected slash popup to open")
	}
	item, ok := state.Selected()
	if !ok || item.Command != CommandCopy {
		t.Fatalf("expected /copy selected, got %+v", item)
	}
}

func TestSyncInputOpensOnBareSlash(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/", CursorLine: 0, CursorColumn: 1})
	if !state.Open() {
		t.Fatalf("expected slash popup to open on bare slash")
	}
	if len(state.matches) != len(Items()) {
		t.Fatalf("expected all commands, got %d", len(state.matches))
	}
}

func TestSyncInputIgnoresPlainTextAndPaths(t *testing.T) {
	cases := []string{"hello", "/tmp/file.txt", " /copy"}
	for _, value := range cases {
		state := NewState(Options{})
		state.SyncInput(Input{Value: value, CursorColumn: len(value)})
		if state.Open() {
			t.Fatalf("%q should not open the popup", value)
		}
	}
}

func TestHandleKeyTabCompletesBuiltin(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/he", CursorLine: 0, CursorColumn: 3})
	action, handled := state.HandleKey("tab")
	if !handled {
		t.Fatalf("expected tab handled")
	}
	if action.Kind != ActionInsert {
		t.Fatalf("expected insert action, got %v", action.Kind)
	}
	if strings.TrimSpace(action.NewValue) != "/help" {
		t.Fatalf("unexpected inserted value: %q", action.NewValue)
	}
	if action.CursorColumn != len("/help ") {
		t.Fatalf("unexpected cursor %d", action.CursorColumn)
	}
}

func TestHandleKeyEnterDispatchesCommand(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/quit", CursorLine: 0, CursorColumn: 5})
	action, handled := state.HandleKey("enter")
	if !handled {
		t.Fatalf("expected enter handled")
	}
	if action.Kind != ActionSubmitCommand || action.Command != CommandQuit {
		t.Fatalf("unexpected action %+v", action)
	}
	if state.Open() {
		t.Fatalf("popup should close after dispatch")
	}
}

func TestHandleKeyEnterWaitsForAttachArgs(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/att", CursorLine: 0, CursorColumn: 4})
	action, _ := state.HandleKey("enter")
	if action.Kind != ActionInsert || strings.TrimSpace(action.NewValue) != "/attach" {
		t.Fatalf("expected completion without args, got %+v", action)
	}
}

func TestHandleKeyNavigationWraps(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/", CursorColumn: 1})
	state.HandleKey("up")
	item, _ := state.Selected()
	if item.Command != CommandQuit {
		t.Fatalf("up from first should wrap to last, got %s", item.Command)
	}
	state.HandleKey("down")
	item, _ = state.Selected()
	if item.Command != CommandCopy {
		t.Fatalf("down from last should wrap to first, got %s", item.Command)
	}
	if act, _ := state.HandleKey("esc"); act.Kind != ActionClose || state.Open() {
		t.Fatalf("esc should close popup")
	}
}

func TestResolveSubmit(t *testing.T) {
	state := NewState(Options{})
	cases := []struct {
		value string
		kind  ActionKind
		cmd   Command
		args  string
	}{
		{"hello there", ActionNone, "", ""},
		{"/copy", ActionSubmitCommand, CommandCopy, ""},
		{"/attach a.md  b.pdf", ActionSubmitCommand, CommandAttach, "a.md  b.pdf"},
		{"/CLEAR-ATTACHMENTS", ActionSubmitCommand, CommandClearAttachments, ""},
		{"/nope", ActionError, "", ""},
	}
	for _, tc := range cases {
		action := state.ResolveSubmit(tc.value)
		if action.Kind != tc.kind || action.Command != tc.cmd || action.Args != tc.args {
			t.Fatalf("ResolveSubmit(%q) = %+v", tc.value, action)
		}
	}
}

func TestViewListsMatches(t *testing.T) {
	state := NewState(Options{})
	state.SyncInput(Input{Value: "/", CursorColumn: 1})
	out := state.View(60)
	for _, item := range Items() {
		if !strings.Contains(out, item.DisplayName()) {
			t.Fatalf("view missing %s:\n%s", item.DisplayName(), out)
		}
	}
	if NewState(Options{}).View(60) != "" {
		t.Fatalf("closed popup should render nothing")
	}
}

func TestHelpMentionsEveryCommand(t *testing.T) {
	help := Help()
	for _, item := range Items() {
		if !strings.Contains(help, item.DisplayName()) {
			t.Fatalf("help missing %s", item.DisplayName())
		}
	}
}

func TestWindowKeepsSelectionVisible(t *testing.T) {
	cases := []struct {
		total, selected, max int
		start, end           int
	}{
		{5, 0, 8, 0, 5},
		{10, 0, 4, 0, 4},
		{10, 3, 4, 0, 4},
		{10, 4, 4, 1, 5},
		{10, 9, 4, 6, 10},
		{3, 2, 0, 0, 3},
	}
	for _, tc := range cases {
		start, end := window(tc.total, tc.selected, tc.max)
		if start != tc.start || end != tc.end {
			t.Fatalf("window(%d,%d,%d) = [%d,%d), want [%d,%d)",
				tc.total, tc.selected, tc.max, start, end, tc.start, tc.end)
		}
	}
}
