package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestPlainFormatter_EventPrefixAndFieldSkipping(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		name    string
		data    logrus.Fields
		message string
		want    string
	}{
		{
			name: "with event",
			data: logrus.Fields{
				"component": "session",
				"event":     "agent_response",
				"caller":    "x.go:1",
				"payload":   "token",
				"session":   "0123456789abcdef",
			},
			message: "applied envelope",
			want:    "x.go:1 [2025-01-02T03:04:05Z] [INFO] [session] [event=agent_response session=01234567] applied envelope payload=token\n",
		},
		{
			name: "without event",
			data: logrus.Fields{
				"component": "eq",
				"caller":    "x.go:1",
				"foo":       "bar",
			},
			message: "hello",
			want:    "x.go:1 [2025-01-02T03:04:05Z] [INFO] [eq] hello foo=bar\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := &logrus.Entry{
				Logger:  logrus.New(),
				Time:    ts,
				Level:   logrus.InfoLevel,
				Message: tc.message,
				Data:    tc.data,
			}
			out, err := (PlainFormatter{}).Format(entry)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			got := string(out)
			if got != tc.want {
				t.Fatalf("unexpected format:\nwant: %q\ngot:  %q", tc.want, got)
			}
			if _, ok := tc.data["event"]; ok {
				if strings.Count(got, "event=agent_response") != 1 {
					t.Fatalf("expected event to appear only once in output, got: %q", got)
				}
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"token", "token"},
		{"", `""`},
		{"interrupted by a new message", `"interrupted by a new message"`},
		{errors.New("dial: refused"), `"dial: refused"`},
		{42, "42"},
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"line one\nline two", "line one\nline two"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Fatalf("formatValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" warn ":  logrus.WarnLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupComponentFileWritesComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transport.log")
	entry, closer, resolved, err := SetupComponentFile("transport", path)
	if err != nil {
		t.Fatalf("SetupComponentFile: %v", err)
	}
	defer closer.Close()
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	entry.Warn("socket closed")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "[WARNING] [transport] socket closed") {
		t.Fatalf("unexpected log contents: %q", text)
	}
}

func TestShortenFilePath(t *testing.T) {
	cases := map[string]string{
		"/home/u/src/agentchat/internal/stream/reducer.go": "internal/stream/reducer.go",
		"/home/u/src/agentchat/cmd/agentchat/main.go":      "cmd/agentchat/main.go",
		"/tmp/other.go":                                    "other.go",
	}
	for in, want := range cases {
		if got := shortenFilePath(in); got != want {
			t.Fatalf("shortenFilePath(%q) = %q, want %q", in, got, want)
		}
	}
}
