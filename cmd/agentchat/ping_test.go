package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentchat/internal/api"
	"agentchat/internal/transport"
)

func TestRunPing(t *testing.T) {
	clearAgentchatEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(api.User{ID: "u1", Email: "dev@example.test"})
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	if err := runPing(testRoot(t, srv), nil, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "ok: dev@example.test" {
		t.Fatalf("ping output = %q", got)
	}

	root := testRoot(t, srv)
	root.overrides = append(root.overrides, "api_key=wrong")
	err := runPing(root, nil, &bytes.Buffer{})
	if !errors.Is(err, transport.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRunPingRequiresCredentials(t *testing.T) {
	clearAgentchatEnv(t)
	root := rootArgs{cfgPath: t.TempDir() + "/config.toml"}
	if err := runPing(root, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected missing credentials error")
	}
}
