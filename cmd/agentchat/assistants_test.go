package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"agentchat/internal/api"
)

func TestToggleFavorite(t *testing.T) {
	cases := []struct {
		current []string
		id      string
		want    []string
		added   bool
	}{
		{nil, "a", []string{"a"}, true},
		{[]string{"a", "b"}, "c", []string{"a", "b", "c"}, true},
		{[]string{"a", "b", "c"}, "b", []string{"a", "c"}, false},
		{[]string{"a"}, "a", []string{}, false},
	}
	for _, tc := range cases {
		got, added := toggleFavorite(tc.current, tc.id)
		if !reflect.DeepEqual(got, tc.want) || added != tc.added {
			t.Fatalf("toggleFavorite(%v, %q) = %v, %t; want %v, %t", tc.current, tc.id, got, added, tc.want, tc.added)
		}
	}
}

func assistantCatalog(t *testing.T, favorites []string, patched *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/assistant":
			all := []api.Assistant{
				{ID: "a1", Name: "Closer", Category: "sales"},
				{ID: "a2", Name: "Helper", Category: "support"},
			}
			cat, ids := r.URL.Query().Get("category"), r.URL.Query()["ids"]
			out := []api.Assistant{}
			for _, a := range all {
				if cat != "" && a.Category != cat {
					continue
				}
				if len(ids) > 0 && !contains(ids, a.ID) {
					continue
				}
				out = append(out, a)
			}
			_ = json.NewEncoder(w).Encode(out)
		case r.URL.Path == "/assistant/categories":
			_, _ = w.Write([]byte(`{"assistant_categories":["sales","support"]}`))
		case r.URL.Path == "/auth/me":
			_ = json.NewEncoder(w).Encode(api.User{ID: "u1", Profile: api.Profile{FavoriteAssistants: favorites}})
		case r.URL.Path == "/profile" && r.Method == http.MethodPatch:
			var body struct {
				FavoriteAssistants []string `json:"favorite_assistants"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			*patched = body.FavoriteAssistants
			_ = json.NewEncoder(w).Encode(api.Profile{FavoriteAssistants: body.FavoriteAssistants})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestRunAssistants(t *testing.T) {
	clearAgentchatEnv(t)
	var patched []string
	srv := assistantCatalog(t, []string{"a2"}, &patched)

	cases := []struct {
		args []string
		want string
	}{
		{nil, "a1\tCloser\tsales\na2\tHelper\tsupport\n"},
		{[]string{"--category", "sales"}, "a1\tCloser\tsales\n"},
		{[]string{"--favorites"}, "a2\tHelper\tsupport\n"},
		{[]string{"--categories"}, "sales\nsupport\n"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		if err := runAssistants(testRoot(t, srv), tc.args, &out); err != nil {
			t.Fatalf("runAssistants(%v): %v", tc.args, err)
		}
		if out.String() != tc.want {
			t.Fatalf("runAssistants(%v) = %q, want %q", tc.args, out.String(), tc.want)
		}
	}

	var out bytes.Buffer
	if err := runAssistants(testRoot(t, srv), []string{"--favorite", "a1"}, &out); err != nil {
		t.Fatalf("toggle favorite: %v", err)
	}
	if !reflect.DeepEqual(patched, []string{"a2", "a1"}) || !strings.HasPrefix(out.String(), "added a1") {
		t.Fatalf("patched=%v out=%q", patched, out.String())
	}
}
