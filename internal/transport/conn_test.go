package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"agentchat/internal/wire"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialStreamsEnvelopesAndSends(t *testing.T) {
	received := make(chan wire.Outbound, 1)
	keys := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.URL.Query().Get("api_key")
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		frames := []string{
			`{"event":"connection_established","data":{"connection_id":"c1"}}`,
			`not json`,
			`{"event":"agent_response","data":{"type":"token","delta":"Hel"}}`,
			`{"event":"agent_response","data":{"type":"token","delta":"lo"}}`,
		}
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		var out wire.Outbound
		if err := ws.ReadJSON(&out); err != nil {
			return
		}
		received <- out
		_, _, _ = ws.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, Options{URL: wsURL(srv), APIKey: "secret"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var kinds []wire.EventKind
	var deltas []string
	for len(kinds) < 3 {
		select {
		case env := <-conn.Envelopes():
			kinds = append(kinds, env.Event)
			if env.PayloadType() == wire.PayloadToken {
				p, _ := env.Payload()
				deltas = append(deltas, p.(wire.Token).Delta)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for envelopes, got %v", kinds)
		}
	}
	if kinds[0] != wire.EventConnectionEstablished || strings.Join(deltas, "") != "Hello" {
		t.Fatalf("unexpected stream kinds=%v deltas=%v", kinds, deltas)
	}
	if got := <-keys; got != "secret" {
		t.Fatalf("api_key=%q", got)
	}

	if err := conn.Send(ctx, wire.NewIngest("sess", "hi", nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case out := <-received:
		if out.Event != wire.EventIngestMessage || out.Data.Content != "hi" || out.Data.SessionID != "sess" {
			raw, _ := json.Marshal(out)
			t.Fatalf("unexpected frame: %s", raw)
		}
	case <-ctx.Done():
		t.Fatalf("server never received ingest_message")
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Send(ctx, wire.NewIngest("sess", "late", nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: %v", err)
	}
}

func TestDialUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), Options{URL: wsURL(srv), APIKey: "bad"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if strings.Contains(err.Error(), "bad") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestServerCloseReportsError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		msg := websocket.FormatCloseMessage(closeAuthExpired, "token expired")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		ws.Close()
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), Options{URL: wsURL(srv)})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case err := <-conn.Errors():
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no error reported")
	}
	if _, ok := <-conn.Envelopes(); ok {
		t.Fatalf("envelopes should be closed after server close")
	}
}

func TestSendAfterServerDropReturnsClosed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// 不发关闭帧直接断开，客户端读到 1006。
		ws.NetConn().Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, Options{URL: wsURL(srv)})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var cause error
	select {
	case cause = <-conn.Errors():
	case <-ctx.Done():
		t.Fatalf("no error reported")
	}
	for i := 0; i < 3; i++ {
		err := conn.Send(ctx, wire.NewIngest("sess", "after drop", nil))
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("send %d after drop: %v", i, err)
		}
		if !strings.Contains(err.Error(), cause.Error()) {
			t.Fatalf("send error should carry the drop reason %q, got %v", cause, err)
		}
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close after drop: %v", err)
	}
}

func TestRedact(t *testing.T) {
	u, err := url.Parse("wss://example.test/ws?api_key=abc&x=1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := redact(u); strings.Contains(got, "abc") {
		t.Fatalf("redact kept key: %s", got)
	}
}
