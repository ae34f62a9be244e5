package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tutor-sketchpad/internal/lesson"
	"tutor-sketchpad/internal/router"
	"tutor-sketchpad/internal/session"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	cfg.Session = session.Config{HonorPacing: false}
	srv := New(router.New(lesson.NewScripted()), cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return frame
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestClearCanvas(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn := dial(t, ts, nil)
	send(t, conn, `{"type":"clear_canvas"}`)
	frame := readFrame(t, conn)
	if frame["type"] != "draw" || frame["cmd"] != "clear" {
		t.Fatalf("unexpected frame %v", frame)
	}
}

func TestScriptedTurn(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn := dial(t, ts, nil)
	send(t, conn, `{"type":"not_a_thing"}`)
	send(t, conn, `{"type":"user_message","text":"Explain the Pythagorean theorem"}`)

	echo := readFrame(t, conn)
	if echo["type"] != "chat_message" || echo["from"] != "user" || echo["message"] != "Explain the Pythagorean theorem" {
		t.Fatalf("unexpected echo %v", echo)
	}

	var tokens strings.Builder
	draws := 0
	for {
		frame := readFrame(t, conn)
		switch frame["type"] {
		case "chat_token":
			tokens.WriteString(frame["token"].(string))
		case "draw":
			draws++
		case "chat_message":
			if _, ok := frame["from"]; ok {
				t.Fatalf("unexpected second echo %v", frame)
			}
			if !strings.Contains(frame["message"].(string), "a² + b² = c²") {
				t.Fatalf("unexpected summary %v", frame)
			}
			if draws == 0 || tokens.Len() == 0 {
				t.Fatalf("expected tokens and drawings before summary, got %d draws", draws)
			}
			return
		default:
			t.Fatalf("unexpected frame %v", frame)
		}
	}
}

func TestFallbackTurn(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn := dial(t, ts, nil)
	send(t, conn, `{"type":"user_message","text":"hello"}`)
	readFrame(t, conn)
	for {
		frame := readFrame(t, conn)
		if frame["type"] == "chat_message" {
			if frame["message"] != router.Suggestion {
				t.Fatalf("unexpected fallback message %v", frame)
			}
			return
		}
		if frame["type"] != "chat_token" {
			t.Fatalf("unexpected frame %v", frame)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, Config{CORSOrigins: []string{"https://tutor.example"}})
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/health", nil)
	req.Header.Set("Origin", "https://tutor.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://tutor.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, Config{CORSOrigins: []string{"https://tutor.example"}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestCloseSessions(t *testing.T) {
	srv, ts := newTestServer(t, Config{})
	conn := dial(t, ts, nil)

	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := srv.CloseSessions(); n != 1 {
		t.Fatalf("expected one closed session, got %d", n)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going away close, got %v", err)
	}
	for srv.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServesStaticClient(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, ts := newTestServer(t, Config{StaticDir: dir})
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
