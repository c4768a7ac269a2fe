package preview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testDocument = `
state:
  open: false
  name: world
template:
  - element: button
    alias: toggle
    on: {click: "toggle:open"}
  - element: p
    children: [{text: "hello {{name}}"}]
  - if: open
    then: [{element: span, children: [{text: open}]}]
`

func writeDocument(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server, string) {
	t.Helper()
	path := writeDocument(t, testDocument)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	s, err := New(path, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})
	return s, ts, path
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(out)
}

func TestServer_Page(t *testing.T) {
	_, ts, _ := newTestServer(t, WithTitle("<demo>"))

	status, body := get(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("GET / status = %d", status)
	}
	for _, want := range []string{
		"<title>&lt;demo&gt;</title>",
		`<main id="vtree-root"><button></button><p>hello world</p></main>`,
		"new WebSocket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("GET / missing %q", want)
		}
	}
}

func TestServer_StateAndEvents(t *testing.T) {
	_, ts, _ := newTestServer(t)

	status, body := post(t, ts.URL+"/state", `{"name": "vtree"}`)
	if status != http.StatusOK || !strings.Contains(body, `"name":"vtree"`) {
		t.Fatalf("POST /state = %d %s", status, body)
	}
	if _, frag := get(t, ts.URL+"/fragment"); frag != `<button></button><p>hello vtree</p>` {
		t.Errorf("fragment = %q", frag)
	}

	if status, body := post(t, ts.URL+"/events/toggle/click", ""); status != http.StatusNoContent {
		t.Fatalf("POST event = %d %s", status, body)
	}
	if _, frag := get(t, ts.URL+"/fragment"); frag != `<button></button><p>hello vtree</p><span>open</span>` {
		t.Errorf("fragment = %q", frag)
	}

	_, body = get(t, ts.URL+"/state")
	var state map[string]any
	if err := json.Unmarshal([]byte(body), &state); err != nil {
		t.Fatal(err)
	}
	if state["open"] != true {
		t.Errorf("state open = %v, want true", state["open"])
	}

	if status, body := post(t, ts.URL+"/events/missing/click", ""); status != http.StatusNotFound || !strings.Contains(body, `"code":"E103"`) {
		t.Errorf("POST missing event = %d %s", status, body)
	}
	if status, _ := post(t, ts.URL+"/state", `[1]`); status != http.StatusBadRequest {
		t.Errorf("POST bad state = %d, want 400", status)
	}
}

func TestServer_WebSocketStream(t *testing.T) {
	s, ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	read := func() Message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return msg
	}

	// the last render is replayed on connect
	if msg := read(); msg.Type != MessageRender || !strings.Contains(msg.HTML, "hello world") {
		t.Fatalf("replayed message = %+v", msg)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	post(t, ts.URL+"/events/toggle/click", "")
	msg := read()
	if msg.Type != MessageRender || !strings.Contains(msg.HTML, "<span>open</span>") || msg.Version != 1 {
		t.Errorf("render message = %+v", msg)
	}
}

func TestHub_ReplayNeverFollowsNewerBroadcast(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(hub)
	defer ts.Close()
	defer hub.Close()

	const total = 200
	hub.Broadcast(Message{Type: MessageRender, Version: 1})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := uint64(2); v <= total; v++ {
			hub.Broadcast(Message{Type: MessageRender, Version: v})
		}
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	<-done

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var prev uint64
	for prev < total {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v (last version %d)", err, prev)
		}
		if msg.Version < prev {
			t.Fatalf("version %d arrived after %d", msg.Version, prev)
		}
		prev = msg.Version
	}
}

func TestServer_ReloadKeepsViewOnError(t *testing.T) {
	s, _, path := newTestServer(t)
	before := s.View()

	if err := os.WriteFile(path, []byte("template:\n  - bogus: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Fatal("Reload() succeeded on an invalid document")
	}
	if s.View() != before {
		t.Error("view replaced after a failed reload")
	}

	if err := os.WriteFile(path, []byte("template:\n  - text: fresh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := s.View().HTML(); got != "fresh" {
		t.Errorf("HTML() = %q, want fresh", got)
	}
}

func TestServer_Metrics(t *testing.T) {
	_, ts, _ := newTestServer(t)
	post(t, ts.URL+"/events/toggle/click", "")

	_, body := get(t, ts.URL+"/metrics")
	for _, want := range []string{"vtree_renders_total", "vtree_nodes_compiled_total", `vtree_http_requests_total{code="200",method="POST",route="/events/{alias}/{event}"}`} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}

func TestServer_WithoutMetrics(t *testing.T) {
	_, ts, _ := newTestServer(t, WithoutMetrics())
	if code, _ := get(t, ts.URL+"/metrics"); code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", code)
	}
	if code, _ := get(t, ts.URL+"/fragment"); code != http.StatusOK {
		t.Errorf("/fragment status = %d", code)
	}
}

func TestWatcher(t *testing.T) {
	path := writeDocument(t, "a")
	changes := make(chan string, 4)
	w := NewWatcher(path, 10*time.Millisecond, func(p string) { changes <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// make the change visible even on coarse mtime filesystems
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changes:
		if got != path {
			t.Errorf("change path = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}
