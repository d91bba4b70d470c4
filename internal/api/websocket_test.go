package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDefaultWebSocketSecurityConfig(t *testing.T) {
	config := DefaultWebSocketSecurityConfig()
	if len(config.AllowedOrigins) == 0 || config.MaxMessageRate <= 0 || config.MaxMessageSize <= 0 {
		t.Errorf("defaults = %+v", config)
	}
}

func TestWebSocketConfigFollowsAllowedOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"https://example.org"}}.withDefaults()
	if len(cfg.WebSocket.AllowedOrigins) != 1 || cfg.WebSocket.AllowedOrigins[0] != "https://example.org" {
		t.Errorf("websocket origins = %v", cfg.WebSocket.AllowedOrigins)
	}
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		expected       bool
	}{
		{"empty origin denied", "", []string{"*"}, false},
		{"wildcard allows any origin", "https://example.com", []string{"*"}, true},
		{"exact match", "https://example.com", []string{"https://example.com"}, true},
		{"different origin denied", "https://evil.com", []string{"https://example.com"}, false},
		{"subdomain wildcard", "https://app.example.com", []string{"*.example.com"}, true},
		{"subdomain wildcard needs a dot", "https://badexample.com", []string{"*.example.com"}, false},
		{"no allowed origins", "https://example.com", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, tt.allowedOrigins); got != tt.expected {
				t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowedOrigins, got, tt.expected)
			}
		})
	}
}

func TestValidateAuthForWebSocket(t *testing.T) {
	key := "test-api-key-12345678"
	auth := AuthConfig{Enabled: true, APIKey: key}

	tests := []struct {
		name   string
		config WebSocketSecurityConfig
		header string
		query  string
		ok     bool
	}{
		{"auth not required", WebSocketSecurityConfig{}, "", "", true},
		{"required but not configured", WebSocketSecurityConfig{RequireAuth: true}, key, "", false},
		{"missing key", WebSocketSecurityConfig{RequireAuth: true, AuthConfig: auth}, "", "", false},
		{"header key", WebSocketSecurityConfig{RequireAuth: true, AuthConfig: auth}, key, "", true},
		{"query key", WebSocketSecurityConfig{RequireAuth: true, AuthConfig: auth}, "", key, true},
		{"wrong key", WebSocketSecurityConfig{RequireAuth: true, AuthConfig: auth}, "nope", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?api_key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			if got := ValidateAuthForWebSocket(req, tt.config) == ""; got != tt.ok {
				t.Errorf("ok = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestWebSocketRateLimiter(t *testing.T) {
	rl := NewWebSocketRateLimiter()
	client := &Client{}

	if rl.Allow(client) {
		t.Error("unregistered client should be denied")
	}

	rl.Register(client, 2)
	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow(client) {
			allowed++
		}
	}
	if allowed != 4 {
		t.Errorf("allowed %d messages, want burst of 4", allowed)
	}

	rl.Unregister(client)
	if rl.Allow(client) {
		t.Error("unregistered client should be denied")
	}
}

func dial(t *testing.T, url string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func TestWebSocketSnapshotPublished(t *testing.T) {
	srv, _ := newTestServer(t, Config{Corpus: "bible.json"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := dial(t, ts.URL, http.Header{"Origin": {"http://localhost"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var body APIResponse
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	var created ReloadJob
	decodeData(t, body, &created)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if msg.Type != MessageSnapshotPublished || msg.Generation != 2 || msg.ReloadID != created.ID || msg.Fingerprint == "" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("message has no timestamp")
	}
}

func TestWebSocketRejectsOrigin(t *testing.T) {
	srv, _ := newTestServer(t, Config{AllowedOrigins: []string{"https://example.org"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, resp, err := dial(t, ts.URL, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}

func TestHubStopsClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	if !hub.join(c) {
		t.Fatal("join failed on a running hub")
	}
	hub.Broadcast(Message{Type: MessageReloadFailed, Error: "boom"})

	select {
	case data := <-c.send:
		if !strings.Contains(string(data), `"reload_failed"`) {
			t.Errorf("message = %s", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast received")
	}

	cancel()
	<-stopped
	if _, ok := <-c.send; ok {
		t.Error("client channel not closed on stop")
	}
	if hub.join(&Client{hub: hub, send: make(chan []byte)}) {
		t.Error("join succeeded on a stopped hub")
	}
	hub.leave(c)
}
