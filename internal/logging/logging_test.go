package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// captureLogOutput temporarily redirects the default logger to a buffer.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLoggerWriter(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		format    Format
		wantDebug bool
		wantJSON  bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true},
		{"info json", LevelInfo, FormatJSON, false, true},
		{"debug text", LevelDebug, FormatText, true, false},
		{"invalid level falls back to info", Level(999), FormatJSON, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerWriter(tt.level, tt.format, &buf)
			defer InitLogger(LevelInfo, FormatJSON)

			Debug("debug message")
			Info("info message", "key", "value")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v: %s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "info message") {
				t.Errorf("info message missing: %s", out)
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", got, tt.wantJSON, out)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWriter(LevelInfo, FormatJSON, &buf)
	defer InitLogger(LevelInfo, FormatJSON)

	Info("stamp")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "error": LevelError}
	for in, want := range levels {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}

	if f, err := ParseFormat("Text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(Text) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestRequestIDContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"with id", WithRequestID(context.Background(), "abc"), "abc"},
		{"without id", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), RequestIDKey, 12345), ""},
	}
	for _, tt := range tests {
		if got := GetRequestID(tt.ctx); got != tt.want {
			t.Errorf("%s: GetRequestID() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	fns := map[string]func(){
		"DebugContext": func() { DebugContext(ctx, "m") },
		"InfoContext":  func() { InfoContext(ctx, "m") },
		"WarnContext":  func() { WarnContext(ctx, "m") },
		"ErrorContext": func() { ErrorContext(ctx, "m") },
	}
	for name, fn := range fns {
		if out := captureLogOutput(fn); !strings.Contains(out, "req-42") {
			t.Errorf("%s output missing request id: %s", name, out)
		}
	}
}

func TestDomainEvents(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		want []string
	}{
		{
			name: "CorpusLoaded",
			fn:   func() { CorpusLoaded("bible.json", "abc123", 2, 66, 31102, 150*time.Millisecond) },
			want: []string{"corpus_loaded", "bible.json", "abc123", `"books":66`, `"generation":2`},
		},
		{
			name: "CorpusError",
			fn:   func() { CorpusError("bad.json", errors.New("validation failed"), "attempt", 1) },
			want: []string{"corpus_error", "bad.json", "validation failed", `"attempt":1`},
		},
		{
			name: "ScanCompleted",
			fn:   func() { ScanCompleted("page.html", 3, 2) },
			want: []string{"scan_completed", "page.html", `"spans":3`, `"resolved":2`},
		},
		{
			name: "WebSocketEvent",
			fn:   func() { WebSocketEvent("client_connected", 5) },
			want: []string{"websocket_event", "client_connected", `"client_count":5`},
		},
		{
			name: "ServerStartup",
			fn:   func() { ServerStartup("http", "tcp", 8080) },
			want: []string{"server_startup", `"port":8080`},
		},
		{
			name: "SecurityEvent",
			fn:   func() { SecurityEvent("origin_rejected", "websocket", "origin", "evil.example") },
			want: []string{"security_event", "origin_rejected", "evil.example", "WARN"},
		},
		{
			name: "HTTPRequest",
			fn:   func() { HTTPRequest("GET", "/resolve", "127.0.0.1:1234", 200, time.Millisecond) },
			want: []string{"http_request", "GET", "/resolve", `"status_code":200`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureLogOutput(tt.fn)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q: %s", w, out)
				}
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound || rec.Code != http.StatusNotFound {
		t.Errorf("status = %d/%d, want first WriteHeader to win", rw.statusCode, rec.Code)
	}

	rec2 := httptest.NewRecorder()
	rw2 := &responseWriter{ResponseWriter: rec2, statusCode: http.StatusOK}
	if _, err := rw2.Write([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	if !rw2.written || rec2.Body.String() != "hi" {
		t.Errorf("Write did not pass through: %q", rec2.Body.String())
	}

	if _, _, err := rw2.Hijack(); err == nil {
		t.Error("Hijack on a recorder should fail")
	}
	if rw2.Unwrap() != rec2 {
		t.Error("Unwrap should return the wrapped writer")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("generated request id %q is not a uuid", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Error("response header does not echo the request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-id" {
		t.Errorf("client request id not kept: %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) > maxRequestIDLen {
		t.Error("oversized client request id was accepted")
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	out := captureLogOutput(func() {
		req := httptest.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set(RequestIDHeader, "combined-id")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	})

	for _, want := range []string{"http_request", "/scan", "combined-id", `"status_code":418`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}
