package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/VerseTip/internal/logging"
)

// WebSocketSecurityConfig holds WebSocket-specific security configuration.
type WebSocketSecurityConfig struct {
	// AllowedOrigins lists allowed origin patterns: exact origins,
	// "*.example.com" subdomain wildcards or "*" for any origin.
	AllowedOrigins []string

	// MaxMessageRate is the maximum number of messages per second per client.
	MaxMessageRate int

	// MaxMessageSize is the maximum inbound message size in bytes.
	MaxMessageSize int64

	// RequireAuth requires the API key before upgrading.
	RequireAuth bool
	AuthConfig  AuthConfig
}

// DefaultWebSocketSecurityConfig returns the default configuration. The
// hub only pushes notifications, so clients have little reason to talk.
func DefaultWebSocketSecurityConfig() WebSocketSecurityConfig {
	return WebSocketSecurityConfig{
		AllowedOrigins: []string{"*"},
		MaxMessageRate: 10,
		MaxMessageSize: 4096,
	}
}

// WebSocketRateLimiter tracks inbound message rates per client.
type WebSocketRateLimiter struct {
	clients map[*Client]*tokenBucket
	mu      sync.RWMutex
}

// NewWebSocketRateLimiter creates a new WebSocket rate limiter.
func NewWebSocketRateLimiter() *WebSocketRateLimiter {
	return &WebSocketRateLimiter{clients: make(map[*Client]*tokenBucket)}
}

// Register starts limiting client to messagesPerSecond with a burst of
// twice that.
func (rl *WebSocketRateLimiter) Register(client *Client, messagesPerSecond int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rate := float64(messagesPerSecond)
	rl.clients[client] = newTokenBucket(2*rate, rate)
}

// Unregister removes a client from rate limiting.
func (rl *WebSocketRateLimiter) Unregister(client *Client) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, client)
}

// Allow reports whether another message from client is allowed.
// Unregistered clients are denied.
func (rl *WebSocketRateLimiter) Allow(client *Client) bool {
	rl.mu.RLock()
	bucket, ok := rl.clients[client]
	rl.mu.RUnlock()
	return ok && bucket.allow()
}

// isOriginAllowed checks origin against the allowed patterns.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// Browsers always send Origin for WebSocket
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*", origin == allowed:
			return true
		case strings.HasPrefix(allowed, "*."):
			// "*.example.com" matches "https://a.example.com" but not
			// "https://badexample.com".
			if strings.HasSuffix(origin, allowed[1:]) {
				return true
			}
		}
	}
	return false
}

// CheckOriginWithConfig creates a CheckOrigin function based on config.
func CheckOriginWithConfig(config WebSocketSecurityConfig) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if !isOriginAllowed(origin, config.AllowedOrigins) {
			logging.SecurityEvent("origin_rejected", "websocket", "origin", origin)
			return false
		}
		return true
	}
}

// ValidateAuthForWebSocket checks authentication before the upgrade. It
// returns a reason when authentication fails and "" on success.
func ValidateAuthForWebSocket(r *http.Request, config WebSocketSecurityConfig) string {
	if !config.RequireAuth {
		return ""
	}
	if !config.AuthConfig.Enabled {
		return "Authentication required but not configured"
	}

	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" {
		// Browser websocket clients cannot set headers
		apiKey = r.URL.Query().Get("api_key")
	}
	if apiKey == "" {
		return "Missing API key (X-API-Key header or api_key query parameter)"
	}
	if !constantTimeCompare(apiKey, config.AuthConfig.APIKey) {
		return "Invalid API key"
	}
	return ""
}

// SecureWebSocketHandler upgrades connections that pass the origin and
// authentication checks and registers them with hub.
func SecureWebSocketHandler(hub *Hub, config WebSocketSecurityConfig, rateLimiter *WebSocketRateLimiter) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     CheckOriginWithConfig(config),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if reason := ValidateAuthForWebSocket(r, config); reason != "" {
			logging.SecurityEvent("unauthorized_request", "websocket",
				"client_ip", getClientIP(r),
				"reason", reason)
			http.Error(w, "Unauthorized: "+reason, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("websocket upgrade failed", "error", err)
			return
		}
		conn.SetReadLimit(config.MaxMessageSize)

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}
		if !hub.join(client) {
			conn.Close()
			return
		}
		rateLimiter.Register(client, config.MaxMessageRate)

		go client.writePump()
		go client.readPump(rateLimiter)
	}
}

// readPump drains inbound messages, enforcing the message rate. The hub is
// broadcast-only, so their content is ignored.
func (c *Client) readPump(rateLimiter *WebSocketRateLimiter) {
	defer func() {
		rateLimiter.Unregister(c)
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if !rateLimiter.Allow(c) {
			logging.SecurityEvent("rate_limit_exceeded", "websocket")
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}
	}
}
