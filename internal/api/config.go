package api

import "github.com/FocuswithJustin/VerseTip/core/ref"

// Config holds server configuration.
type Config struct {
	Port              int
	Corpus            string     // corpus file reloaded by POST /reload
	AllowedOrigins    []string   // CORS and websocket origins (empty = allow all)
	CacheSize         int        // memoized results (0 = default)
	MaxNameWords      int        // scanner name window (0 = ref.MaxNameWords)
	MaxBodyBytes      int64      // POST /scan body limit (0 = 1 MiB)
	RateLimitRequests int        // requests per minute (0 = disabled)
	RateLimitBurst    int        // burst size
	Auth              AuthConfig // protects POST /reload
	WebSocket         WebSocketSecurityConfig
}

const defaultMaxBodyBytes = 1 << 20

func (c Config) withDefaults() Config {
	if c.MaxNameWords <= 0 {
		c.MaxNameWords = ref.MaxNameWords
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.RateLimitRequests > 0 && c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
	if c.WebSocket.MaxMessageRate == 0 && c.WebSocket.MaxMessageSize == 0 {
		ws := DefaultWebSocketSecurityConfig()
		if len(c.AllowedOrigins) > 0 {
			ws.AllowedOrigins = c.AllowedOrigins
		}
		c.WebSocket = ws
	}
	return c
}
