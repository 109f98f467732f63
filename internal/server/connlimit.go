package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
)

// Limiter counts held slots per IP and in total. The service uses one for
// open websocket connections and one for maps being generated.
type Limiter struct {
	mu         sync.Mutex
	ipCounts   map[string]int
	totalCount int
	maxPerIP   int
	maxTotal   int
}

func newLimiter(maxPerIP, maxTotal int) *Limiter {
	return &Limiter{
		ipCounts: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// NewConnLimiter creates a limiter for websocket connections.
func NewConnLimiter(cfg config.ConnectionsConfig) *Limiter {
	return newLimiter(cfg.MaxPerIP, cfg.MaxTotal)
}

// NewGenerationLimiter creates a limiter for concurrent map generations.
func NewGenerationLimiter(cfg config.GenerationConfig) *Limiter {
	return newLimiter(cfg.MaxPerIP, cfg.MaxTotal)
}

// TryAcquire attempts to take a slot for the given IP.
// Returns false if it would exceed either limit; 0 limits are unlimited.
func (c *Limiter) TryAcquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.totalCount >= c.maxTotal {
		return false
	}
	if c.maxPerIP > 0 && c.ipCounts[ip] >= c.maxPerIP {
		return false
	}

	c.ipCounts[ip]++
	c.totalCount++
	return true
}

// Release returns a slot for the given IP.
func (c *Limiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ipCounts[ip] > 0 {
		c.ipCounts[ip]--
		if c.ipCounts[ip] == 0 {
			delete(c.ipCounts, ip)
		}
	}
	if c.totalCount > 0 {
		c.totalCount--
	}
}

// GetStats returns the slots held in total and the number of IPs holding any.
func (c *Limiter) GetStats() (totalCount int, ipCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCount, len(c.ipCounts)
}

// GetIPCount returns the slots held by a specific IP.
func (c *Limiter) GetIPCount(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ipCounts[ip]
}

// extractIP extracts the IP address from a remote address string (ip:port format).
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// getRealIP extracts the client IP from an HTTP request, preferring
// X-Forwarded-For, then X-Real-IP, then the remote address.
func getRealIP(r *http.Request) string {
	// "client, proxy1, proxy2": the first entry is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if clientIP := strings.TrimSpace(strings.Split(xff, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}
