package middleware

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/utils"

	redis "github.com/redis/go-redis/v9"
)

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

// clientIP resolves the caller's IP. X-Forwarded-For / X-Real-IP are
// only honored when the direct peer is in trustedCIDR, so an untrusted
// client cannot spoof its way past the limiter.
func clientIP(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WebhookLimiter rate-limits the gateway webhook endpoint per source
// IP: sliding window in memory, or fixed-window counters in Redis when
// a client is provided (cross-process coordination behind a load
// balancer). Whitelisted IPs bypass the limit. A Redis outage never
// rejects traffic; the limiter falls back to the in-memory window.
type WebhookLimiter struct {
	maxReq    int
	window    time.Duration
	whitelist map[string]bool
	rdb       *redis.Client

	mu    sync.Mutex
	state map[string]timestamps // ip -> request times
}

func NewWebhookLimiter(maxReq int, window time.Duration, whitelist []string, rdb *redis.Client) *WebhookLimiter {
	wl := make(map[string]bool)
	for _, ip := range whitelist {
		wl[ip] = true
	}
	return &WebhookLimiter{
		maxReq:    maxReq,
		window:    window,
		whitelist: wl,
		rdb:       rdb,
		state:     make(map[string]timestamps),
	}
}

// allowRedis counts the request in Redis. ok=false means Redis could
// not answer and the caller should fall back to the in-memory window.
func (l *WebhookLimiter) allowRedis(ctx context.Context, ip string) (allowed, ok bool) {
	key := fmt.Sprintf("webhook:rl:%s:%d", ip, time.Now().UnixNano()/int64(l.window))
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, false
	}
	if n == 1 {
		_ = l.rdb.Expire(ctx, key, l.window).Err()
	}
	return n <= int64(l.maxReq), true
}

func (l *WebhookLimiter) allowMemory(ip string) bool {
	now := nowUnix()
	cutoff := now - int64(l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	var filtered timestamps
	for _, ts := range l.state[ip] {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	filtered = append(filtered, now)
	l.state[ip] = filtered
	return len(filtered) <= l.maxReq
}

func (l *WebhookLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, nil)
		if l.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}

		allowed := false
		if l.rdb != nil {
			var ok bool
			if allowed, ok = l.allowRedis(r.Context(), ip); !ok {
				log.Printf("[ratelimit] redis unavailable, using in-memory window")
				allowed = l.allowMemory(ip)
			}
		} else {
			allowed = l.allowMemory(ip)
		}

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{Success: false, Message: "Too many webhook requests. Please try again later."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRedisClient builds the optional shared Redis client from env. It
// returns nil when addr is empty; a failed ping logs a warning but does
// not fail startup, matching the limiter's fallback behavior.
func NewRedisClient(addr, pass string, db int) *redis.Client {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		log.Printf("[ratelimit] warning: redis ping failed: %v", err)
	}
	return rc
}
