// middleware.go

package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
)

// RateLimiter 请求频率限制器
type RateLimiter struct {
	clients map[string]*ClientInfo
	mutex   sync.Mutex

	RequestsPerMinute int
	CleanupInterval   time.Duration

	now func() time.Time
}

// ClientInfo 客户端请求记录
type ClientInfo struct {
	Requests []time.Time
	LastSeen time.Time
}

// NewRateLimiter 创建频率限制器
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		clients:           make(map[string]*ClientInfo),
		RequestsPerMinute: requestsPerMinute,
		CleanupInterval:   5 * time.Minute,
		now:               time.Now,
	}
}

// Middleware 频率限制中间件
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"message": fmt.Sprintf("请求过于频繁，每分钟最多允许 %d 次请求", rl.RequestsPerMinute),
				"code":    "RATE_LIMIT_EXCEEDED",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow 记录一次请求并返回是否允许
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	client, exists := rl.clients[ip]
	if !exists {
		client = &ClientInfo{}
		rl.clients[ip] = client
	}
	client.LastSeen = now

	// 只保留最近一分钟的请求
	cutoff := now.Add(-time.Minute)
	valid := client.Requests[:0]
	for _, t := range client.Requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	client.Requests = valid

	if len(client.Requests) >= rl.RequestsPerMinute {
		return false
	}
	client.Requests = append(client.Requests, now)
	return true
}

// Cleanup 清理长时间未访问的客户端
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-2 * rl.CleanupInterval)
	for ip, client := range rl.clients {
		if client.LastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// clientIP 获取客户端IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SecurityMiddleware 安全头中间件
func SecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Server", "BorderBounce")
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware CORS中间件
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// 预检请求
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware 请求日志中间件
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		logging.Log.Debugf("%s %s %d %v", r.Method, r.URL.Path, recorder.statusCode, time.Since(start))
	})
}

// responseRecorder 响应记录器
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader 记录状态码
func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// Hijack WebSocket升级需要接管连接
func (rr *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("响应不支持Hijack")
	}
	rr.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// chain 按顺序套用中间件，第一个在最外层
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Log.Errorf("写入响应失败: %v", err)
	}
}
