package middleware

import (
	"net/http"
	"sync"
	"time"

	"tenant-api/internal/logger"
	"tenant-api/internal/metrics"
	"tenant-api/internal/utils"
)

// 文档注释：令牌桶限流（每秒）
// 背景：聚类为 O(n²) 计算，峰值请求会拖垮 CPU；按环境变量开关与速率配置。
// 约束：不做排队，超额请求直接返回 429；令牌在秒边界整体重置。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 1
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Limit 包装处理器，令牌耗尽时返回 429
func Limit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			metrics.RateLimitedTotal.Inc()
			logger.L().Debug("rate_limited", "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBody 限制请求体大小，超限时由 handler 读取报错
func MaxBody(n int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap：按环境变量组装入口中间件（请求体上限 → 限流）
func Wrap(next http.Handler) http.Handler {
	h := MaxBody(int64(utils.EnvInt("MAX_BODY_MB", 32))<<20, next)
	if utils.EnvBool("RATE_LIMIT_ENABLED", false) {
		qps := utils.EnvInt("RATE_LIMIT_QPS", 20)
		logger.L().Info("rate_limit_enabled", "qps", qps)
		h = Limit(NewTokenBucket(qps), h)
	}
	return h
}
