package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== ThrottleLimiter 敏感端点限流器 ====================

// ThrottleLimiter 冷却式限流器
// 登录、验证码类端点按「客户端 + 端点」维度限制最小间隔，
// 防止验证码爆破和邮件轰炸
type ThrottleLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &ThrottleLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *ThrottleLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "login:10.0.0.1"
// interval: 冷却间隔
func (r *ThrottleLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Sweep 清理最后访问早于 maxAge 的条目，返回清理数量
// 条目随客户端 IP 增长，不清理会无限膨胀；冷却早已结束的条目
// 删掉后重建代价只是一次 LoadOrStore
func (r *ThrottleLimiter) Sweep(maxAge time.Duration) int {
	now := time.Now()
	removed := 0
	r.locks.Range(func(key, value interface{}) bool {
		entry := value.(*lockEntry)
		entry.mu.Lock()
		stale := now.Sub(entry.lastTime) > maxAge
		entry.mu.Unlock()
		if stale {
			r.locks.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// ==================== Gin 中间件 ====================

// Throttle 端点限流中间件
// scope: 端点标识，如 "login" / "resend_otp"
func Throttle(scope string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		result := globalLimiter.Check(key, interval)
		if !result.Allowed {
			c.Header("Retry-After", result.RetryAfter.Round(time.Second).String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":        429,
				"kind":        "rate_limited",
				"message":     "请求过于频繁，请稍后重试",
				"retry_after": int(result.RetryAfter.Seconds()) + 1,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
