package api

import (
	"net/http"
	"strconv"
	"sync"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const userContextKey = "current_user"

// Identity 身份中间件：认证与签发 token 由外部网关负责，这里只解析网关注入的
// X-User-ID 头并确认它指向一个活跃用户。客户端传的任何 owner 字段后续一律不信
func Identity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
			return
		}

		var user model.User
		if err := repository.Alive(db).First(&user, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or inactive user"})
			return
		}
		c.Set(userContextKey, &user)
		c.Next()
	}
}

// currentUser 取身份中间件解析出的用户
func currentUser(c *gin.Context) *model.User {
	u, _ := c.Get(userContextKey)
	return u.(*model.User)
}

// RateLimit 按客户端 IP 的令牌桶限流（作答入口用，防刷票）
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters[key]; ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(rps), burst)
		limiters[key] = l
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
