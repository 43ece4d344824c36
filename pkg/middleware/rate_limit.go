package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	// Visitors not seen for this long are forgotten
	TTL time.Duration
}

type visitors struct {
	mu    sync.Mutex
	cache *ttlcache.Cache
	rps   rate.Limit
	burst int
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	if l, err := v.cache.Get(ip); err == nil {
		return l.(*rate.Limiter)
	}

	l := rate.NewLimiter(v.rps, v.burst)
	v.cache.Set(ip, l)
	return l
}

// RateLimiterMiddleware limits requests per client IP. A zero
// RequestsPerSecond disables the limiter.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}

	if config.Burst == 0 {
		config.Burst = config.RequestsPerSecond * 2
	}

	cache := ttlcache.NewCache()
	cache.SetTTL(config.TTL)

	v := &visitors{
		cache: cache,
		rps:   rate.Limit(config.RequestsPerSecond),
		burst: config.Burst,
	}

	return func(c *gin.Context) {
		if !v.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"msg":       "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
