// Package ratelimiter は分類エンドポイントに対するクライアント単位のレート制限を提供します。
package ratelimiter

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRate はRATE_LIMITが未設定の場合のレートです（1分あたり30回）。
const DefaultRate = "30-M"

// NewStore はRedisが利用可能ならRedis、そうでなければメモリ上のストアを生成します。
func NewStore(rdb *redis.Client) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStore(), nil
	}
	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// NewMiddleware は "30-M" 形式のレートからginミドルウェアを生成します。
// 上限に達した場合は429とJSONのエラーを返します。
func NewMiddleware(rate string, store limiter.Store) (gin.HandlerFunc, error) {
	if rate == "" {
		rate = DefaultRate
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	slog.Info("rate limiter configured", "rate", rate, "limit", r.Limit, "period", r.Period)

	instance := limiter.New(store, r)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			slog.Warn("rate limit reached", "client_ip", c.ClientIP(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please retry later"})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// ストア障害でサービスを止めない
			slog.Error("rate limiter store failed", "error", err)
			c.Next()
		}),
	), nil
}
