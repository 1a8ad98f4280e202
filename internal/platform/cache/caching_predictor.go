// Package cache provides caching implementations for feature interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"dino_classifier/internal/feature/classify/domain/entity"
	"dino_classifier/internal/feature/classify/usecase"
)

// CachingPredictor decorates a Predictor with Redis caching.
// Inference is deterministic for a given model and normalized image, so the
// prediction is keyed by a digest of the normalized pixels.
type CachingPredictor struct {
	inner     usecase.Predictor
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.Predictor = (*CachingPredictor)(nil)

// NewCachingPredictor decorates a Predictor with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "predictions".
func NewCachingPredictor(rdb *redis.Client, ttl time.Duration, inner usecase.Predictor, namespace string) *CachingPredictor {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if namespace == "" {
		namespace = "predictions"
	}
	return &CachingPredictor{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Labels returns the label set of the wrapped predictor.
func (c *CachingPredictor) Labels() []string {
	return c.inner.Labels()
}

// Predict returns a cached prediction when present, otherwise runs the inner predictor and stores the result.
func (c *CachingPredictor) Predict(ctx context.Context, img *entity.NormalizedImage) (*entity.Prediction, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Predict(ctx, img)
	}

	key := c.cacheKey(img)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Prediction
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && err != redis.Nil {
		slog.Warn("prediction cache read failed", "error", err)
	}

	// 2) Fallback to the model
	out, err := c.inner.Predict(ctx, img)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key from the normalized pixels and their shape.
func (c *CachingPredictor) cacheKey(img *entity.NormalizedImage) string {
	h := sha256.New()
	fmt.Fprintf(h, "%dx%d:", img.Width, img.Height)
	h.Write(img.Pix)
	return fmt.Sprintf("%s:%s", c.namespace, hex.EncodeToString(h.Sum(nil)))
}
