// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"dino_classifier/internal/feature/classify/adapters/onnx"
	"dino_classifier/internal/feature/classify/usecase"
	"dino_classifier/internal/platform/cache"
)

// NewONNXPredictor loads the model configured by MODEL_PATH and MODEL_METADATA_PATH.
// The caller owns the returned predictor and must Close it at shutdown.
func NewONNXPredictor() (*onnx.ONNXPredictor, error) {
	return onnx.NewONNXPredictor(onnx.LoadConfig())
}

// modelIdentifier is implemented by predictors that can name the exact model they run.
type modelIdentifier interface {
	ModelID() string
}

// NewPredictor wraps the model with a Redis cache when Redis is available.
// Otherwise, it returns the model itself.
// The cache namespace includes the model identity so a swapped model never reads stale predictions.
func NewPredictor(model usecase.Predictor, rdb *redis.Client, ttl time.Duration) usecase.Predictor {
	if rdb != nil {
		return cache.NewCachingPredictor(rdb, ttl, model, cacheNamespace(model))
	}
	return model
}

func cacheNamespace(model usecase.Predictor) string {
	if m, ok := model.(modelIdentifier); ok && m.ModelID() != "" {
		return "predictions:" + m.ModelID()
	}
	return "predictions"
}
