package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"dino_classifier/internal/app/di"
	"dino_classifier/internal/app/router"
	classifyhandler "dino_classifier/internal/feature/classify/transport/handler"
	"dino_classifier/internal/feature/classify/usecase"
	"dino_classifier/internal/platform/config"
	"dino_classifier/internal/platform/http/middleware"
	"dino_classifier/internal/platform/logging"
	"dino_classifier/internal/platform/metrics"
	infraredis "dino_classifier/internal/platform/redis"
	"dino_classifier/internal/shared/ratelimiter"
)

// multipartOverhead はアップロード上限に加えて許容するリクエストボディのバイト数です。
const multipartOverhead = 1 << 20

func main() {
	os.Exit(run())
}

// run はサーバーを起動し、終了コードを返します。deferはos.Exitの前にすべて実行されます。
func run() int {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfg := config.LoadConfig()

	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Println(err)
		return 1
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	// モデル（起動時に1回だけ読み込む。失敗したら起動しない）
	model, err := di.NewONNXPredictor()
	if err != nil {
		slog.Error("failed to load model", "error", err)
		return 1
	}
	defer func() {
		if err := model.Close(); err != nil {
			slog.Error("failed to release model", "error", err)
		}
	}()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(context.Background(), infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without prediction cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	m := metrics.New()
	predictor := di.NewPredictor(model, rdb, cfg.PredictionCacheTTL)

	// Usecase
	classifyUC := usecase.NewClassifyUsecase(predictor,
		usecase.WithThreshold(cfg.ConfidenceThreshold),
		usecase.WithMaxImageSize(cfg.MaxUploadBytes),
		usecase.WithMaxPixels(cfg.MaxImagePixels),
		usecase.WithRecorder(m),
	)

	// Handler
	uploadLimit := classifyhandler.WithMaxUploadBytes(int64(cfg.MaxUploadBytes))
	classifyH := classifyhandler.NewClassifyHandler(classifyUC, uploadLimit)
	pageH := classifyhandler.NewPageHandler(classifyUC, uploadLimit)

	store, err := ratelimiter.NewStore(rdb)
	if err != nil {
		slog.Error("failed to create rate limiter store", "error", err)
		return 1
	}
	limit, err := ratelimiter.NewMiddleware(cfg.RateLimit, store)
	if err != nil {
		slog.Error("failed to configure rate limiter", "error", err)
		return 1
	}

	// ルータ生成
	r := router.NewRouter(classifyH, pageH, router.Options{
		Ready:              model.Ready,
		Observer:           m,
		Metrics:            m.Handler(),
		RateLimit:          limit,
		CORS:               middleware.CORS(cfg.CORSAllowOrigins),
		MaxMultipartMemory: int64(cfg.MaxUploadBytes),
		// マルチパートのヘッダ分の余裕を持たせる
		MaxBodyBytes:   int64(cfg.MaxUploadBytes) + multipartOverhead,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Port,
			"threshold", cfg.ConfidenceThreshold,
			"classes", predictor.Labels(),
			"cache", rdb != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		slog.Error("server failed", "error", err)
		code = 1
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		code = 1
	}
	return code
}
