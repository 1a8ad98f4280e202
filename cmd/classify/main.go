// Command classify はサーバーを起動せずに画像ファイルを一括で分類し、結果をJSON Linesで出力します。
//
//	go run ./cmd/classify images/trike.png images/rex.jpg
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"dino_classifier/internal/app/di"
	"dino_classifier/internal/feature/classify/domain/entity"
	"dino_classifier/internal/feature/classify/transport/http/dto"
	"dino_classifier/internal/feature/classify/usecase"
	"dino_classifier/internal/platform/config"
	"dino_classifier/internal/platform/logging"
)

type result struct {
	File string `json:"file"`
	dto.ClassificationResponse
	Error string `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run は引数の画像を分類し、1件でも失敗した場合は1を返します。
func run(paths []string) int {
	if len(paths) == 0 {
		log.Println("usage: classify <image> [image...]")
		return 2
	}
	_ = godotenv.Load(".env")

	cfg := config.LoadConfig()
	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Out: os.Stderr})
	if err != nil {
		log.Println(err)
		return 1
	}
	defer func() { _ = closer.Close() }()
	slog.SetDefault(logger)

	model, err := di.NewONNXPredictor()
	if err != nil {
		slog.Error("failed to load model", "error", err)
		return 1
	}
	defer func() { _ = model.Close() }()

	uc := usecase.NewClassifyUsecase(model,
		usecase.WithThreshold(cfg.ConfidenceThreshold),
		usecase.WithMaxImageSize(cfg.MaxUploadBytes),
		usecase.WithMaxPixels(cfg.MaxImagePixels),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for _, path := range paths {
		out := result{File: path}

		data, err := os.ReadFile(path)
		if err == nil {
			var c *entity.Classification
			if c, err = uc.Classify(ctx, data); err == nil {
				out.ClassificationResponse = dto.NewClassificationResponse(c)
			}
		}
		if err != nil {
			failed++
			out.Error = err.Error()
		}
		if err := enc.Encode(out); err != nil {
			slog.Error("failed to write result", "error", err)
			return 1
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
