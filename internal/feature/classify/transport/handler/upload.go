// Package handler はclassifyフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"dino_classifier/internal/feature/classify/domain"
	"dino_classifier/internal/feature/classify/domain/entity"
)

const (
	// ImageField はアップロード画像のフォームフィールド名です。
	ImageField = "image"
	// DefaultMaxUploadBytes はアップロード画像の最大バイト数のデフォルト値（10MB）です。
	DefaultMaxUploadBytes = 10 * 1024 * 1024
)

var (
	errNoImage         = errors.New("no image uploaded")
	errUnsupportedType = errors.New("unsupported file type")
)

// allowedExtensions はアップロードを受け付ける拡張子です。
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// ClassifyUsecase は画像分類のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ClassifyUsecase interface {
	Classify(ctx context.Context, imageData []byte) (*entity.Classification, error)
	ListSpecies(ctx context.Context) []entity.SpeciesInfo
}

// Option はハンドラーの設定を変更します。
type Option func(*options)

type options struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes はアップロード画像の最大バイト数を設定します。0以下は無視します。
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// readUpload はフォームから画像ファイルを読み出します。
// ファイルが無い場合は errNoImage、拡張子が対象外の場合は errUnsupportedType、
// maxBytesを超える場合は中身を読まずに domain.ErrImageTooLarge を返します。
func readUpload(c *gin.Context, maxBytes int64) ([]byte, string, error) {
	file, err := c.FormFile(ImageField)
	if err != nil {
		// ボディ上限（http.MaxBytesReader）に達した場合
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrImageTooLarge, tooLarge.Limit)
		}
		return nil, "", errNoImage
	}

	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))]; !ok {
		return nil, file.Filename, errUnsupportedType
	}
	if file.Size > maxBytes {
		return nil, file.Filename, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrImageTooLarge, file.Size, maxBytes)
	}

	f, err := file.Open()
	if err != nil {
		return nil, file.Filename, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.WarnContext(c.Request.Context(), "画像ファイルのクローズに失敗", "error", err)
		}
	}()

	// ヘッダのサイズを信用せず、上限+1バイトまでしか読まない
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, file.Filename, err
	}
	if int64(len(data)) > maxBytes {
		return nil, file.Filename, fmt.Errorf("%w: more than %d bytes", domain.ErrImageTooLarge, maxBytes)
	}
	return data, file.Filename, nil
}

// errorStatus はエラーに対応するHTTPステータスとユーザー向けメッセージを返します。
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errNoImage):
		return http.StatusBadRequest, "an image file is required in the \"image\" field"
	case errors.Is(err, errUnsupportedType):
		return http.StatusBadRequest, "unsupported file type: upload a .jpg, .jpeg or .png image"
	case errors.Is(err, domain.ErrEmptyImage):
		return http.StatusBadRequest, "the uploaded image is empty"
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "the uploaded image is too large"
	case errors.Is(err, domain.ErrDecode):
		return http.StatusBadRequest, "the uploaded file is not a valid JPEG or PNG image"
	case errors.Is(err, domain.ErrPredictorUnavailable):
		return http.StatusServiceUnavailable, "the classifier model is not available"
	case errors.Is(err, domain.ErrInference):
		return http.StatusInternalServerError, "classification failed"
	default:
		return http.StatusInternalServerError, "failed to read the uploaded image"
	}
}
