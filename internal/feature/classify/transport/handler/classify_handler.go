package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dino_classifier/internal/feature/classify/transport/http/dto"
)

// ClassifyHandler は画像分類のJSON APIを処理します。
type ClassifyHandler struct {
	uc   ClassifyUsecase
	opts options
}

// NewClassifyHandler はClassifyHandlerの新しいインスタンスを生成します。
func NewClassifyHandler(uc ClassifyUsecase, opts ...Option) *ClassifyHandler {
	return &ClassifyHandler{uc: uc, opts: newOptions(opts)}
}

// Classify は画像をアップロードして恐竜の種類を判定します。
//
// エンドポイント: POST /v1/classify
// Content-Type: multipart/form-data
// フィールド: image（.jpg/.jpeg/.png）
func (h *ClassifyHandler) Classify(c *gin.Context) {
	ctx := c.Request.Context()

	data, filename, err := readUpload(c, h.opts.maxUploadBytes)
	if err != nil {
		status, msg := errorStatus(err)
		slog.WarnContext(ctx, "画像ファイルの取得に失敗", "error", err, "filename", filename, "remote_addr", c.ClientIP())
		c.JSON(status, dto.ErrorResponse{Error: msg})
		return
	}

	result, err := h.uc.Classify(ctx, data)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "画像分類に失敗", "error", err, "filename", filename)
		} else {
			slog.WarnContext(ctx, "画像分類を拒否", "error", err, "filename", filename)
		}
		c.JSON(status, dto.ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, dto.NewClassificationResponse(result))
}

// ListSpecies はモデルが識別できる種の一覧を返します。
//
// エンドポイント: GET /v1/species
func (h *ClassifyHandler) ListSpecies(c *gin.Context) {
	species := h.uc.ListSpecies(c.Request.Context())
	out := make([]dto.SpeciesItem, 0, len(species))
	for _, s := range species {
		out = append(out, dto.SpeciesItem{Label: s.Label, Description: s.Description})
	}
	c.JSON(http.StatusOK, out)
}
