package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dino_classifier/internal/feature/classify/domain/entity"
	"dino_classifier/internal/feature/classify/transport/web"
)

// PageHandler はアップロードフォームと結果表示のHTMLページを処理します。
// ルーターに web.Templates() が登録されている必要があります。
type PageHandler struct {
	uc   ClassifyUsecase
	opts options
}

// NewPageHandler はPageHandlerの新しいインスタンスを生成します。
func NewPageHandler(uc ClassifyUsecase, opts ...Option) *PageHandler {
	return &PageHandler{uc: uc, opts: newOptions(opts)}
}

// Index はアップロード前のページを表示します。
//
// エンドポイント: GET /
func (h *PageHandler) Index(c *gin.Context) {
	data := web.NewPageData()
	data.Prompt = web.UploadPrompt
	c.HTML(http.StatusOK, web.PageTemplate, data)
}

// Submit はフォームから送信された画像を分類し、結果を表示します。
// 画像が選択されていない場合はエラーとせず、案内文のみを表示します。
//
// エンドポイント: POST /
func (h *PageHandler) Submit(c *gin.Context) {
	data := web.NewPageData()

	imageData, filename, err := readUpload(c, h.opts.maxUploadBytes)
	if errors.Is(err, errNoImage) {
		data.Prompt = web.UploadPrompt
		c.HTML(http.StatusOK, web.PageTemplate, data)
		return
	}
	if err != nil {
		h.renderError(c, data, err, filename)
		return
	}

	result, err := h.uc.Classify(c.Request.Context(), imageData)
	if err != nil {
		h.renderError(c, data, err, filename)
		return
	}

	if result.Preview != nil {
		if url, err := web.PreviewURL(result.Preview.ToImage()); err == nil {
			data.Preview = url
		} else {
			slog.WarnContext(c.Request.Context(), "プレビュー画像の生成に失敗", "error", err)
		}
	}
	data.Result = toResultView(result)
	c.HTML(http.StatusOK, web.PageTemplate, data)
}

func (h *PageHandler) renderError(c *gin.Context, data web.PageData, err error, filename string) {
	ctx := c.Request.Context()
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "画像分類に失敗", "error", err, "filename", filename)
	} else {
		slog.WarnContext(ctx, "画像分類を拒否", "error", err, "filename", filename)
	}
	data.Error = msg
	c.HTML(status, web.PageTemplate, data)
}

func toResultView(r *entity.Classification) *web.ResultView {
	if !r.Confident {
		return &web.ResultView{Message: r.Message}
	}
	return &web.ResultView{
		Confident:   true,
		Label:       r.Label,
		Confidence:  r.ConfidenceText,
		Description: web.Markdown(r.Description),
	}
}
