package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	classifyhandler "dino_classifier/internal/feature/classify/transport/handler"
	"dino_classifier/internal/feature/classify/transport/web"
	"dino_classifier/internal/platform/http/handler"
	"dino_classifier/internal/platform/http/middleware"
)

// Options carries the cross-cutting pieces wired around the feature handlers.
// Nil fields are skipped.
type Options struct {
	Ready              handler.ReadinessCheck
	Observer           middleware.RequestObserver
	Metrics            http.Handler
	RateLimit          gin.HandlerFunc
	CORS               gin.HandlerFunc
	MaxMultipartMemory int64
	// MaxBodyBytes caps upload request bodies; 0 disables the cap.
	MaxBodyBytes int64
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is honored.
	// Empty trusts none, so ClientIP (and the rate limit key) is the peer address.
	TrustedProxies []string
}

func NewRouter(classify *classifyhandler.ClassifyHandler, page *classifyhandler.PageHandler, opts Options) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		slog.Warn("invalid trusted proxies, trusting none", "proxies", opts.TrustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Observer))
	if opts.CORS != nil {
		r.Use(opts.CORS)
	}
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.SetHTMLTemplate(web.MustTemplates())

	// 導通確認用
	r.GET("/healthz", handler.Health(opts.Ready))
	r.HEAD("/healthz", handler.Health(opts.Ready))
	r.OPTIONS("/healthz", handler.Health(opts.Ready))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	r.StaticFS("/static", web.StaticFS())

	// 分類はレート制限とボディ上限の対象
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		var chain []gin.HandlerFunc
		if opts.RateLimit != nil {
			chain = append(chain, opts.RateLimit)
		}
		if opts.MaxBodyBytes > 0 {
			chain = append(chain, middleware.BodyLimit(opts.MaxBodyBytes))
		}
		return append(chain, h)
	}

	// Webページ
	r.GET("/", page.Index)
	r.POST("/", limited(page.Submit)...)

	// JSON API
	v1 := r.Group("/v1")
	{
		v1.POST("/classify", limited(classify.Classify)...)
		v1.GET("/species", classify.ListSpecies)
	}

	return r
}
