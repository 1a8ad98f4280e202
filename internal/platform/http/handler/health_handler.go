// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck はモデルが読み込まれ、分類リクエストを処理できるかを返します。
type ReadinessCheck func() bool

// Health はサービスヘルスチェック用の /healthz エンドポイントを返します。
// モデルが未ロードの場合は503を返し、キャッシュを防止します。
func Health(ready ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		ok := ready == nil || ready()
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(status)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			if ok {
				c.JSON(status, gin.H{"status": "ok"})
			} else {
				c.JSON(status, gin.H{"status": "unavailable"})
			}
		}
	}
}
