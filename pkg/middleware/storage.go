package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/storage"
)

// StorageMiddleware 把存储 Manager 注入请求上下文.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UploaderMiddleware 把上传编排器注入请求上下文.
func UploaderMiddleware(u *attach.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithUploader(c.Request.Context(), u)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
