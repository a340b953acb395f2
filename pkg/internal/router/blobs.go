package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterBlobsRoutes 注册 Blob 访问相关路由.
func RegisterBlobsRoutes(g *gin.RouterGroup) {
	blobsRoutes := g.Group("/blobs")
	{
		// 获取公开或限时私有访问URL
		blobsRoutes.GET("/url", handle.BlobURL)
	}
}
