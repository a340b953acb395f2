package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterDiskRoutes 注册磁盘后端的直传/下载端点.
// 令牌即授权，路径挂在根路由以匹配签发的URL.
func RegisterDiskRoutes(g *gin.RouterGroup) {
	diskRoutes := g.Group("/disk")
	{
		diskRoutes.PUT("/:token", handle.DiskUpload)
		diskRoutes.GET("/:token", handle.DiskDownload)
	}
}
