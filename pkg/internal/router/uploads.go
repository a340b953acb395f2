package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterUploadsRoutes 注册直传编排相关路由.
func RegisterUploadsRoutes(g *gin.RouterGroup) {
	uploadsRoutes := g.Group("/uploads")
	{
		// 申请直传授权（落 Blob 行并签发限时上传URL）
		uploadsRoutes.POST("/create-direct-upload", handle.CreateDirectUpload)
		// 兑换签名ID，绑定已直传的 Blob 到记录槽位
		uploadsRoutes.POST("/attach", handle.AttachSignedFile)
	}
}
