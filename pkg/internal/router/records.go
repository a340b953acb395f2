package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterRecordsRoutes 注册记录侧附件查询路由.
func RegisterRecordsRoutes(g *gin.RouterGroup) {
	recordsRoutes := g.Group("/records")
	{
		// 列出记录某槽位当前绑定的附件，按创建顺序
		recordsRoutes.GET("/:type/:id/attachments/:name", handle.ListAttachments)
	}
}
