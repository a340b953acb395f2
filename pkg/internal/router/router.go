// Package router 管理路由配置，将HTTP路径绑定到 pkg/internal/handle 的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes 注册全部业务路由到传入的路由组.
// 上层假定传入 g := engine.Group("/api/v1")，磁盘端点另行挂在根路由.
func RegisterAPIRoutes(g *gin.RouterGroup) {
	RegisterUploadsRoutes(g)
	RegisterBlobsRoutes(g)
	RegisterRecordsRoutes(g)
	RegisterHealthCheckRoute(g)
}
