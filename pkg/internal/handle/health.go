package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/configs"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
)

// Healthz 存活探针.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz 就绪探针，依赖未注入时视为未就绪.
func Readyz(c *gin.Context) {
	if ctxPkg.GetManager(c.Request.Context()) == nil || ctxPkg.GetUploader(c.Request.Context()) == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// HealthDB 检查数据库连通性.
func HealthDB(c *gin.Context) {
	client := ctxPkg.GetDBClient(c.Request.Context())
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "db client not initialized"})

		return
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})

		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "type": configs.GetConfig().DB.GetDBType()})
}

// HealthS3 检查对象存储连通性，未启用 S3 后端时直接报可用.
func HealthS3(c *gin.Context) {
	client := ctxPkg.GetS3Client(c.Request.Context())
	if client == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "s3 backend not enabled"})

		return
	}

	if err := client.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "bucket": client.GetConfig().Bucket})
}

// HealthMQ 检查消息队列状态，未启用时直接报可用.
func HealthMQ(c *gin.Context) {
	if !configs.GetConfig().MQ.Enabled {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "mq not enabled"})

		return
	}

	if ctxPkg.GetMQClient(c.Request.Context()) == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "mq client not initialized"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "type": configs.GetConfig().MQ.Type})
}
