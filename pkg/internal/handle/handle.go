// Package handle 提供HTTP请求处理器.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/attach"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/signer"
)

// uploaderFrom 从请求上下文取上传编排器，未注入时响应 503.
func uploaderFrom(c *gin.Context) *attach.Uploader {
	u := ctxPkg.GetUploader(c.Request.Context())
	if u == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploader not initialized"})
	}

	return u
}

// writeAttachError 把核心层错误映射为HTTP状态码.
// 令牌问题 -> 422，Blob/槽位缺失 -> 404，存储后端失败 -> 502，其余 -> 500.
func writeAttachError(c *gin.Context, err error) {
	var storageErr *attach.StorageError

	switch {
	case errors.Is(err, signer.ErrTokenExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "signed id expired"})
	case errors.Is(err, signer.ErrTokenInvalid),
		errors.Is(err, signer.ErrSignatureInvalid),
		errors.Is(err, signer.ErrPurposeMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "signed id invalid"})
	case errors.Is(err, attach.ErrMissingData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing data"})
	case errors.Is(err, attach.ErrBlobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage backend failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
