package handle

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/signer"
)

// diskServiceFrom 取磁盘后端，当前后端不是磁盘时响应 404.
// /disk 端点只在磁盘后端下有意义，S3 后端的直传走预签名URL不经过本服务.
func diskServiceFrom(c *gin.Context) *service.DiskService {
	u := uploaderFrom(c)
	if u == nil {
		return nil
	}

	disk, ok := u.Service().(*service.DiskService)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "disk endpoint is not available"})

		return nil
	}

	return disk
}

// DiskUpload 兑换上传令牌，把请求体写入令牌指定的键.
func DiskUpload(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	disk := diskServiceFrom(c)
	if disk == nil {
		return
	}

	claim, err := signer.Verify[service.DiskTokenClaim](u.Signer(), c.Param("token"), service.PurposeDiskUpload)
	if err != nil {
		writeAttachError(c, err)

		return
	}

	if claim.ByteSize > 0 && c.Request.ContentLength > 0 && c.Request.ContentLength != claim.ByteSize {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("content length mismatch: want %d got %d", claim.ByteSize, c.Request.ContentLength),
		})

		return
	}

	// 令牌里绑了什么就校验什么：字节数与 MD5 在落盘过程中顺带计算，
	// Content-Length 对分块传输不可信，只有实收字节数算数.
	body := io.Reader(c.Request.Body)
	if claim.ByteSize > 0 {
		body = io.LimitReader(body, claim.ByteSize+1)
	}

	hash := md5.New()
	counted := &countingReader{r: io.TeeReader(body, hash)}

	if err := disk.Store(claim.Key, counted); err != nil {
		log.Logger().Error().Err(err).Str("key", claim.Key).Msg("disk upload failed")
		writeAttachError(c, err)

		return
	}

	if claim.ByteSize > 0 && counted.n != claim.ByteSize {
		discardDiskObject(c, disk, claim.Key)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("byte size mismatch: want %d got %d", claim.ByteSize, counted.n),
		})

		return
	}

	if claim.Checksum != "" {
		if got := base64.StdEncoding.EncodeToString(hash.Sum(nil)); got != claim.Checksum {
			discardDiskObject(c, disk, claim.Key)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fmt.Sprintf("checksum mismatch: want %s got %s", claim.Checksum, got),
			})

			return
		}
	}

	c.Status(http.StatusNoContent)
}

// discardDiskObject 回滚校验失败的上传，删不掉只记录.
func discardDiskObject(c *gin.Context, disk *service.DiskService, key string) {
	if err := disk.Delete(c.Request.Context(), key); err != nil {
		log.Logger().Warn().Err(err).Str("key", key).Msg("discard rejected upload failed")
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)

	return n, err
}

// DiskDownload 兑换下载令牌，把对象内容流式写回响应.
func DiskDownload(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	disk := diskServiceFrom(c)
	if disk == nil {
		return
	}

	claim, err := signer.Verify[service.DiskTokenClaim](u.Signer(), c.Param("token"), service.PurposeDiskDownload)
	if err != nil {
		writeAttachError(c, err)

		return
	}

	contentType := claim.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)

	if claim.Filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", claim.Filename))
	}

	if err := disk.Download(c.Request.Context(), claim.Key, c.Writer); err != nil {
		// 响应头可能已写出，只能记录后中断
		log.Logger().Error().Err(err).Str("key", claim.Key).Msg("disk download failed")
		c.Abort()

		return
	}

	c.Status(http.StatusOK)
}
