package handle

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/types"
	"github.com/yeisme/attachvault/pkg/log"
)

// BlobURL 返回 Blob 的访问URL：public=true 时走公开URL，否则签发限时私有URL.
func BlobURL(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	var req types.BlobURLRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	blob, err := u.Adapter().FindBlobByKey(c.Request.Context(), req.Key)
	if err != nil {
		writeAttachError(c, err)

		return
	}

	var url string
	if req.Public {
		url, err = u.Service().PublicURL(blob)
	} else {
		expiry := time.Duration(req.ExpirySeconds) * time.Second
		if expiry <= 0 {
			expiry = configs.GetConfig().Upload.SignedIDExpiry()
		}

		url, err = u.Service().PrivateURL(c.Request.Context(), blob, expiry)
	}

	if err != nil {
		writeAttachError(c, err)

		return
	}

	c.JSON(http.StatusOK, types.BlobURLResponse{
		Key: blob.Key,
		URL: url,
	})
}
