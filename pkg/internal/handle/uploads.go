package handle

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/attach"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/types"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/queue"
)

// CreateDirectUpload 签发直传授权：落 Blob 行、生成限时上传URL、签发签名ID.
func CreateDirectUpload(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	var req types.CreateDirectUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	// 槽位必须已声明，尽早失败避免留下无主的 Blob 行
	if _, err := u.FindAttachmentByName(req.Attachment); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	du, err := u.CreateDirectUpload(c.Request.Context(), attach.DirectUploadParams{
		Filename:    req.FileName,
		ContentType: req.ContentType,
		ByteSize:    req.Size,
		Checksum:    req.Checksum,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeAttachError(c, err)

		return
	}

	metrics.DirectUploadsIssued.WithLabelValues(u.Service().Name()).Inc()
	publishBlobCreated(c, du.Blob)

	c.JSON(http.StatusCreated, types.DirectUploadResponse{
		SignedID: du.SignedID,
		Upload: types.UploadTarget{
			URL:     du.URL,
			Headers: du.Headers,
		},
		BlobID:      du.Blob.ID,
		Key:         du.Blob.Key,
		FileName:    du.Blob.Filename,
		ContentType: du.Blob.ContentType,
		Size:        du.Blob.ByteSize,
		Checksum:    du.Blob.Checksum,
	})
}

// publishBlobCreated 发布创建事件，MQ 未启用或发布失败只记录.
func publishBlobCreated(c *gin.Context, blob *attach.Blob) {
	mq := ctxPkg.GetMQClient(c.Request.Context())
	if mq == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicBlobCreated, queue.BlobCreatedPayload{
		Blob: queue.BlobRef{
			BlobID:      blob.ID,
			Key:         blob.Key,
			FileName:    blob.Filename,
			ContentType: blob.ContentType,
			Size:        blob.ByteSize,
			Checksum:    blob.Checksum,
			Service:     blob.ServiceName,
		},
	}, queue.WithProducer("attachvault"))
	if err != nil {
		log.Logger().Warn().Err(err).Str("blob_id", blob.ID).Msg("encode created event failed")

		return
	}

	if err := mq.Publish(c.Request.Context(), queue.TopicBlobCreated, msg); err != nil {
		log.Logger().Warn().Err(err).Str("blob_id", blob.ID).Msg("publish created event failed")
	}
}

// AttachSignedFile 兑换签名ID，把已直传的 Blob 绑定到记录槽位.
func AttachSignedFile(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	var req types.AttachRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	m, err := u.FindAttachmentByName(req.Attachment)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	att, err := m.AttachSignedFile(c.Request.Context(), req.RecordID, req.SignedID)
	if err != nil {
		writeAttachError(c, err)

		return
	}

	metrics.AttachmentsBound.WithLabelValues(string(m.Def().Strategy())).Inc()

	c.JSON(http.StatusOK, types.AttachmentResponse{
		ID:         att.ID,
		Name:       att.Name,
		RecordType: att.RecordType,
		RecordID:   att.RecordID,
		BlobID:     att.BlobID,
		CreatedAt:  att.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// ListAttachments 列出槽位当前绑定的附件，按创建顺序.
func ListAttachments(c *gin.Context) {
	u := uploaderFrom(c)
	if u == nil {
		return
	}

	recordType := c.Param("type")
	recordID := c.Param("id")
	name := c.Param("name")

	m, err := u.Attachment(recordType, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	atts, err := m.Attachments(c.Request.Context(), recordID)
	if err != nil {
		writeAttachError(c, err)

		return
	}

	resp := types.ListAttachmentsResponse{
		Attachments: make([]types.AttachmentResponse, 0, len(atts)),
		Total:       len(atts),
	}
	for _, att := range atts {
		resp.Attachments = append(resp.Attachments, types.AttachmentResponse{
			ID:         att.ID,
			Name:       att.Name,
			RecordType: att.RecordType,
			RecordID:   att.RecordID,
			BlobID:     att.BlobID,
			CreatedAt:  att.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}
