// Package types 定义 HTTP 请求与响应结构体.
package types

// CreateDirectUploadRequest 申请直传授权.
// 文件四要素全部必填：它们会被绑进预签名URL，后端直传时校验.
type CreateDirectUploadRequest struct {
	// Attachment 槽位全名，形如 "record.name"
	Attachment  string `json:"attachmentName" binding:"required"`
	FileName    string `json:"fileName"       binding:"required"`
	ContentType string `json:"contentType"    binding:"required"`
	Size        int64  `json:"size"           binding:"required,min=1"`
	// Checksum base64 编码的内容 MD5
	Checksum string         `json:"checksum" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// UploadTarget 客户端直传的目标地址与必带头.
type UploadTarget struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// DirectUploadResponse 直传授权响应.
type DirectUploadResponse struct {
	SignedID    string       `json:"signed_id"`
	Upload      UploadTarget `json:"upload"`
	BlobID      string       `json:"blob_id"`
	Key         string       `json:"key"`
	FileName    string       `json:"file_name"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	Checksum    string       `json:"checksum,omitempty"`
}

// AttachRequest 兑换签名ID并绑定.
type AttachRequest struct {
	SignedID string `json:"signedId"   binding:"required"`
	// Attachment 槽位全名，形如 "record.name"
	Attachment string `json:"attachment" binding:"required"`
	RecordID   string `json:"recordId"   binding:"required"`
}

// AttachmentResponse 附件行响应.
type AttachmentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RecordType string `json:"record_type"`
	RecordID   string `json:"record_id"`
	BlobID     string `json:"blob_id"`
	CreatedAt  string `json:"created_at"`
}

// ListAttachmentsResponse 槽位附件列表响应.
type ListAttachmentsResponse struct {
	Attachments []AttachmentResponse `json:"attachments"`
	Total       int                  `json:"total"`
}

// BlobURLRequest 获取 Blob 访问URL.
type BlobURLRequest struct {
	Key string `form:"key" binding:"required"`
	// Public 为 true 时返回公开URL，否则返回限时私有URL
	Public bool `form:"public"`
	// ExpirySeconds 私有URL有效期（秒），缺省取服务默认
	ExpirySeconds int `form:"expiry_seconds" binding:"min=0"`
}

// BlobURLResponse Blob 访问URL响应.
type BlobURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
