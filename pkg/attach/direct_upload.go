package attach

import (
	"context"
	"fmt"
	"time"
)

// DirectUploadParams 客户端申请直传授权时提交的文件描述.
// 大小与摘要由客户端声明，真实性由存储后端在直传时校验.
type DirectUploadParams struct {
	Filename    string
	ContentType string
	ByteSize    int64
	// Checksum base64 编码的内容 MD5
	Checksum string
	Metadata Metadata
}

// DirectUpload 直传授权：签名ID + 客户端直传所需的URL和头.
type DirectUpload struct {
	SignedID string
	URL      string
	Headers  map[string]string
	Blob     *Blob
}

// CreateDirectUpload 签发直传授权.
// 顺序：生成键 -> 落 Blob 行 -> 后端签URL -> 签发签名ID.
// 后端签URL失败时 Blob 行保留为孤儿，由清扫任务回收，这里不做补偿删除.
func (u *Uploader) CreateDirectUpload(ctx context.Context, params DirectUploadParams) (*DirectUpload, error) {
	blob := &Blob{
		ID:          NewID(),
		Key:         NewKey(),
		Filename:    params.Filename,
		ContentType: params.ContentType,
		ByteSize:    params.ByteSize,
		Checksum:    params.Checksum,
		ServiceName: u.service.Name(),
		Metadata:    params.Metadata.Clone(),
		CreatedAt:   time.Now(),
	}

	if err := u.adapter.CreateBlob(ctx, blob); err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}

	url, err := u.service.DirectUploadURL(ctx, blob, u.directUploadExpiry)
	if err != nil {
		u.logger.Error().
			Err(err).
			Str("blob_id", blob.ID).
			Str("key", blob.Key).
			Msg("presign direct upload failed, blob row left for sweep")

		return nil, err
	}

	signedID, err := u.signer.Sign(PurposeBlob, SignedBlobClaim{BlobID: blob.ID})
	if err != nil {
		return nil, fmt.Errorf("sign blob id: %w", err)
	}

	u.logger.Debug().
		Str("blob_id", blob.ID).
		Str("key", blob.Key).
		Str("service", u.service.Name()).
		Msg("direct upload issued")

	return &DirectUpload{
		SignedID: signedID,
		URL:      url,
		Headers:  u.service.DirectUploadHeaders(blob),
		Blob:     blob,
	}, nil
}
