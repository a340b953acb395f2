package attach

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/attachvault/pkg/signer"
)

// ModelAttachment 已声明槽位上的操作入口，由 Uploader.Attachment 获取.
type ModelAttachment struct {
	uploader *Uploader
	def      AttachmentDef
}

// Def 返回槽位声明.
func (m *ModelAttachment) Def() AttachmentDef {
	return m.def
}

// File 服务端中介上传的输入.
// Filename 和 ContentType 可缺省，缺省时从内容嗅探补全；Content 为空则报 ErrMissingData.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
	Metadata    Metadata
}

// AttachFile 服务端中介上传并绑定：内容经服务进程流向存储后端.
// 与直传相比多一跳，但客户端无需处理签名URL.
func (m *ModelAttachment) AttachFile(ctx context.Context, recordID string, file File) (*Attachment, error) {
	if len(file.Content) == 0 {
		return nil, ErrMissingData
	}

	contentType := file.ContentType

	var detected *mimetype.MIME
	if contentType == "" {
		detected = mimetype.Detect(file.Content)
		contentType = detected.String()
	}

	filename := file.Filename
	if filename == "" {
		if detected == nil {
			detected = mimetype.Detect(file.Content)
		}

		filename = NewKey() + detected.Extension()
	}

	sum := md5.Sum(file.Content)

	blob := &Blob{
		ID:          NewID(),
		Key:         NewKey(),
		Filename:    filename,
		ContentType: contentType,
		ByteSize:    int64(len(file.Content)),
		Checksum:    base64.StdEncoding.EncodeToString(sum[:]),
		ServiceName: m.uploader.service.Name(),
		Metadata:    file.Metadata.Clone(),
		CreatedAt:   time.Now(),
	}

	if err := m.uploader.adapter.CreateBlob(ctx, blob); err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}

	if err := m.uploader.service.Upload(ctx, blob, bytes.NewReader(file.Content)); err != nil {
		return nil, err
	}

	return m.bind(ctx, recordID, blob)
}

// AttachSignedFile 兑换签名ID并绑定已直传的 Blob.
// 顺序：验签 -> 查 Blob -> 对象元数据同步（尽力） -> 绑定 -> 回调.
func (m *ModelAttachment) AttachSignedFile(ctx context.Context, recordID, signedID string) (*Attachment, error) {
	claim, err := signer.Verify[SignedBlobClaim](m.uploader.signer, signedID, PurposeBlob)
	if err != nil {
		return nil, err
	}

	blob, err := m.uploader.adapter.FindBlob(ctx, claim.BlobID)
	if err != nil {
		return nil, err
	}

	// 直传时对象侧元数据由客户端PUT决定，这里同步数据库侧的文件名/内容类型
	if err := m.uploader.service.UpdateMetadata(ctx, blob); err != nil {
		m.uploader.logger.Warn().
			Err(err).
			Str("blob_id", blob.ID).
			Str("key", blob.Key).
			Msg("sync object metadata failed")
	}

	return m.bind(ctx, recordID, blob)
}

// bind 落附件行并触发回调.
func (m *ModelAttachment) bind(ctx context.Context, recordID string, blob *Blob) (*Attachment, error) {
	att := &Attachment{
		ID:         NewID(),
		Name:       m.def.Name,
		RecordType: m.def.RecordType,
		RecordID:   recordID,
		BlobID:     blob.ID,
		CreatedAt:  time.Now(),
	}

	if err := m.uploader.adapter.AttachBlob(ctx, att, m.def.Strategy()); err != nil {
		return nil, fmt.Errorf("attach blob: %w", err)
	}

	m.uploader.logger.Info().
		Str("blob_id", blob.ID).
		Str("attachment_id", att.ID).
		Str("slot", m.def.QualifiedName()).
		Str("record_id", recordID).
		Msg("blob attached")

	m.uploader.runAfterAttach(ctx, blob, att)

	return att, nil
}

// Attachments 返回槽位当前绑定的附件，按创建顺序.
func (m *ModelAttachment) Attachments(ctx context.Context, recordID string) ([]Attachment, error) {
	return m.uploader.adapter.FindAttachments(ctx, m.def.RecordType, recordID, m.def.Name)
}

// Detach 解除槽位的全部绑定，返回删除的附件数.
// 只删关联行，Blob 与对象内容留给清扫任务.
func (m *ModelAttachment) Detach(ctx context.Context, recordID string) (int64, error) {
	return m.uploader.adapter.DeleteAttachments(ctx, m.def.RecordType, recordID, m.def.Name)
}
