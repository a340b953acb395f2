package attach

import (
	"context"
	"time"
)

// Adapter 元数据持久化契约.
// 实现必须保证：UpdateBlobMetadata 是读-合并-写；strategy one 的替换在单个事务内完成.
type Adapter interface {
	// CreateBlob 插入新 Blob 行.
	CreateBlob(ctx context.Context, blob *Blob) error

	// FindBlob 按主键查找，不存在时返回 ErrBlobNotFound.
	FindBlob(ctx context.Context, id string) (*Blob, error)

	// FindBlobByKey 按对象键查找，不存在时返回 ErrBlobNotFound.
	FindBlobByKey(ctx context.Context, key string) (*Blob, error)

	// UpdateBlobMetadata 合并写元数据并返回更新后的 Blob，不存在时返回 ErrBlobNotFound.
	UpdateBlobMetadata(ctx context.Context, id string, meta Metadata) (*Blob, error)

	// AttachBlob 把 Blob 绑定到槽位.
	// StrategyOne: 同一事务内先删槽位旧附件再插入；StrategyMany: 纯追加.
	AttachBlob(ctx context.Context, att *Attachment, strategy Strategy) error

	// DeleteAttachment 按主键删除附件行.
	DeleteAttachment(ctx context.Context, id string) error

	// DeleteAttachments 删除槽位的全部附件行，返回删除数量.
	DeleteAttachments(ctx context.Context, recordType, recordID, name string) (int64, error)

	// FindAttachments 返回槽位的附件，按创建顺序升序.
	FindAttachments(ctx context.Context, recordType, recordID, name string) ([]Attachment, error)

	// FindOrphanBlobs 返回创建早于 olderThan 且没有任何附件指向的 Blob，最多 limit 条.
	FindOrphanBlobs(ctx context.Context, olderThan time.Time, limit int) ([]Blob, error)

	// DeleteBlob 删除 Blob 行.
	DeleteBlob(ctx context.Context, id string) error
}
