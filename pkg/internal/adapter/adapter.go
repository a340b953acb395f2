// Package adapter 基于 GORM 实现元数据持久化契约.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/internal/model"
)

// GormAdapter attach.Adapter 的 GORM 实现.
type GormAdapter struct {
	db *gorm.DB
}

var _ attach.Adapter = (*GormAdapter)(nil)

// New 创建适配器并迁移表结构.
func New(db *gorm.DB) (*GormAdapter, error) {
	if err := db.AutoMigrate(&model.Blobs{}, &model.Attachments{}); err != nil {
		return nil, fmt.Errorf("migrate attachment tables: %w", err)
	}

	return &GormAdapter{db: db}, nil
}

// CreateBlob 插入新 Blob 行.
func (a *GormAdapter) CreateBlob(ctx context.Context, blob *attach.Blob) error {
	row, err := model.BlobFromAttach(blob)
	if err != nil {
		return fmt.Errorf("encode blob metadata: %w", err)
	}

	return a.db.WithContext(ctx).Create(row).Error
}

// FindBlob 按主键查找.
func (a *GormAdapter) FindBlob(ctx context.Context, id string) (*attach.Blob, error) {
	var row model.Blobs

	if err := a.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attach.ErrBlobNotFound
		}

		return nil, err
	}

	return row.ToAttach()
}

// FindBlobByKey 按对象键查找.
func (a *GormAdapter) FindBlobByKey(ctx context.Context, key string) (*attach.Blob, error) {
	var row model.Blobs

	if err := a.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attach.ErrBlobNotFound
		}

		return nil, err
	}

	return row.ToAttach()
}

// UpdateBlobMetadata 在单个事务内读-合并-写元数据.
func (a *GormAdapter) UpdateBlobMetadata(ctx context.Context, id string, meta attach.Metadata) (*attach.Blob, error) {
	var updated *attach.Blob

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.Blobs

		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attach.ErrBlobNotFound
			}

			return err
		}

		current, err := row.ToAttach()
		if err != nil {
			return fmt.Errorf("decode blob metadata: %w", err)
		}

		current.Metadata = current.Metadata.Merge(meta)

		next, err := model.BlobFromAttach(current)
		if err != nil {
			return fmt.Errorf("encode blob metadata: %w", err)
		}

		if err := tx.Model(&row).Update("metadata_json", next.MetadataJSON).Error; err != nil {
			return err
		}

		updated = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// AttachBlob 绑定 Blob 到槽位.
// StrategyOne 在同一事务内先删槽位旧附件再插入，StrategyMany 纯追加.
func (a *GormAdapter) AttachBlob(ctx context.Context, att *attach.Attachment, strategy attach.Strategy) error {
	if !strategy.Valid() {
		return attach.ErrInvalidStrategy
	}

	row := model.AttachmentFromAttach(att)

	if strategy == attach.StrategyMany {
		return a.db.WithContext(ctx).Create(row).Error
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"record_type = ? AND record_id = ? AND name = ?",
			att.RecordType, att.RecordID, att.Name,
		).Delete(&model.Attachments{}).Error; err != nil {
			return err
		}

		return tx.Create(row).Error
	})
}

// DeleteAttachment 按主键删除附件行.
func (a *GormAdapter) DeleteAttachment(ctx context.Context, id string) error {
	res := a.db.WithContext(ctx).Delete(&model.Attachments{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return attach.ErrAttachmentNotFound
	}

	return nil
}

// DeleteAttachments 删除槽位的全部附件行.
func (a *GormAdapter) DeleteAttachments(ctx context.Context, recordType, recordID, name string) (int64, error) {
	res := a.db.WithContext(ctx).Where(
		"record_type = ? AND record_id = ? AND name = ?",
		recordType, recordID, name,
	).Delete(&model.Attachments{})

	return res.RowsAffected, res.Error
}

// FindAttachments 返回槽位的附件，按创建顺序升序.
func (a *GormAdapter) FindAttachments(ctx context.Context, recordType, recordID, name string) ([]attach.Attachment, error) {
	var rows []model.Attachments

	if err := a.db.WithContext(ctx).Where(
		"record_type = ? AND record_id = ? AND name = ?",
		recordType, recordID, name,
	).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]attach.Attachment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToAttach())
	}

	return out, nil
}

// FindOrphanBlobs 返回创建早于 olderThan 且没有任何附件指向的 Blob.
func (a *GormAdapter) FindOrphanBlobs(ctx context.Context, olderThan time.Time, limit int) ([]attach.Blob, error) {
	var rows []model.Blobs

	if err := a.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Where("NOT EXISTS (SELECT 1 FROM attachments WHERE attachments.blob_id = blobs.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]attach.Blob, 0, len(rows))

	for i := range rows {
		b, err := rows[i].ToAttach()
		if err != nil {
			return nil, fmt.Errorf("decode blob metadata: %w", err)
		}

		out = append(out, *b)
	}

	return out, nil
}

// DeleteBlob 删除 Blob 行.
func (a *GormAdapter) DeleteBlob(ctx context.Context, id string) error {
	return a.db.WithContext(ctx).Delete(&model.Blobs{}, "id = ?", id).Error
}
