package model

import (
	"time"

	"github.com/yeisme/attachvault/pkg/attach"
)

// Attachments 附件关联行，(RecordType, RecordID, Name) 定位槽位.
type Attachments struct {
	ID         string `gorm:"primaryKey;size:26"               json:"id"`
	Name       string `gorm:"size:255;index:idx_record_slot"   json:"name"`
	RecordType string `gorm:"size:255;index:idx_record_slot"   json:"record_type"`
	RecordID   string `gorm:"size:255;index:idx_record_slot"   json:"record_id"`
	BlobID     string `gorm:"size:26;index"                    json:"blob_id"`
	CreatedAt  time.Time `gorm:"index"`
}

// TableName 指定表名.
func (Attachments) TableName() string {
	return "attachments"
}

// ToAttach 转换为核心层的 Attachment.
func (a *Attachments) ToAttach() attach.Attachment {
	return attach.Attachment{
		ID:         a.ID,
		Name:       a.Name,
		RecordType: a.RecordType,
		RecordID:   a.RecordID,
		BlobID:     a.BlobID,
		CreatedAt:  a.CreatedAt,
	}
}

// AttachmentFromAttach 从核心层的 Attachment 构造模型行.
func AttachmentFromAttach(a *attach.Attachment) *Attachments {
	return &Attachments{
		ID:         a.ID,
		Name:       a.Name,
		RecordType: a.RecordType,
		RecordID:   a.RecordID,
		BlobID:     a.BlobID,
		CreatedAt:  a.CreatedAt,
	}
}
