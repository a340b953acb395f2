// Package model 定义持久化模型.
package model

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/attachvault/pkg/attach"
)

// Blobs Blob 元数据行.
type Blobs struct {
	ID string `gorm:"primaryKey;size:26" json:"id"`
	// 对象存储键，全局唯一且永不复用
	Key         string `gorm:"size:64;uniqueIndex" json:"key"`
	FileName    string `gorm:"size:512"            json:"file_name"`
	ContentType string `gorm:"size:255;index"      json:"content_type"`
	Size        int64  `gorm:"index"               json:"size"`
	// base64 编码的内容 MD5，由客户端声明、对象存储校验
	Checksum string `gorm:"size:64"  json:"checksum"`
	// 内容所在的存储后端（s3/disk），换后端不迁移旧行
	ServiceName string `gorm:"size:32"  json:"service_name"`
	// Metadata 以 JSON 字符串形式存储；未来可替换为 JSONB
	MetadataJSON string    `gorm:"type:text" json:"metadata_json"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName 指定表名.
func (Blobs) TableName() string {
	return "blobs"
}

// ToAttach 转换为核心层的 Blob.
func (b *Blobs) ToAttach() (*attach.Blob, error) {
	var meta attach.Metadata
	if b.MetadataJSON != "" {
		if err := sonic.UnmarshalString(b.MetadataJSON, &meta); err != nil {
			return nil, err
		}
	}

	return &attach.Blob{
		ID:          b.ID,
		Key:         b.Key,
		Filename:    b.FileName,
		ContentType: b.ContentType,
		ByteSize:    b.Size,
		Checksum:    b.Checksum,
		ServiceName: b.ServiceName,
		Metadata:    meta,
		CreatedAt:   b.CreatedAt,
	}, nil
}

// BlobFromAttach 从核心层的 Blob 构造模型行.
func BlobFromAttach(b *attach.Blob) (*Blobs, error) {
	metaJSON := ""

	if len(b.Metadata) > 0 {
		s, err := sonic.MarshalString(b.Metadata)
		if err != nil {
			return nil, err
		}

		metaJSON = s
	}

	return &Blobs{
		ID:           b.ID,
		Key:          b.Key,
		FileName:     b.Filename,
		ContentType:  b.ContentType,
		Size:         b.ByteSize,
		Checksum:     b.Checksum,
		ServiceName:  b.ServiceName,
		MetadataJSON: metaJSON,
		CreatedAt:    b.CreatedAt,
	}, nil
}
