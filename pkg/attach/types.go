// Package attach 实现直传与附件绑定核心：签名ID签发与兑换、Blob 与记录的绑定、
// 以及绑定后的元数据分析流水线.
package attach

import (
	"time"
)

// Metadata Blob 的自由格式元数据.
// 持久化为 JSON，写入永远是读-合并-写，不做整体替换.
type Metadata map[string]any

// Merge 返回合并后的新 Metadata，other 中的键覆盖同名旧键，接收者不被修改.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}

	for k, v := range other {
		merged[k] = v
	}

	return merged
}

// Clone 返回浅拷贝.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}

	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}

	return c
}

// Blob 一个已上传（或待上传）对象的元数据行.
// Key 是对象存储内的定位符，与 ID 一样全局唯一且永不复用.
type Blob struct {
	ID          string
	Key         string
	Filename    string
	ContentType string
	ByteSize    int64
	// Checksum 客户端声明的内容摘要（base64 MD5），直传时由对象存储校验
	Checksum string
	// ServiceName 内容所在的存储后端，换后端不迁移旧行
	ServiceName string
	Metadata    Metadata
	CreatedAt   time.Time
}

// Identified 返回分析流水线是否已确认过内容类型.
func (b *Blob) Identified() bool {
	v, ok := b.Metadata["identified"].(bool)

	return ok && v
}

// Analyzed 返回分析流水线是否已完整执行.
func (b *Blob) Analyzed() bool {
	v, ok := b.Metadata["analyzed"].(bool)

	return ok && v
}

// Attachment 把 Blob 绑定到宿主记录的关联行.
// (RecordType, RecordID, Name) 定位一个附件槽位，BlobID 指向实际内容.
type Attachment struct {
	ID         string
	Name       string
	RecordType string
	RecordID   string
	BlobID     string
	CreatedAt  time.Time
}

// Strategy 附件槽位的基数策略.
type Strategy string

const (
	// StrategyOne 槽位最多一个附件，重复绑定时先删后插（同一事务内）.
	StrategyOne Strategy = "one"
	// StrategyMany 槽位允许多个附件，绑定是纯追加.
	StrategyMany Strategy = "many"
)

// Valid 返回策略是否合法.
func (s Strategy) Valid() bool {
	return s == StrategyOne || s == StrategyMany
}

// SignedBlobClaim 签名ID的负载，只携带 Blob 主键.
type SignedBlobClaim struct {
	BlobID string `json:"blobId"`
}

// PurposeBlob 签名ID的 purpose，换用其他 purpose 签出的令牌在此处验签必败.
const PurposeBlob = "blob"
