package attach

import (
	"context"
	"io"
	"time"
)

// Service 对象存储后端契约.
// 所有按 Key 操作的方法对同一 Key 幂等或可重复调用；Delete 对不存在的 Key 静默成功.
type Service interface {
	// Name 后端标识，例如 "s3"、"disk".
	Name() string

	// DirectUploadURL 生成限时直传URL，客户端用 PUT 上传且必须携带 DirectUploadHeaders.
	DirectUploadURL(ctx context.Context, blob *Blob, expiresIn time.Duration) (string, error)

	// DirectUploadHeaders 直传请求必须携带的头，后端以此校验内容类型与摘要.
	DirectUploadHeaders(blob *Blob) map[string]string

	// Upload 服务端中介上传.
	Upload(ctx context.Context, blob *Blob, r io.Reader) error

	// Download 把对象内容写入 w.
	Download(ctx context.Context, key string, w io.Writer) error

	// UpdateMetadata 把 Blob 当前的文件名/内容类型同步到对象存储侧的对象元数据.
	UpdateMetadata(ctx context.Context, blob *Blob) error

	// PublicURL 公开读URL，不含凭证；后端不支持公开访问时返回错误.
	PublicURL(blob *Blob) (string, error)

	// PrivateURL 限时私有读URL.
	PrivateURL(ctx context.Context, blob *Blob, expiresIn time.Duration) (string, error)

	// ProtocolURL 后端内部定位符，例如 "s3://bucket/key"，仅用于日志与诊断.
	ProtocolURL(blob *Blob) string

	// Delete 删除对象，Key 不存在时不报错.
	Delete(ctx context.Context, key string) error
}
