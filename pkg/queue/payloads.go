package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// BlobRef 标识一个 Blob 行及其对象存储位置.
type BlobRef struct {
	BlobID      string `json:"blob_id"`
	Key         string `json:"key"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Service     string `json:"service,omitempty"`
}

// BlobCreatedPayload 直传授权已签发.
type BlobCreatedPayload struct {
	Blob BlobRef `json:"blob"`
}

// BlobAttachedPayload Blob 已绑定到记录槽位.
type BlobAttachedPayload struct {
	Blob         BlobRef `json:"blob"`
	AttachmentID string  `json:"attachment_id"`
	RecordType   string  `json:"record_type"`
	RecordID     string  `json:"record_id"`
	Name         string  `json:"name"`
}

// BlobAnalyzedPayload 分析流水线完成，携带合并后的元数据.
type BlobAnalyzedPayload struct {
	Blob     BlobRef        `json:"blob"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BlobSweptPayload 孤儿 Blob 被清扫.
type BlobSweptPayload struct {
	Blob      BlobRef   `json:"blob"`
	CreatedAt time.Time `json:"created_at"`
}
