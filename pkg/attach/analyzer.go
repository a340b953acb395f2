package attach

import (
	"context"
)

// Analyzer 分析流水线的单个环节，从已下载的对象内容提取元数据.
// 单个 Analyzer 失败不会中断流水线：其结果被丢弃，其余环节照常执行.
type Analyzer interface {
	// Name 日志用标识.
	Name() string

	// Accepts 返回该环节是否处理此 Blob（通常按内容类型过滤）.
	Accepts(blob *Blob) bool

	// Analyze 从 src（本地临时文件，流水线负责下载与清理）提取元数据.
	Analyze(ctx context.Context, blob *Blob, src string) (Metadata, error)
}
