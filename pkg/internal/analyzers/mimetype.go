// Package analyzers 提供内置的分析流水线环节.
package analyzers

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/attachvault/pkg/attach"
)

// MimeType 内容嗅探环节：从字节判定真实内容类型，不信任客户端声明.
type MimeType struct{}

var _ attach.Analyzer = (*MimeType)(nil)

// NewMimeType 创建内容嗅探环节.
func NewMimeType() *MimeType {
	return &MimeType{}
}

// Name 环节标识.
func (a *MimeType) Name() string { return "mimetype" }

// Accepts 所有 Blob 都嗅探.
func (a *MimeType) Accepts(*attach.Blob) bool { return true }

// Analyze 嗅探内容类型.
func (a *MimeType) Analyze(_ context.Context, _ *attach.Blob, src string) (attach.Metadata, error) {
	mt, err := mimetype.DetectFile(src)
	if err != nil {
		return nil, err
	}

	return attach.Metadata{
		"content_type": mt.String(),
		"extension":    mt.Extension(),
	}, nil
}
