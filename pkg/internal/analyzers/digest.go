package analyzers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/attachvault/pkg/attach"
)

// Digest 内容摘要环节：xxhash64，用于去重与完整性对账.
type Digest struct{}

var _ attach.Analyzer = (*Digest)(nil)

// NewDigest 创建摘要环节.
func NewDigest() *Digest {
	return &Digest{}
}

// Name 环节标识.
func (a *Digest) Name() string { return "digest" }

// Accepts 所有 Blob 都计算摘要.
func (a *Digest) Accepts(*attach.Blob) bool { return true }

// Analyze 计算内容的 xxhash64.
func (a *Digest) Analyze(_ context.Context, _ *attach.Blob, src string) (attach.Metadata, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return attach.Metadata{
		"digest": fmt.Sprintf("xxh64:%016x", h.Sum64()),
	}, nil
}
