package analyzers

import (
	"context"
	"image"
	_ "image/gif"  // 注册GIF解码器
	_ "image/jpeg" // 注册JPEG解码器
	_ "image/png"  // 注册PNG解码器
	"os"
	"strings"

	"github.com/yeisme/attachvault/pkg/attach"
)

// Image 图片尺寸环节：只解码头部取宽高，不加载整张图.
type Image struct{}

var _ attach.Analyzer = (*Image)(nil)

// NewImage 创建图片尺寸环节.
func NewImage() *Image {
	return &Image{}
}

// Name 环节标识.
func (a *Image) Name() string { return "image" }

// Accepts 只处理图片类型.
func (a *Image) Accepts(blob *attach.Blob) bool {
	return strings.HasPrefix(blob.ContentType, "image/")
}

// Analyze 提取宽高.
func (a *Image) Analyze(_ context.Context, _ *attach.Blob, src string) (attach.Metadata, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}

	return attach.Metadata{
		"width":  cfg.Width,
		"height": cfg.Height,
	}, nil
}
