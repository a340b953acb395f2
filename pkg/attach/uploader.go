package attach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/attachvault/pkg/signer"
)

// AttachmentDef 一个声明的附件槽位：记录类型 + 槽位名 + 基数.
type AttachmentDef struct {
	RecordType string
	Name       string
	Multiple   bool
}

// Strategy 返回该槽位的绑定策略.
func (d AttachmentDef) Strategy() Strategy {
	if d.Multiple {
		return StrategyMany
	}

	return StrategyOne
}

// QualifiedName 返回 "record.name" 形式的槽位全名.
func (d AttachmentDef) QualifiedName() string {
	return d.RecordType + "." + d.Name
}

// AfterAttachFunc 绑定成功后的回调.
// 回调失败只记日志，绑定结果不回滚.
type AfterAttachFunc func(ctx context.Context, blob *Blob, att *Attachment) error

// Config Uploader 的必备依赖.
type Config struct {
	Signer  *signer.Signer
	Service Service
	Adapter Adapter
	// DirectUploadExpiry 直传URL有效期，零值时取 5 分钟.
	DirectUploadExpiry time.Duration
	Logger             *zerolog.Logger
}

// Uploader 直传与附件绑定的编排入口.
// 并发安全：构造后内部状态只读.
type Uploader struct {
	signer             *signer.Signer
	service            Service
	adapter            Adapter
	directUploadExpiry time.Duration
	logger             zerolog.Logger

	attachments map[string]AttachmentDef
	analyzers   []Analyzer
	afterAttach AfterAttachFunc
}

// Option 配置 Uploader 的可选参数.
type Option func(*Uploader)

// WithAttachment 声明一个附件槽位.
func WithAttachment(recordType, name string, multiple bool) Option {
	return func(u *Uploader) {
		def := AttachmentDef{RecordType: recordType, Name: name, Multiple: multiple}
		u.attachments[def.QualifiedName()] = def
	}
}

// WithAnalyzers 追加分析流水线环节，按注册顺序执行.
func WithAnalyzers(analyzers ...Analyzer) Option {
	return func(u *Uploader) {
		u.analyzers = append(u.analyzers, analyzers...)
	}
}

// WithAfterAttach 设置绑定成功后的回调.
func WithAfterAttach(fn AfterAttachFunc) Option {
	return func(u *Uploader) {
		u.afterAttach = fn
	}
}

// New 创建 Uploader，依赖缺失时立即失败.
func New(cfg Config, opts ...Option) (*Uploader, error) {
	if cfg.Signer == nil {
		return nil, errors.New("attach: signer is required")
	}

	if cfg.Service == nil {
		return nil, errors.New("attach: service is required")
	}

	if cfg.Adapter == nil {
		return nil, errors.New("attach: adapter is required")
	}

	expiry := cfg.DirectUploadExpiry
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = zerolog.Nop()
	}

	u := &Uploader{
		signer:             cfg.Signer,
		service:            cfg.Service,
		adapter:            cfg.Adapter,
		directUploadExpiry: expiry,
		logger:             logger,
		attachments:        make(map[string]AttachmentDef),
	}
	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

// Service 返回当前存储后端.
func (u *Uploader) Service() Service {
	return u.service
}

// Signer 返回令牌签名器.
func (u *Uploader) Signer() *signer.Signer {
	return u.signer
}

// Adapter 返回当前持久化适配器.
func (u *Uploader) Adapter() Adapter {
	return u.adapter
}

// Attachment 按记录类型和槽位名取 ModelAttachment，槽位未声明时报错.
func (u *Uploader) Attachment(recordType, name string) (*ModelAttachment, error) {
	def, ok := u.attachments[recordType+"."+name]
	if !ok {
		return nil, fmt.Errorf("attach: attachment %s.%s is not declared", recordType, name)
	}

	return &ModelAttachment{uploader: u, def: def}, nil
}

// FindAttachmentByName 按 "record.name" 全名取 ModelAttachment.
func (u *Uploader) FindAttachmentByName(qualified string) (*ModelAttachment, error) {
	recordType, name, ok := strings.Cut(qualified, ".")
	if !ok || recordType == "" || name == "" {
		return nil, fmt.Errorf("attach: invalid attachment name %q, want \"record.name\"", qualified)
	}

	return u.Attachment(recordType, name)
}

// runAfterAttach 执行绑定后回调，失败仅记录.
func (u *Uploader) runAfterAttach(ctx context.Context, blob *Blob, att *Attachment) {
	if u.afterAttach == nil {
		return
	}

	if err := u.afterAttach(ctx, blob, att); err != nil {
		u.logger.Warn().
			Err(err).
			Str("blob_id", blob.ID).
			Str("attachment_id", att.ID).
			Msg("after-attach hook failed, binding stands")
	}
}
