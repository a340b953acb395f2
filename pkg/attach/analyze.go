package attach

import (
	"context"
	"fmt"
	"os"
)

// Analyze 对对象键对应的 Blob 执行分析流水线并合并写回元数据.
// 单个环节失败只丢弃该环节的结果；最终写回前重查 Blob，行消失时返回 ErrBlobNotFound.
func (u *Uploader) Analyze(ctx context.Context, key string) (Metadata, error) {
	blob, err := u.adapter.FindBlobByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(u.analyzers) == 0 {
		u.logger.Warn().
			Str("key", key).
			Msg("no analyzers registered, skipping analysis")

		return Metadata{}, nil
	}

	src, err := u.downloadTemp(ctx, blob)
	if err != nil {
		return nil, err
	}
	defer os.Remove(src)

	meta := Metadata{"identified": true}

	for _, a := range u.analyzers {
		if !a.Accepts(blob) {
			continue
		}

		extracted, err := u.runAnalyzer(ctx, a, blob, src)
		if err != nil {
			u.logger.Warn().
				Err(err).
				Str("analyzer", a.Name()).
				Str("key", key).
				Msg("analyzer failed, result discarded")

			continue
		}

		meta = meta.Merge(extracted)
	}

	meta["analyzed"] = true

	updated, err := u.adapter.UpdateBlobMetadata(ctx, blob.ID, meta)
	if err != nil {
		return nil, err
	}

	return updated.Metadata, nil
}

// runAnalyzer 执行单个分析环节并把 panic 转成错误.
func (u *Uploader) runAnalyzer(ctx context.Context, a Analyzer, blob *Blob, src string) (meta Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer %s panicked: %v", a.Name(), r)
		}
	}()

	return a.Analyze(ctx, blob, src)
}

// downloadTemp 把对象内容拉到本地临时文件，调用方负责删除.
func (u *Uploader) downloadTemp(ctx context.Context, blob *Blob) (string, error) {
	f, err := os.CreateTemp("", "attachvault-analyze-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if err := u.service.Download(ctx, blob.Key, f); err != nil {
		f.Close()
		os.Remove(f.Name())

		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())

		return "", fmt.Errorf("close temp file: %w", err)
	}

	return f.Name(), nil
}
