// Package service 提供 attach.Service 的具体存储后端实现.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/configs"
	s3c "github.com/yeisme/attachvault/pkg/internal/storage/s3"
)

// S3Service 基于 MinIO 客户端的对象存储后端.
type S3Service struct {
	client *s3c.Client
	bucket string
	// publicBaseURL 为空时表示桶不开放公共读
	publicBaseURL string
}

var _ attach.Service = (*S3Service)(nil)

// NewS3Service 创建 S3 后端.
func NewS3Service(client *s3c.Client, cfg configs.S3Config) *S3Service {
	return &S3Service{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}
}

// Name 后端标识.
func (s *S3Service) Name() string { return "s3" }

// DirectUploadURL 生成预签名 PUT URL，把内容类型与MD5绑定进签名，
// 客户端上传时头不匹配则被对象存储拒绝.
func (s *S3Service) DirectUploadURL(ctx context.Context, blob *attach.Blob, expiresIn time.Duration) (string, error) {
	headers := http.Header{}
	if blob.ContentType != "" {
		headers.Set("Content-Type", blob.ContentType)
	}

	if blob.Checksum != "" {
		headers.Set("Content-MD5", blob.Checksum)
	}

	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, blob.Key, expiresIn, url.Values{}, headers)
	if err != nil {
		return "", attach.NewStorageError(s.Name(), "presign-put", blob.Key, err)
	}

	return u.String(), nil
}

// DirectUploadHeaders 直传请求必须携带的头.
func (s *S3Service) DirectUploadHeaders(blob *attach.Blob) map[string]string {
	headers := make(map[string]string, 2)
	if blob.ContentType != "" {
		headers["Content-Type"] = blob.ContentType
	}

	if blob.Checksum != "" {
		headers["Content-MD5"] = blob.Checksum
	}

	return headers
}

// Upload 服务端中介上传.
func (s *S3Service) Upload(ctx context.Context, blob *attach.Blob, r io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, blob.Key, r, blob.ByteSize, minio.PutObjectOptions{
		ContentType: blob.ContentType,
	})
	if err != nil {
		return attach.NewStorageError(s.Name(), "put", blob.Key, err)
	}

	return nil
}

// Download 把对象内容写入 w.
func (s *S3Service) Download(ctx context.Context, key string, w io.Writer) error {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return attach.NewStorageError(s.Name(), "get", key, err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		return attach.NewStorageError(s.Name(), "get", key, err)
	}

	return nil
}

// UpdateMetadata 通过自拷贝替换对象侧的内容类型与下载文件名.
func (s *S3Service) UpdateMetadata(ctx context.Context, blob *attach.Blob) error {
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: blob.Key}
	dst := minio.CopyDestOptions{
		Bucket:          s.bucket,
		Object:          blob.Key,
		ReplaceMetadata: true,
		ContentType:     blob.ContentType,
	}

	if blob.Filename != "" {
		dst.UserMetadata = map[string]string{"filename": blob.Filename}
	}

	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return attach.NewStorageError(s.Name(), "copy-metadata", blob.Key, err)
	}

	return nil
}

// PublicURL 公开读URL，未配置公共基地址时报错.
func (s *S3Service) PublicURL(blob *attach.Blob) (string, error) {
	if s.publicBaseURL == "" {
		return "", fmt.Errorf("s3 service: public access is not configured")
	}

	return s.publicBaseURL + "/" + blob.Key, nil
}

// PrivateURL 限时私有读URL，附带下载文件名.
func (s *S3Service) PrivateURL(ctx context.Context, blob *attach.Blob, expiresIn time.Duration) (string, error) {
	params := url.Values{}
	if blob.Filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, blob.Key, expiresIn, params)
	if err != nil {
		return "", attach.NewStorageError(s.Name(), "presign-get", blob.Key, err)
	}

	return u.String(), nil
}

// ProtocolURL 内部定位符.
func (s *S3Service) ProtocolURL(blob *attach.Blob) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, blob.Key)
}

// Delete 删除对象，Key 不存在时静默成功.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}

		return attach.NewStorageError(s.Name(), "remove", key, err)
	}

	return nil
}
