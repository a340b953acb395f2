package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/signer"
)

const (
	// PurposeDiskUpload 磁盘直传令牌的 purpose.
	PurposeDiskUpload = "disk-upload"
	// PurposeDiskDownload 磁盘私有下载令牌的 purpose.
	PurposeDiskDownload = "disk-download"
)

// DiskTokenClaim 磁盘令牌负载，由 /disk/:token 端点兑换.
type DiskTokenClaim struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
	ByteSize    int64  `json:"byteSize,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// DiskService 本地磁盘后端.
// 没有对象存储那样的预签名机制，直传/下载URL靠签名令牌 + 自身的 /disk 端点模拟.
type DiskService struct {
	fs      afero.Fs
	root    string
	signer  *signer.Signer
	baseURL string
}

var _ attach.Service = (*DiskService)(nil)

// NewDiskService 创建磁盘后端，root 不存在时自动建目录.
func NewDiskService(root, baseURL string, s *signer.Signer) (*DiskService, error) {
	return NewDiskServiceWithFs(afero.NewOsFs(), root, baseURL, s)
}

// NewDiskServiceWithFs 以指定文件系统创建磁盘后端，测试时注入 afero.NewMemMapFs().
func NewDiskServiceWithFs(fs afero.Fs, root, baseURL string, s *signer.Signer) (*DiskService, error) {
	if s == nil {
		return nil, fmt.Errorf("disk service: signer is required")
	}

	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk service: create root %s: %w", root, err)
	}

	return &DiskService{
		fs:      fs,
		root:    root,
		signer:  s,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Name 后端标识.
func (d *DiskService) Name() string { return "disk" }

// Fs 返回底层文件系统，供 /disk 端点直接读写.
func (d *DiskService) Fs() afero.Fs { return d.fs }

// path 计算对象的磁盘路径，键做两级目录散列避免单目录过大.
func (d *DiskService) path(key string) string {
	if len(key) >= 4 {
		return filepath.Join(d.root, key[0:2], key[2:4], key)
	}

	return filepath.Join(d.root, key)
}

// DirectUploadURL 签发上传令牌并指向自身的 /disk 端点.
func (d *DiskService) DirectUploadURL(_ context.Context, blob *attach.Blob, expiresIn time.Duration) (string, error) {
	token, err := d.signer.SignWithExpiry(PurposeDiskUpload, DiskTokenClaim{
		Key:         blob.Key,
		ContentType: blob.ContentType,
		ByteSize:    blob.ByteSize,
		Checksum:    blob.Checksum,
	}, expiresIn)
	if err != nil {
		return "", attach.NewStorageError(d.Name(), "sign-upload", blob.Key, err)
	}

	return d.baseURL + "/disk/" + token, nil
}

// DirectUploadHeaders 直传请求必须携带的头.
func (d *DiskService) DirectUploadHeaders(blob *attach.Blob) map[string]string {
	headers := make(map[string]string, 1)
	if blob.ContentType != "" {
		headers["Content-Type"] = blob.ContentType
	}

	return headers
}

// Upload 写入对象内容.
func (d *DiskService) Upload(_ context.Context, blob *attach.Blob, r io.Reader) error {
	return d.Store(blob.Key, r)
}

// Store 按键写入内容，供 /disk 上传端点复用.
func (d *DiskService) Store(key string, r io.Reader) error {
	p := d.path(key)

	if err := d.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return attach.NewStorageError(d.Name(), "mkdir", key, err)
	}

	f, err := d.fs.Create(p)
	if err != nil {
		return attach.NewStorageError(d.Name(), "create", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()

		return attach.NewStorageError(d.Name(), "write", key, err)
	}

	if err := f.Close(); err != nil {
		return attach.NewStorageError(d.Name(), "close", key, err)
	}

	return nil
}

// Download 把对象内容写入 w.
func (d *DiskService) Download(_ context.Context, key string, w io.Writer) error {
	f, err := d.fs.Open(d.path(key))
	if err != nil {
		return attach.NewStorageError(d.Name(), "open", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return attach.NewStorageError(d.Name(), "read", key, err)
	}

	return nil
}

// UpdateMetadata 磁盘后端没有对象侧元数据，空操作.
func (d *DiskService) UpdateMetadata(context.Context, *attach.Blob) error {
	return nil
}

// PublicURL 磁盘后端不支持公开访问.
func (d *DiskService) PublicURL(*attach.Blob) (string, error) {
	return "", fmt.Errorf("disk service: public access is not supported")
}

// PrivateURL 签发下载令牌并指向自身的 /disk 端点.
func (d *DiskService) PrivateURL(_ context.Context, blob *attach.Blob, expiresIn time.Duration) (string, error) {
	token, err := d.signer.SignWithExpiry(PurposeDiskDownload, DiskTokenClaim{
		Key:         blob.Key,
		ContentType: blob.ContentType,
		Filename:    blob.Filename,
	}, expiresIn)
	if err != nil {
		return "", attach.NewStorageError(d.Name(), "sign-download", blob.Key, err)
	}

	return d.baseURL + "/disk/" + token, nil
}

// ProtocolURL 内部定位符.
func (d *DiskService) ProtocolURL(blob *attach.Blob) string {
	return "disk://" + blob.Key
}

// Delete 删除对象，Key 不存在时静默成功.
func (d *DiskService) Delete(_ context.Context, key string) error {
	if err := d.fs.Remove(d.path(key)); err != nil && !os.IsNotExist(err) {
		return attach.NewStorageError(d.Name(), "remove", key, err)
	}

	return nil
}
