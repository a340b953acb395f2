package attach

import (
	"errors"
	"fmt"
)

var (
	// ErrBlobNotFound 按 ID 或 Key 找不到 Blob 行.
	ErrBlobNotFound = errors.New("attach: blob not found")
	// ErrAttachmentNotFound 找不到附件行.
	ErrAttachmentNotFound = errors.New("attach: attachment not found")
	// ErrMissingData 服务端中介上传既没有内容也没有签名ID.
	ErrMissingData = errors.New("attach: missing data")
	// ErrInvalidStrategy 绑定策略不是 one/many.
	ErrInvalidStrategy = errors.New("attach: invalid attachment strategy")
)

// StorageError 对象存储后端操作失败.
// 区别于元数据层错误：存储失败通常可重试，且不应泄露后端细节给调用方.
type StorageError struct {
	Service string
	Op      string
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attach: storage %s %s key=%s: %v", e.Service, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError 包装存储后端错误.
func NewStorageError(service, op, key string, err error) *StorageError {
	return &StorageError{Service: service, Op: op, Key: key, Err: err}
}
