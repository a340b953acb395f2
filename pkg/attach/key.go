package attach

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var keyMu sync.Mutex

// NewKey 生成对象存储键：小写 ULID，时间有序且不可预测.
// 键永不复用，改写内容必须走新 Blob 新 Key.
func NewKey() string {
	keyMu.Lock()
	defer keyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)

	return strings.ToLower(id.String())
}

// NewID 生成行主键，与对象键同构但大小写保留 ULID 规范形式.
func NewID() string {
	keyMu.Lock()
	defer keyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
