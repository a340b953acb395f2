package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/signer"
)

func newTestDisk(t *testing.T) *DiskService {
	t.Helper()

	s, err := signer.New("disk-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	d, err := NewDiskServiceWithFs(afero.NewMemMapFs(), "data/blobs", "http://localhost:8080", s)
	if err != nil {
		t.Fatal(err)
	}

	return d
}

func TestDiskStoreAndDownload(t *testing.T) {
	d := newTestDisk(t)
	blob := &attach.Blob{Key: "01abcd", ContentType: "text/plain", ByteSize: 5}

	if err := d.Upload(context.Background(), blob, strings.NewReader("hello")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	var buf bytes.Buffer
	if err := d.Download(context.Background(), blob.Key, &buf); err != nil {
		t.Fatalf("Download: %v", err)
	}

	if buf.String() != "hello" {
		t.Errorf("content = %q", buf.String())
	}
}

func TestDiskDownloadMissing(t *testing.T) {
	d := newTestDisk(t)

	var se *attach.StorageError

	err := d.Download(context.Background(), "missing", &bytes.Buffer{})
	if !errors.As(err, &se) {
		t.Errorf("err = %v, want *attach.StorageError", err)
	}
}

func TestDiskDirectUploadTokenRoundTrip(t *testing.T) {
	d := newTestDisk(t)
	blob := &attach.Blob{Key: "01abcd", ContentType: "image/png", ByteSize: 42}

	u, err := d.DirectUploadURL(context.Background(), blob, 5*time.Minute)
	if err != nil {
		t.Fatalf("DirectUploadURL: %v", err)
	}

	token, ok := strings.CutPrefix(u, "http://localhost:8080/disk/")
	if !ok {
		t.Fatalf("url = %q", u)
	}

	claim, err := signer.Verify[DiskTokenClaim](d.signer, token, PurposeDiskUpload)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claim.Key != blob.Key || claim.ContentType != "image/png" || claim.ByteSize != 42 {
		t.Errorf("claim = %+v", claim)
	}
}

func TestDiskDeleteIdempotent(t *testing.T) {
	d := newTestDisk(t)

	if err := d.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete of missing key must succeed, got %v", err)
	}
}
