package attach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/attachvault/pkg/signer"
)

func TestAttachFileMissingData(t *testing.T) {
	u := newTestUploader(t, newFakeService(), newFakeAdapter())
	m, _ := u.Attachment("note", "cover")

	_, err := m.AttachFile(context.Background(), "r1", File{Filename: "empty.txt"})
	if !errors.Is(err, ErrMissingData) {
		t.Errorf("err = %v, want ErrMissingData", err)
	}
}

func TestAttachFileSniffsContentType(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)
	m, _ := u.Attachment("note", "cover")

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

	att, err := m.AttachFile(context.Background(), "r1", File{Content: pngHeader})
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	blob, err := ad.FindBlob(context.Background(), att.BlobID)
	if err != nil {
		t.Fatalf("FindBlob: %v", err)
	}

	if blob.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", blob.ContentType)
	}

	if blob.ByteSize != int64(len(pngHeader)) {
		t.Errorf("ByteSize = %d, want %d", blob.ByteSize, len(pngHeader))
	}

	if blob.Checksum == "" {
		t.Error("checksum not computed")
	}

	if _, ok := svc.objects[blob.Key]; !ok {
		t.Error("content not uploaded to service")
	}
}

func TestAttachSignedFile(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()

	var hookBlob *Blob

	u := newTestUploader(t, svc, ad, WithAfterAttach(func(_ context.Context, b *Blob, _ *Attachment) error {
		hookBlob = b

		return nil
	}))

	du, err := u.CreateDirectUpload(context.Background(), DirectUploadParams{
		Filename:    "doc.pdf",
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("CreateDirectUpload: %v", err)
	}

	m, _ := u.Attachment("note", "cover")

	att, err := m.AttachSignedFile(context.Background(), "r1", du.SignedID)
	if err != nil {
		t.Fatalf("AttachSignedFile: %v", err)
	}

	if att.BlobID != du.Blob.ID {
		t.Errorf("BlobID = %s, want %s", att.BlobID, du.Blob.ID)
	}

	if svc.updateCalls != 1 {
		t.Errorf("UpdateMetadata calls = %d, want 1", svc.updateCalls)
	}

	if hookBlob == nil || hookBlob.ID != du.Blob.ID {
		t.Error("after-attach hook not invoked with the bound blob")
	}
}

func TestAttachSignedFileTokenErrors(t *testing.T) {
	u := newTestUploader(t, newFakeService(), newFakeAdapter())
	m, _ := u.Attachment("note", "cover")
	ctx := context.Background()

	if _, err := m.AttachSignedFile(ctx, "r1", "garbage"); !errors.Is(err, signer.ErrTokenInvalid) {
		t.Errorf("garbage token: err = %v, want ErrTokenInvalid", err)
	}

	// 错误 purpose 的令牌
	other, _ := signerOf(t, u).Sign("something-else", SignedBlobClaim{BlobID: "x"})
	if _, err := m.AttachSignedFile(ctx, "r1", other); !errors.Is(err, signer.ErrPurposeMismatch) {
		t.Errorf("wrong purpose: err = %v, want ErrPurposeMismatch", err)
	}

	// 合法令牌但 Blob 不存在
	stale, _ := signerOf(t, u).Sign(PurposeBlob, SignedBlobClaim{BlobID: "gone"})
	if _, err := m.AttachSignedFile(ctx, "r1", stale); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("missing blob: err = %v, want ErrBlobNotFound", err)
	}
}

func TestAttachSignedFileMetadataSyncFailureTolerated(t *testing.T) {
	svc := newFakeService()
	svc.updateErr = errors.New("backend refused")
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)

	du, _ := u.CreateDirectUpload(context.Background(), DirectUploadParams{Filename: "a"})
	m, _ := u.Attachment("note", "cover")

	if _, err := m.AttachSignedFile(context.Background(), "r1", du.SignedID); err != nil {
		t.Fatalf("metadata sync failure must not fail the bind: %v", err)
	}
}

func TestAttachStrategyOne(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)
	m, _ := u.Attachment("note", "cover")
	ctx := context.Background()

	du1, _ := u.CreateDirectUpload(ctx, DirectUploadParams{Filename: "one"})
	du2, _ := u.CreateDirectUpload(ctx, DirectUploadParams{Filename: "two"})

	if _, err := m.AttachSignedFile(ctx, "r1", du1.SignedID); err != nil {
		t.Fatal(err)
	}

	if _, err := m.AttachSignedFile(ctx, "r1", du2.SignedID); err != nil {
		t.Fatal(err)
	}

	atts, err := m.Attachments(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}

	if len(atts) != 1 {
		t.Fatalf("attachments = %d, want 1", len(atts))
	}

	if atts[0].BlobID != du2.Blob.ID {
		t.Errorf("surviving blob = %s, want the second one %s", atts[0].BlobID, du2.Blob.ID)
	}
}

func TestAttachStrategyMany(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)
	m, _ := u.Attachment("note", "gallery")
	ctx := context.Background()

	var want []string

	for range 3 {
		du, _ := u.CreateDirectUpload(ctx, DirectUploadParams{Filename: "f"})

		if _, err := m.AttachSignedFile(ctx, "r1", du.SignedID); err != nil {
			t.Fatal(err)
		}

		want = append(want, du.Blob.ID)
	}

	atts, err := m.Attachments(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}

	if len(atts) != 3 {
		t.Fatalf("attachments = %d, want 3", len(atts))
	}

	// 创建顺序稳定
	for i, att := range atts {
		if att.BlobID != want[i] {
			t.Errorf("atts[%d].BlobID = %s, want %s", i, att.BlobID, want[i])
		}
	}
}

func TestAfterAttachFailureDoesNotUnbind(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad, WithAfterAttach(func(context.Context, *Blob, *Attachment) error {
		return errors.New("hook exploded")
	}))

	du, _ := u.CreateDirectUpload(context.Background(), DirectUploadParams{Filename: "a"})
	m, _ := u.Attachment("note", "cover")

	att, err := m.AttachSignedFile(context.Background(), "r1", du.SignedID)
	if err != nil {
		t.Fatalf("hook failure must not fail the bind: %v", err)
	}

	atts, _ := m.Attachments(context.Background(), "r1")
	if len(atts) != 1 || atts[0].ID != att.ID {
		t.Error("binding should stand after hook failure")
	}
}

func TestDetach(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)
	m, _ := u.Attachment("note", "gallery")
	ctx := context.Background()

	for range 2 {
		du, _ := u.CreateDirectUpload(ctx, DirectUploadParams{Filename: "f"})

		if _, err := m.AttachSignedFile(ctx, "r1", du.SignedID); err != nil {
			t.Fatal(err)
		}
	}

	n, err := m.Detach(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}

	if n != 2 {
		t.Errorf("detached = %d, want 2", n)
	}

	atts, _ := m.Attachments(ctx, "r1")
	if len(atts) != 0 {
		t.Errorf("attachments after detach = %d, want 0", len(atts))
	}
}

func TestSignedIDExpiry(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s, _ := signer.New("test-secret", time.Hour, signer.WithNowFunc(func() time.Time { return clock }))

	u, err := New(Config{Signer: s, Service: svc, Adapter: ad}, WithAttachment("note", "cover", false))
	if err != nil {
		t.Fatal(err)
	}

	du, err := u.CreateDirectUpload(context.Background(), DirectUploadParams{Filename: "a"})
	if err != nil {
		t.Fatal(err)
	}

	m, _ := u.Attachment("note", "cover")

	clock = now.Add(2 * time.Hour)

	if _, err := m.AttachSignedFile(context.Background(), "r1", du.SignedID); !errors.Is(err, signer.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}

	// 过期兑换不能留下任何绑定
	atts, err := m.Attachments(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}

	if len(atts) != 0 {
		t.Errorf("attachments after expired redemption = %d, want 0", len(atts))
	}
}
