package attach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/attachvault/pkg/signer"
)

func newTestUploader(t *testing.T, svc *fakeService, ad *fakeAdapter, opts ...Option) *Uploader {
	t.Helper()

	s, err := signer.New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("signer.New: %v", err)
	}

	opts = append([]Option{
		WithAttachment("note", "cover", false),
		WithAttachment("note", "gallery", true),
	}, opts...)

	u, err := New(Config{Signer: s, Service: svc, Adapter: ad}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return u
}

func TestNewMissingDependencies(t *testing.T) {
	s, _ := signer.New("k", time.Hour)
	svc := newFakeService()
	ad := newFakeAdapter()

	cases := []struct {
		name string
		cfg  Config
	}{
		{"no signer", Config{Service: svc, Adapter: ad}},
		{"no service", Config{Signer: s, Adapter: ad}},
		{"no adapter", Config{Signer: s, Service: svc}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMetadataMerge(t *testing.T) {
	base := Metadata{"a": 1, "b": "old"}
	merged := base.Merge(Metadata{"b": "new", "c": true})

	if merged["a"] != 1 || merged["b"] != "new" || merged["c"] != true {
		t.Errorf("merged = %v", merged)
	}

	if base["b"] != "old" {
		t.Error("Merge must not mutate the receiver")
	}
}

func TestCreateDirectUpload(t *testing.T) {
	svc := newFakeService()
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)

	du, err := u.CreateDirectUpload(context.Background(), DirectUploadParams{
		Filename:    "cat.png",
		ContentType: "image/png",
		ByteSize:    1234,
		Checksum:    "abc==",
	})
	if err != nil {
		t.Fatalf("CreateDirectUpload: %v", err)
	}

	if du.SignedID == "" || du.URL == "" {
		t.Fatal("missing signed id or url")
	}

	if du.Headers["Content-Type"] != "image/png" || du.Headers["Content-MD5"] != "abc==" {
		t.Errorf("headers = %v", du.Headers)
	}

	// 签名ID可兑换回同一 Blob
	claim, err := signer.Verify[SignedBlobClaim](signerOf(t, u), du.SignedID, PurposeBlob)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claim.BlobID != du.Blob.ID {
		t.Errorf("claim.BlobID = %s, want %s", claim.BlobID, du.Blob.ID)
	}

	if _, err := ad.FindBlob(context.Background(), du.Blob.ID); err != nil {
		t.Errorf("blob row not persisted: %v", err)
	}
}

func signerOf(t *testing.T, u *Uploader) *signer.Signer {
	t.Helper()

	return u.signer
}

func TestCreateDirectUploadPresignFailureLeavesOrphan(t *testing.T) {
	svc := newFakeService()
	svc.presignErr = errors.New("backend down")
	ad := newFakeAdapter()
	u := newTestUploader(t, svc, ad)

	_, err := u.CreateDirectUpload(context.Background(), DirectUploadParams{Filename: "x"})
	if err == nil {
		t.Fatal("expected error")
	}

	// Blob 行保留给清扫任务
	orphans, err := ad.FindOrphanBlobs(context.Background(), time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("FindOrphanBlobs: %v", err)
	}

	if len(orphans) != 1 {
		t.Errorf("orphans = %d, want 1", len(orphans))
	}
}

func TestFindAttachmentByName(t *testing.T) {
	u := newTestUploader(t, newFakeService(), newFakeAdapter())

	m, err := u.FindAttachmentByName("note.cover")
	if err != nil {
		t.Fatalf("FindAttachmentByName: %v", err)
	}

	if m.Def().Strategy() != StrategyOne {
		t.Errorf("strategy = %s, want one", m.Def().Strategy())
	}

	for _, bad := range []string{"", "note", ".cover", "note.", "note.missing"} {
		if _, err := u.FindAttachmentByName(bad); err == nil {
			t.Errorf("name %q: expected error", bad)
		}
	}
}
