package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/attachvault/pkg/attach"
)

func newTestAdapter(t *testing.T) *GormAdapter {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	a, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return a
}

func seedBlob(t *testing.T, a *GormAdapter, createdAt time.Time) *attach.Blob {
	t.Helper()

	blob := &attach.Blob{
		ID:          attach.NewID(),
		Key:         attach.NewKey(),
		Filename:    "f.txt",
		ContentType: "text/plain",
		ByteSize:    3,
		Metadata:    attach.Metadata{"origin": "test"},
		CreatedAt:   createdAt,
	}
	if err := a.CreateBlob(context.Background(), blob); err != nil {
		t.Fatalf("CreateBlob: %v", err)
	}

	return blob
}

func TestBlobRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	blob := seedBlob(t, a, time.Now())

	byID, err := a.FindBlob(ctx, blob.ID)
	if err != nil {
		t.Fatalf("FindBlob: %v", err)
	}

	if byID.Key != blob.Key || byID.ContentType != "text/plain" {
		t.Errorf("got %+v", byID)
	}

	if byID.Metadata["origin"] != "test" {
		t.Errorf("metadata = %v", byID.Metadata)
	}

	byKey, err := a.FindBlobByKey(ctx, blob.Key)
	if err != nil {
		t.Fatalf("FindBlobByKey: %v", err)
	}

	if byKey.ID != blob.ID {
		t.Errorf("byKey.ID = %s, want %s", byKey.ID, blob.ID)
	}
}

func TestFindBlobNotFound(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if _, err := a.FindBlob(ctx, "missing"); !errors.Is(err, attach.ErrBlobNotFound) {
		t.Errorf("FindBlob err = %v, want ErrBlobNotFound", err)
	}

	if _, err := a.FindBlobByKey(ctx, "missing"); !errors.Is(err, attach.ErrBlobNotFound) {
		t.Errorf("FindBlobByKey err = %v, want ErrBlobNotFound", err)
	}

	if _, err := a.UpdateBlobMetadata(ctx, "missing", attach.Metadata{"a": 1}); !errors.Is(err, attach.ErrBlobNotFound) {
		t.Errorf("UpdateBlobMetadata err = %v, want ErrBlobNotFound", err)
	}
}

func TestUpdateBlobMetadataMerges(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	blob := seedBlob(t, a, time.Now())

	updated, err := a.UpdateBlobMetadata(ctx, blob.ID, attach.Metadata{"identified": true, "origin": "analyzer"})
	if err != nil {
		t.Fatalf("UpdateBlobMetadata: %v", err)
	}

	if updated.Metadata["identified"] != true || updated.Metadata["origin"] != "analyzer" {
		t.Errorf("updated.Metadata = %v", updated.Metadata)
	}

	// 再次读取确认落库且旧键保留合并语义
	stored, err := a.FindBlob(ctx, blob.ID)
	if err != nil {
		t.Fatal(err)
	}

	if stored.Metadata["identified"] != true {
		t.Errorf("stored.Metadata = %v", stored.Metadata)
	}
}

func TestAttachBlobStrategyOneReplaces(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	b1 := seedBlob(t, a, time.Now())
	b2 := seedBlob(t, a, time.Now())

	att1 := &attach.Attachment{
		ID: attach.NewID(), Name: "cover", RecordType: "note", RecordID: "r1",
		BlobID: b1.ID, CreatedAt: time.Now(),
	}
	if err := a.AttachBlob(ctx, att1, attach.StrategyOne); err != nil {
		t.Fatal(err)
	}

	att2 := &attach.Attachment{
		ID: attach.NewID(), Name: "cover", RecordType: "note", RecordID: "r1",
		BlobID: b2.ID, CreatedAt: time.Now().Add(time.Second),
	}
	if err := a.AttachBlob(ctx, att2, attach.StrategyOne); err != nil {
		t.Fatal(err)
	}

	atts, err := a.FindAttachments(ctx, "note", "r1", "cover")
	if err != nil {
		t.Fatal(err)
	}

	if len(atts) != 1 || atts[0].BlobID != b2.ID {
		t.Errorf("atts = %+v, want single attachment for %s", atts, b2.ID)
	}
}

func TestAttachBlobStrategyManyAppendsInOrder(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	base := time.Now()

	var want []string

	for i := range 3 {
		b := seedBlob(t, a, base)
		att := &attach.Attachment{
			ID: attach.NewID(), Name: "gallery", RecordType: "note", RecordID: "r1",
			BlobID: b.ID, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}

		if err := a.AttachBlob(ctx, att, attach.StrategyMany); err != nil {
			t.Fatal(err)
		}

		want = append(want, b.ID)
	}

	atts, err := a.FindAttachments(ctx, "note", "r1", "gallery")
	if err != nil {
		t.Fatal(err)
	}

	if len(atts) != 3 {
		t.Fatalf("len = %d, want 3", len(atts))
	}

	for i := range atts {
		if atts[i].BlobID != want[i] {
			t.Errorf("atts[%d].BlobID = %s, want %s", i, atts[i].BlobID, want[i])
		}
	}
}

func TestAttachBlobInvalidStrategy(t *testing.T) {
	a := newTestAdapter(t)

	att := &attach.Attachment{ID: attach.NewID(), Name: "x", RecordType: "note", RecordID: "r1", BlobID: "b"}
	if err := a.AttachBlob(context.Background(), att, attach.Strategy("bogus")); !errors.Is(err, attach.ErrInvalidStrategy) {
		t.Errorf("err = %v, want ErrInvalidStrategy", err)
	}
}

func TestDeleteAttachments(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	b := seedBlob(t, a, time.Now())

	att := &attach.Attachment{
		ID: attach.NewID(), Name: "cover", RecordType: "note", RecordID: "r1",
		BlobID: b.ID, CreatedAt: time.Now(),
	}
	if err := a.AttachBlob(ctx, att, attach.StrategyOne); err != nil {
		t.Fatal(err)
	}

	if err := a.DeleteAttachment(ctx, att.ID); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}

	if err := a.DeleteAttachment(ctx, att.ID); !errors.Is(err, attach.ErrAttachmentNotFound) {
		t.Errorf("second delete err = %v, want ErrAttachmentNotFound", err)
	}

	n, err := a.DeleteAttachments(ctx, "note", "r1", "cover")
	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}

func TestFindOrphanBlobs(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	orphan := seedBlob(t, a, old)
	attached := seedBlob(t, a, old)
	fresh := seedBlob(t, a, time.Now())

	att := &attach.Attachment{
		ID: attach.NewID(), Name: "cover", RecordType: "note", RecordID: "r1",
		BlobID: attached.ID, CreatedAt: time.Now(),
	}
	if err := a.AttachBlob(ctx, att, attach.StrategyOne); err != nil {
		t.Fatal(err)
	}

	got, err := a.FindOrphanBlobs(ctx, time.Now().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 || got[0].ID != orphan.ID {
		t.Errorf("orphans = %+v, want only %s", got, orphan.ID)
	}

	_ = fresh
}
