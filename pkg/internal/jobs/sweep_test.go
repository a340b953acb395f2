package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/attachvault/pkg/attach"
)

type sweepService struct {
	mu        sync.Mutex
	objects   map[string]bool
	deleteErr map[string]error
}

func (s *sweepService) Name() string { return "fake" }

func (s *sweepService) DirectUploadURL(context.Context, *attach.Blob, time.Duration) (string, error) {
	return "", errors.New("not used")
}

func (s *sweepService) DirectUploadHeaders(*attach.Blob) map[string]string { return nil }

func (s *sweepService) Upload(context.Context, *attach.Blob, io.Reader) error {
	return errors.New("not used")
}

func (s *sweepService) Download(context.Context, string, io.Writer) error {
	return errors.New("not used")
}

func (s *sweepService) UpdateMetadata(context.Context, *attach.Blob) error { return nil }

func (s *sweepService) PublicURL(*attach.Blob) (string, error) { return "", errors.New("not used") }

func (s *sweepService) PrivateURL(context.Context, *attach.Blob, time.Duration) (string, error) {
	return "", errors.New("not used")
}

func (s *sweepService) ProtocolURL(*attach.Blob) string { return "" }

func (s *sweepService) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteErr[key]; err != nil {
		return err
	}

	delete(s.objects, key)

	return nil
}

type sweepAdapter struct {
	mu      sync.Mutex
	orphans []attach.Blob
	deleted map[string]bool
}

func (a *sweepAdapter) CreateBlob(context.Context, *attach.Blob) error { return errors.New("not used") }

func (a *sweepAdapter) FindBlob(context.Context, string) (*attach.Blob, error) {
	return nil, attach.ErrBlobNotFound
}

func (a *sweepAdapter) FindBlobByKey(context.Context, string) (*attach.Blob, error) {
	return nil, attach.ErrBlobNotFound
}

func (a *sweepAdapter) UpdateBlobMetadata(context.Context, string, attach.Metadata) (*attach.Blob, error) {
	return nil, attach.ErrBlobNotFound
}

func (a *sweepAdapter) AttachBlob(context.Context, *attach.Attachment, attach.Strategy) error {
	return errors.New("not used")
}

func (a *sweepAdapter) DeleteAttachment(context.Context, string) error { return errors.New("not used") }

func (a *sweepAdapter) DeleteAttachments(context.Context, string, string, string) (int64, error) {
	return 0, errors.New("not used")
}

func (a *sweepAdapter) FindAttachments(context.Context, string, string, string) ([]attach.Attachment, error) {
	return nil, nil
}

func (a *sweepAdapter) FindOrphanBlobs(_ context.Context, olderThan time.Time, limit int) ([]attach.Blob, error) {
	var out []attach.Blob

	for _, b := range a.orphans {
		if len(out) >= limit {
			break
		}

		if b.CreatedAt.Before(olderThan) {
			out = append(out, b)
		}
	}

	return out, nil
}

func (a *sweepAdapter) DeleteBlob(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted[id] = true

	return nil
}

func orphan(id, key string, age time.Duration) attach.Blob {
	return attach.Blob{ID: id, Key: key, CreatedAt: time.Now().Add(-age)}
}

func TestSweeperRemovesOldOrphans(t *testing.T) {
	svc := &sweepService{objects: map[string]bool{"k1": true, "k2": true, "k3": true}}
	ad := &sweepAdapter{
		orphans: []attach.Blob{
			orphan("b1", "k1", 48*time.Hour),
			orphan("b2", "k2", 48*time.Hour),
			// 还在上传窗口内，不应被扫
			orphan("b3", "k3", time.Minute),
		},
		deleted: make(map[string]bool),
	}

	s := NewSweeper(ad, svc, nil, zerolog.Nop(), 24*time.Hour, 100)

	swept, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if swept != 2 {
		t.Fatalf("swept = %d, want 2", swept)
	}

	if !ad.deleted["b1"] || !ad.deleted["b2"] {
		t.Fatalf("old orphan rows not deleted: %v", ad.deleted)
	}

	if ad.deleted["b3"] {
		t.Fatal("fresh blob must survive the sweep")
	}

	if svc.objects["k1"] || svc.objects["k2"] {
		t.Fatalf("objects not deleted: %v", svc.objects)
	}
}

func TestSweeperKeepsRowWhenObjectDeleteFails(t *testing.T) {
	svc := &sweepService{
		objects:   map[string]bool{"k1": true},
		deleteErr: map[string]error{"k1": errors.New("backend down")},
	}
	ad := &sweepAdapter{
		orphans: []attach.Blob{orphan("b1", "k1", 48 * time.Hour)},
		deleted: make(map[string]bool),
	}

	s := NewSweeper(ad, svc, nil, zerolog.Nop(), 24*time.Hour, 100)

	swept, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if swept != 0 {
		t.Fatalf("swept = %d, want 0", swept)
	}

	if ad.deleted["b1"] {
		t.Fatal("row must be kept for retry when object delete fails")
	}
}

func TestSweeperRespectsBatchSize(t *testing.T) {
	svc := &sweepService{objects: map[string]bool{"k1": true, "k2": true}}
	ad := &sweepAdapter{
		orphans: []attach.Blob{
			orphan("b1", "k1", 48*time.Hour),
			orphan("b2", "k2", 48*time.Hour),
		},
		deleted: make(map[string]bool),
	}

	s := NewSweeper(ad, svc, nil, zerolog.Nop(), 24*time.Hour, 1)

	swept, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}
}
