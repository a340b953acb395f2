package attach

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// fakeService 内存对象存储，用于编排逻辑测试.
type fakeService struct {
	mu      sync.Mutex
	objects map[string][]byte

	presignErr  error
	uploadErr   error
	updateCalls int
	updateErr   error
}

func newFakeService() *fakeService {
	return &fakeService{objects: make(map[string][]byte)}
}

func (s *fakeService) Name() string { return "fake" }

func (s *fakeService) DirectUploadURL(_ context.Context, blob *Blob, expiresIn time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}

	return fmt.Sprintf("https://fake.test/%s?expires=%d", blob.Key, int(expiresIn.Seconds())), nil
}

func (s *fakeService) DirectUploadHeaders(blob *Blob) map[string]string {
	h := map[string]string{"Content-Type": blob.ContentType}
	if blob.Checksum != "" {
		h["Content-MD5"] = blob.Checksum
	}

	return h
}

func (s *fakeService) Upload(_ context.Context, blob *Blob, r io.Reader) error {
	if s.uploadErr != nil {
		return NewStorageError(s.Name(), "upload", blob.Key, s.uploadErr)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[blob.Key] = data

	return nil
}

func (s *fakeService) Download(_ context.Context, key string, w io.Writer) error {
	s.mu.Lock()
	data, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		return NewStorageError(s.Name(), "download", key, fmt.Errorf("object not found"))
	}

	_, err := io.Copy(w, bytes.NewReader(data))

	return err
}

func (s *fakeService) UpdateMetadata(_ context.Context, blob *Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++

	return s.updateErr
}

func (s *fakeService) PublicURL(blob *Blob) (string, error) {
	return "https://fake.test/" + blob.Key, nil
}

func (s *fakeService) PrivateURL(_ context.Context, blob *Blob, _ time.Duration) (string, error) {
	return "https://fake.test/" + blob.Key + "?signed", nil
}

func (s *fakeService) ProtocolURL(blob *Blob) string {
	return "fake://" + blob.Key
}

func (s *fakeService) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)

	return nil
}

// fakeAdapter 内存持久化，语义与 GORM 实现对齐.
type fakeAdapter struct {
	mu          sync.Mutex
	blobs       map[string]*Blob
	attachments map[string]*Attachment
	seq         int

	createErr error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		blobs:       make(map[string]*Blob),
		attachments: make(map[string]*Attachment),
	}
}

func (a *fakeAdapter) CreateBlob(_ context.Context, blob *Blob) error {
	if a.createErr != nil {
		return a.createErr
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c := *blob
	c.Metadata = blob.Metadata.Clone()
	a.blobs[blob.ID] = &c

	return nil
}

func (a *fakeAdapter) FindBlob(_ context.Context, id string) (*Blob, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blobs[id]
	if !ok {
		return nil, ErrBlobNotFound
	}

	c := *b
	c.Metadata = b.Metadata.Clone()

	return &c, nil
}

func (a *fakeAdapter) FindBlobByKey(_ context.Context, key string) (*Blob, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range a.blobs {
		if b.Key == key {
			c := *b
			c.Metadata = b.Metadata.Clone()

			return &c, nil
		}
	}

	return nil, ErrBlobNotFound
}

func (a *fakeAdapter) UpdateBlobMetadata(_ context.Context, id string, meta Metadata) (*Blob, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blobs[id]
	if !ok {
		return nil, ErrBlobNotFound
	}

	b.Metadata = b.Metadata.Merge(meta)
	c := *b
	c.Metadata = b.Metadata.Clone()

	return &c, nil
}

func (a *fakeAdapter) AttachBlob(_ context.Context, att *Attachment, strategy Strategy) error {
	if !strategy.Valid() {
		return ErrInvalidStrategy
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if strategy == StrategyOne {
		for id, existing := range a.attachments {
			if existing.RecordType == att.RecordType &&
				existing.RecordID == att.RecordID &&
				existing.Name == att.Name {
				delete(a.attachments, id)
			}
		}
	}

	a.seq++
	c := *att
	c.CreatedAt = time.Unix(int64(a.seq), 0)
	a.attachments[att.ID] = &c

	return nil
}

func (a *fakeAdapter) DeleteAttachment(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.attachments[id]; !ok {
		return ErrAttachmentNotFound
	}

	delete(a.attachments, id)

	return nil
}

func (a *fakeAdapter) DeleteAttachments(_ context.Context, recordType, recordID, name string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int64

	for id, att := range a.attachments {
		if att.RecordType == recordType && att.RecordID == recordID && att.Name == name {
			delete(a.attachments, id)
			n++
		}
	}

	return n, nil
}

func (a *fakeAdapter) FindAttachments(_ context.Context, recordType, recordID, name string) ([]Attachment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []Attachment

	for _, att := range a.attachments {
		if att.RecordType == recordType && att.RecordID == recordID && att.Name == name {
			out = append(out, *att)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (a *fakeAdapter) FindOrphanBlobs(_ context.Context, olderThan time.Time, limit int) ([]Blob, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	attached := make(map[string]bool)
	for _, att := range a.attachments {
		attached[att.BlobID] = true
	}

	var out []Blob

	for _, b := range a.blobs {
		if len(out) >= limit {
			break
		}

		if !attached[b.ID] && b.CreatedAt.Before(olderThan) {
			out = append(out, *b)
		}
	}

	return out, nil
}

func (a *fakeAdapter) DeleteBlob(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blobs, id)

	return nil
}
