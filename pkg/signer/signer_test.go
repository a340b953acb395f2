package signer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type blobClaim struct {
	BlobID string `json:"blobId"`
}

func TestSignAndVerify(t *testing.T) {
	s, err := New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := s.Sign("blob", blobClaim{BlobID: "01abc"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := Verify[blobClaim](s, token, "blob")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if got.BlobID != "01abc" {
		t.Errorf("BlobID = %q, want %q", got.BlobID, "01abc")
	}
}

func TestNewEmptyKey(t *testing.T) {
	if _, err := New("", time.Hour); err == nil {
		t.Fatal("expected error for empty private key")
	}
}

func TestVerifyPurposeMismatch(t *testing.T) {
	s, _ := New("test-secret", time.Hour)

	token, err := s.Sign("blob", blobClaim{BlobID: "x"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := Verify[blobClaim](s, token, "disk"); !errors.Is(err, ErrPurposeMismatch) {
		t.Errorf("err = %v, want ErrPurposeMismatch", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	s1, _ := New("key-one", time.Hour)
	s2, _ := New("key-two", time.Hour)

	token, err := s1.Sign("blob", blobClaim{BlobID: "x"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := Verify[blobClaim](s2, token, "blob"); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyTamperedBody(t *testing.T) {
	s, _ := New("test-secret", time.Hour)

	token, err := s.Sign("blob", blobClaim{BlobID: "x"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	body, tag, _ := strings.Cut(token, ".")
	tampered := body[:len(body)-2] + "xx." + tag

	_, err = Verify[blobClaim](s, tampered, "blob")
	if !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want signature or format error", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	s, _ := New("test-secret", time.Hour)

	for _, token := range []string{"", "no-dot", ".", "a.", ".b", "a.b.c extra ??"} {
		if _, err := Verify[blobClaim](s, token, "blob"); err == nil {
			t.Errorf("token %q: expected error", token)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s, _ := New("test-secret", time.Minute, WithNowFunc(func() time.Time { return clock }))

	token, err := s.Sign("blob", blobClaim{BlobID: "x"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// 有效期内
	if _, err := Verify[blobClaim](s, token, "blob"); err != nil {
		t.Fatalf("Verify before expiry: %v", err)
	}

	clock = now.Add(2 * time.Minute)

	if _, err := Verify[blobClaim](s, token, "blob"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestSignWithExpiryNoExpiration(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s, _ := New("test-secret", time.Minute, WithNowFunc(func() time.Time { return clock }))

	token, err := s.SignWithExpiry("blob", blobClaim{BlobID: "x"}, 0)
	if err != nil {
		t.Fatalf("SignWithExpiry: %v", err)
	}

	clock = now.Add(24 * 365 * time.Hour)

	if _, err := Verify[blobClaim](s, token, "blob"); err != nil {
		t.Errorf("token without expiry should verify, got %v", err)
	}
}
