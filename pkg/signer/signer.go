// Package signer 提供带目的（purpose）和有效期的消息签名与验签.
// 令牌格式: base64url(claims JSON) + "." + base64url(HMAC-SHA256 tag)，
// 无状态、不落库，吊销只能依赖短有效期.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

var (
	// ErrTokenInvalid 令牌格式损坏或无法解析.
	ErrTokenInvalid = errors.New("signer: token is malformed")
	// ErrSignatureInvalid 签名校验失败.
	ErrSignatureInvalid = errors.New("signer: signature mismatch")
	// ErrPurposeMismatch 令牌的 purpose 与验签方期望不一致.
	ErrPurposeMismatch = errors.New("signer: purpose mismatch")
	// ErrTokenExpired 令牌已过期.
	ErrTokenExpired = errors.New("signer: token expired")
)

// claims 令牌负载.
type claims struct {
	Purpose  string `json:"pur"`
	Data     any    `json:"dat"`
	IssuedAt int64  `json:"iat"`
	// ExpiresAt 为 0 表示永不过期
	ExpiresAt int64 `json:"exp,omitempty"`
}

// Signer 基于 HMAC-SHA256 的签名器.
type Signer struct {
	key       []byte
	expiresIn time.Duration
	now       func() time.Time
}

// Option 配置 Signer 的可选参数.
type Option func(*Signer)

// WithNowFunc 注入时钟，测试时用来控制过期判定.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New 创建签名器，expiresIn <= 0 表示签发的令牌不过期.
func New(privateKey string, expiresIn time.Duration, opts ...Option) (*Signer, error) {
	if privateKey == "" {
		return nil, errors.New("signer: private key must not be empty")
	}

	s := &Signer{
		key:       []byte(privateKey),
		expiresIn: expiresIn,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sign 以默认有效期签发令牌.
func (s *Signer) Sign(purpose string, data any) (string, error) {
	return s.SignWithExpiry(purpose, data, s.expiresIn)
}

// SignWithExpiry 以指定有效期签发令牌，expiresIn <= 0 表示不过期.
func (s *Signer) SignWithExpiry(purpose string, data any, expiresIn time.Duration) (string, error) {
	now := s.now()
	c := claims{
		Purpose:  purpose,
		Data:     data,
		IssuedAt: now.Unix(),
	}
	if expiresIn > 0 {
		c.ExpiresAt = now.Add(expiresIn).Unix()
	}

	body, err := sonic.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("signer: marshal claims: %w", err)
	}

	enc := base64.RawURLEncoding.EncodeToString(body)

	return enc + "." + base64.RawURLEncoding.EncodeToString(s.tag(enc)), nil
}

// Verify 验签并把 Data 解码到 T.
// 校验顺序：格式 -> 签名 -> purpose -> 过期时间.
func Verify[T any](s *Signer, token, purpose string) (T, error) {
	var zero T

	encBody, encTag, ok := strings.Cut(token, ".")
	if !ok || encBody == "" || encTag == "" {
		return zero, ErrTokenInvalid
	}

	tag, err := base64.RawURLEncoding.DecodeString(encTag)
	if err != nil {
		return zero, ErrTokenInvalid
	}

	if subtle.ConstantTimeCompare(tag, s.tag(encBody)) != 1 {
		return zero, ErrSignatureInvalid
	}

	body, err := base64.RawURLEncoding.DecodeString(encBody)
	if err != nil {
		return zero, ErrTokenInvalid
	}

	var c struct {
		Purpose   string `json:"pur"`
		Data      T      `json:"dat"`
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp,omitempty"`
	}
	if err := sonic.Unmarshal(body, &c); err != nil {
		return zero, ErrTokenInvalid
	}

	if c.Purpose != purpose {
		return zero, ErrPurposeMismatch
	}

	if c.ExpiresAt != 0 && s.now().Unix() > c.ExpiresAt {
		return zero, ErrTokenExpired
	}

	return c.Data, nil
}

// tag 计算 body 编码串的 HMAC-SHA256.
func (s *Signer) tag(encBody string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(encBody))

	return mac.Sum(nil)
}
