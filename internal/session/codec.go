// Package session はHMAC署名付きのステートレスなセッショントークンと
// CMSが使用するCookieを扱う。
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidToken はトークンの形式・署名・有効期限のいずれかが不正な場合のエラー。
// 呼び出し側に失敗理由は区別させない。
var ErrInvalidToken = errors.New("invalid session token")

// Codec はペイロードをJSON化してHMAC-SHA256で署名し、検証する。
// トークン形式: base64url(JSON) + "." + base64url(HMAC-SHA256(先頭部, secret))
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec は署名鍵を指定してCodecを生成する。
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock はテスト用に現在時刻の取得関数を差し替えたCodecを返す。
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secret: c.secret, now: now}
}

// Issue はpayloadに署名したトークンを生成する。
// payloadはJSONオブジェクトにエンコードされ、exp（エポックミリ秒）を含む必要がある。
func (c *Codec) Issue(payload any) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("session secret is empty")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode session payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), nil
}

// Verify はトークンを検証し、ペイロードをdstにデコードする。
// 以下のいずれかに該当する場合はErrInvalidTokenを返す:
//   - "."区切りで2要素でない
//   - 署名が一致しない
//   - ペイロードがJSONオブジェクトでない
//   - expが存在しない、数値でない、または現在時刻以前
func (c *Codec) Verify(token string, dst any) error {
	if token == "" || len(c.secret) == 0 {
		return ErrInvalidToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	encoded, signature := parts[0], parts[1]

	// 定数時間比較
	if !hmac.Equal([]byte(signature), []byte(c.sign(encoded))) {
		return ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return ErrInvalidToken
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return ErrInvalidToken
	}

	expRaw, ok := fields["exp"]
	if !ok {
		return ErrInvalidToken
	}
	var exp float64
	if err := json.Unmarshal(expRaw, &exp); err != nil {
		return ErrInvalidToken
	}
	if exp <= float64(c.now().UnixMilli()) {
		return ErrInvalidToken
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func (c *Codec) sign(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
