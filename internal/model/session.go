package model

import (
	"encoding/json"
	"math"
	"time"
)

// Session は署名付きセッショントークンに格納するペイロード。
// Expはエポックミリ秒。
type Session struct {
	Login       string `json:"login"`
	AccessToken string `json:"accessToken"`
	Exp         int64  `json:"exp"`
}

// UnmarshalJSON は小数のexpも受け付ける。小数部は切り上げる。
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		Login       string  `json:"login"`
		AccessToken string  `json:"accessToken"`
		Exp         float64 `json:"exp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Login = raw.Login
	s.AccessToken = raw.AccessToken
	s.Exp = int64(math.Ceil(raw.Exp))
	return nil
}

// IsExpired はnow時点で期限切れかどうかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return s.Exp <= now.UnixMilli()
}
