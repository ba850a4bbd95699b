// Package auth はGitHub OAuthによるログインフローと許可リストの判定を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hinosalt/bobg-hp/internal/github"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state, redirectURI string) string
	// ExchangeCode は認可コードをアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code, state, redirectURI string) (string, error)
}

// ProfileFetcher はアクセストークンの持ち主のログイン名を取得する。
type ProfileFetcher func(ctx context.Context, accessToken string) (string, error)

// LoginChecker はログイン名がCMSを利用できるか判定する。session.Managerが実装する。
type LoginChecker interface {
	Allowed(login string) bool
}

// Identity はOAuthで確認できた編集者。
type Identity struct {
	Login       string
	AccessToken string
}

// AccessDeniedError は許可リストに含まれないログインを表す。
type AccessDeniedError struct {
	Login string
}

// Error はerrorインターフェースを実装する。
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s is not in CMS_ALLOWLIST", e.Login)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	Provider OAuthProvider
	Profiles ProfileFetcher
	Logins   LoginChecker
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth    OAuthProvider
	profiles ProfileFetcher
	logins   LoginChecker
}

// NewService はServiceを生成する。
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		oauth:    cfg.Provider,
		profiles: cfg.Profiles,
		logins:   cfg.Logins,
	}
}

// GitHubProfiles はgithub.Factoryを使うProfileFetcherを返す。
func GitHubProfiles(factory *github.Factory) ProfileFetcher {
	return func(ctx context.Context, accessToken string) (string, error) {
		login, err := factory.ForToken(accessToken).AuthenticatedLogin(ctx)
		if err != nil {
			var ghErr *github.Error
			if errors.As(err, &ghErr) {
				return "", errors.New(ghErr.Message)
			}
			return "", err
		}
		return login, nil
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state, redirectURI string) string {
	return s.oauth.GetLoginURL(state, redirectURI)
}

// HandleCallback は認可コードを交換し、プロフィールを取得して許可リストを確認する。
// 許可されないログインには*AccessDeniedErrorを返す。
func (s *Service) HandleCallback(ctx context.Context, code, state, redirectURI string) (*Identity, error) {
	// 1. 認可コードをアクセストークンに交換
	accessToken, err := s.oauth.ExchangeCode(ctx, code, state, redirectURI)
	if err != nil {
		return nil, err
	}

	// 2. アクセストークンでログイン名を取得
	login, err := s.profiles(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	// 3. 許可リストを確認
	if !s.logins.Allowed(login) {
		slog.Warn("許可リスト外のログインを拒否しました", slog.String("login", login))
		return nil, &AccessDeniedError{Login: login}
	}

	slog.Info("user logged in", slog.String("login", login))
	return &Identity{Login: login, AccessToken: accessToken}, nil
}

// GenerateState はOAuthのstateパラメータ用のランダム文字列を生成する。
func GenerateState() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
