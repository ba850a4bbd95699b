package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

// GitHubの読み取りとリポジトリ書き込みに必要なスコープ。
var githubScopes = []string{"read:user", "repo"}

// GitHubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string

	// HTTPClient はトークン交換に使うクライアント。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client
}

// GitHubOAuthProvider はGitHub OAuth Appによる認証を提供する。
// リダイレクトURIはリクエストごとに決まるため、設定ではなく引数で受け取る。
type GitHubOAuthProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGitHubOAuthProvider はGitHubOAuthProviderを生成する。
func NewGitHubOAuthProvider(cfg GitHubOAuthConfig) *GitHubOAuthProvider {
	endpoint := oauthgithub.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &GitHubOAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       githubScopes,
		},
		httpClient: cfg.HTTPClient,
	}
}

// GetLoginURL はGitHubの認可URLを生成する。
func (p *GitHubOAuthProvider) GetLoginURL(state, redirectURI string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// GitHubは失敗時も200でerrorフィールドを返すため、その説明文をエラーメッセージにする。
func (p *GitHubOAuthProvider) ExchangeCode(ctx context.Context, code, state, redirectURI string) (string, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("state", state),
	)
	if err != nil {
		return "", exchangeError(err)
	}
	if token.AccessToken == "" {
		return "", errors.New("OAuth token exchange failed")
	}
	return token.AccessToken, nil
}

func exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch {
		case retrieveErr.ErrorDescription != "":
			return errors.New(retrieveErr.ErrorDescription)
		case retrieveErr.ErrorCode != "":
			return errors.New(retrieveErr.ErrorCode)
		}
		return errors.New("OAuth token exchange failed")
	}
	return fmt.Errorf("OAuth token exchange failed: %w", err)
}

// compile-time interface check
var _ OAuthProvider = (*GitHubOAuthProvider)(nil)
