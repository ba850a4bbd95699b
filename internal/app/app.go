package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hinosalt/bobg-hp/internal/auth"
	"github.com/hinosalt/bobg-hp/internal/config"
	"github.com/hinosalt/bobg-hp/internal/content"
	"github.com/hinosalt/bobg-hp/internal/github"
	"github.com/hinosalt/bobg-hp/internal/handler"
	"github.com/hinosalt/bobg-hp/internal/logger"
	"github.com/hinosalt/bobg-hp/internal/metrics"
	"github.com/hinosalt/bobg-hp/internal/middleware"
	"github.com/hinosalt/bobg-hp/internal/security"
	"github.com/hinosalt/bobg-hp/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// serve以外はGitHubの認証情報を必要としないため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case CommandValidate:
		logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))
		return runValidate(args[1:], w)
	case CommandRender:
		logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))
		return runRender(args[1:], os.Stdout, w)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("repository", cfg.GitHubOwner+"/"+cfg.GitHubRepo),
		slog.String("base_branch", cfg.GitHubBaseBranch),
	)

	return runServe(cfg)
}

// server は組み立て済みのHTTPハンドラーと、停止時に解放するリソース。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// close はバックグラウンドのリソースを解放する。
func (s *server) close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// newServer は設定から全依存関係をワイヤリングしたハンドラーを構築する。
func newServer(cfg *config.Config, log *slog.Logger) (*server, error) {
	// 1. 上流URLの検証
	if cfg.SSRFGuard {
		if err := validateUpstreamURLs(cfg); err != nil {
			return nil, err
		}
	}

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. GitHubクライアント
	outbound := security.NewOutboundClient(cfg.UpstreamTimeout, cfg.SSRFGuard)
	factory, err := github.NewFactory(github.FactoryConfig{
		Owner:      cfg.GitHubOwner,
		Repo:       cfg.GitHubRepo,
		BaseURL:    cfg.GitHubAPIURL,
		HTTPClient: outbound,
		Observer:   collector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	// 4. セッションと認証
	sessions := session.NewManager(session.ManagerConfig{
		Secret:       cfg.AuthSecret,
		CookieSecure: cfg.CookieSecure,
		Allowlist:    cfg.Allowlist,
	})
	oauthProvider := auth.NewGitHubOAuthProvider(auth.GitHubOAuthConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		AuthURL:      cfg.OAuthAuthorizeURL,
		TokenURL:     cfg.OAuthTokenURL,
		HTTPClient:   outbound,
	})
	authService := auth.NewService(auth.ServiceConfig{
		Provider: oauthProvider,
		Profiles: auth.GitHubProfiles(factory),
		Logins:   sessions,
	})

	// 5. コンテンツワークフロー
	contentService := content.NewService(content.ServiceConfig{
		BaseBranch: cfg.GitHubBaseBranch,
		Clients: func(token string) content.RepoClient {
			return factory.ForToken(token)
		},
		Recorder: collector,
	})

	// 6. レート制限（RATE_LIMIT_WRITE=0 で無効）
	var limiter *middleware.RateLimiter
	if cfg.RateLimitWrite > 0 {
		limiter = middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitWrite))
	}

	// 7. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		Sessions:          sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,

		AuthService: authService,
		AuthConfig:  handler.AuthHandlerConfig{RedirectURI: cfg.OAuthRedirectURI},
		Sanitizer:   security.NewTextSanitizer(),

		ContentService: contentService,

		Metrics:  collector,
		Gatherer: registry,

		AdminDir: cfg.AdminDir,
		SiteDir:  cfg.SiteDir,
	})

	return &server{handler: router, rateLimiter: limiter}, nil
}

// validateUpstreamURLs は送信先として設定されたURLが内部ネットワークを指していないか検証する。
func validateUpstreamURLs(cfg *config.Config) error {
	for name, raw := range map[string]string{
		"GITHUB_API_URL":             cfg.GitHubAPIURL,
		"GITHUB_OAUTH_AUTHORIZE_URL": cfg.OAuthAuthorizeURL,
		"GITHUB_OAUTH_TOKEN_URL":     cfg.OAuthTokenURL,
	} {
		if err := security.ValidateUpstreamURL(raw); err != nil {
			return fmt.Errorf("%s is not allowed: %w", name, err)
		}
	}
	return nil
}

// runServe はCMSサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv, err := newServer(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer srv.close()

	// アップロードの中継に時間がかかるため、WriteTimeoutは長めに取る
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("CMS server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down CMS server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("CMS server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
