// Package server wires the gophauth components together and runs them.
// It selects storage, revocation and mail backends from config, handles
// graceful shutdown, and supervises the HTTP and gRPC health servers.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const (
	sweepInterval  = time.Minute
	healthInterval = 5 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	sweeper     revocation.Sweeper
	httpServer  *httpapi.Server
	grpcServer  *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	if err := app.build(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) build(ctx context.Context) error {
	c := app.config

	rm, err := newRepositoryManager(ctx, c)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.repomanager = rm

	if c.RevocationBackend == config.RevocationRedis {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
	}

	revocations, sweeper := app.newRevocationStore(ctx)
	app.sweeper = sweeper

	sender, err := newMailSender(ctx, c, app.logger)
	if err != nil {
		return fmt.Errorf("mail init error: %w", err)
	}
	mailer := mail.NewTemplateMailer(c.MailFrom, c.PublicBaseURL, sender)

	key := []byte(c.SecretKey)
	issuer := auth.NewIssuer(key, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	validator := auth.NewValidator(key, revocations)

	hasher := passwords.NewBcryptHasher(bcrypt.DefaultCost)
	credentials, err := services.NewCredentialVerifier(rm, hasher)
	if err != nil {
		return fmt.Errorf("credentials init error: %w", err)
	}
	tokens := services.NewEphemeralTokenManager(rm)

	authService := services.NewAuthService(rm, hasher, credentials, tokens, issuer, validator, revocations, mailer, app.logger)
	phoneService := services.NewPhoneService(rm, c.PhoneDefaultRegion)

	h := httpapi.NewHandler(httpapi.Options{
		Auth:           authService,
		Phones:         phoneService,
		Validator:      validator,
		Limiter:        app.newRateLimiter(),
		Health:         rm,
		Logger:         app.logger,
		CookieSecure:   c.CookieSecure,
		TrustedProxies: c.TrustedProxies,
	})
	router, err := h.Router(c.AllowOrigins)
	if err != nil {
		return fmt.Errorf("router init error: %w", err)
	}

	app.httpServer = httpapi.NewServer(c.HTTPAddr, router, app.logger)
	app.grpcServer = gs.NewHealthServer(c.GRPCHealthAddr, app.logger, rm, healthInterval)
	return nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.StorageBackend == config.StorageMemory {
		return memory.NewManager(), nil
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return rm, nil
}

// newRevocationStore returns the configured store and, for backends that
// need it, the sweeper pruning expired entries.
func (app *App) newRevocationStore(ctx context.Context) (revocation.Store, revocation.Sweeper) {
	switch app.config.RevocationBackend {
	case config.RevocationRedis:
		return revocation.NewRedisStore(app.redis), nil
	case config.RevocationPostgres:
		s := revocation.NewRepositoryStore(app.repomanager)
		return s, s
	default:
		app.logger.Warn(ctx, "refresh token revocations are kept in memory; they are lost on restart and not shared between instances")
		s := revocation.NewMemoryStore()
		return s, s
	}
}

func (app *App) newRateLimiter() httpapi.RateLimiter {
	c := app.config
	if app.redis != nil {
		return httpapi.NewRedisRateLimiter(app.redis, c.RateLimitRequests, c.RateLimitWindow)
	}
	return httpapi.NewMemoryRateLimiter(c.RateLimitRequests, c.RateLimitWindow)
}

func newMailSender(ctx context.Context, c *config.Config, l logging.Logger) (mail.Sender, error) {
	if c.MailBackend == config.MailS3 {
		return mail.NewS3OutboxSender(ctx, mail.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return mail.NewLogSender(l), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "err", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc health server stopped", "err", err)
		cancelFunc()
	}
}

// Run starts every server and blocks until ctx is cancelled, a signal
// arrives, or one of the servers fails. Resources are released on return.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.GRPCHealthAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			revocation.RunSweeper(ctx, app.sweeper, sweepInterval, app.logger)
		}()
	}

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "shutdown", "err", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.repomanager != nil {
		errs = append(errs, app.repomanager.Close())
	}
	return errors.Join(errs...)
}
