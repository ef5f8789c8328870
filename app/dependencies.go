package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hubauth/jwtauthenticator/auth"
	"github.com/hubauth/jwtauthenticator/config"
	"github.com/hubauth/jwtauthenticator/jwtverify"
	"github.com/hubauth/jwtauthenticator/middleware"
	"github.com/hubauth/jwtauthenticator/repositories"
	"github.com/hubauth/jwtauthenticator/repositories/memory"
	"github.com/hubauth/jwtauthenticator/repositories/postgres"
	redisrepo "github.com/hubauth/jwtauthenticator/repositories/redis"
	"github.com/hubauth/jwtauthenticator/services"
	"github.com/hubauth/jwtauthenticator/services/audit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// auditStopTimeout bounds how long Close waits for queued login events.
const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config        *config.Config
	DB            *postgres.DB                 // nil when users are kept in memory
	RedisSessions *redisrepo.SessionRepository // nil for the memory session backend
	Logger        *zap.Logger

	// Repositories
	Users       repositories.UserRepository
	Sessions    repositories.SessionRepository
	LoginEvents repositories.LoginEventRepository

	// Services
	Identities     *services.IdentityService
	SessionService *services.SessionService
	Audit          *audit.AuditService
	Verifier       *jwtverify.Verifier

	// Auth
	authHandler       *auth.Handler
	SessionMiddleware *middleware.SessionMiddleware
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initUserStore(ctx, cfg); err != nil {
		deps.closeQuietly()
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}

	if err := deps.initSessionStore(ctx, cfg); err != nil {
		deps.closeQuietly()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		deps.closeQuietly()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		deps.closeQuietly()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initUserStore connects PostgreSQL when configured; otherwise users and the
// login audit trail live in memory.
func (d *Dependencies) initUserStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Users = memory.NewUserRepository()
		d.LoginEvents = memory.NewLoginEventRepository(memory.DefaultLoginEventCapacity)
		d.Logger.Info("no database configured, using in-memory user store")
		return nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Users = postgres.NewUserRepository(db, d.Logger)
	d.LoginEvents = postgres.NewLoginEventRepository(db, d.Logger)
	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initSessionStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Session.Backend != "redis" {
		d.Sessions = memory.NewSessionRepository()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.Redis.Addr,
		Password: cfg.Session.Redis.Password,
		DB:       cfg.Session.Redis.DB,
	})

	sessions, err := redisrepo.New(redisrepo.Config{Client: client})
	if err != nil {
		_ = client.Close()
		return err
	}
	d.RedisSessions = sessions

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sessions.Ping(pingCtx); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	d.Sessions = sessions
	d.Logger.Info("redis session store connected", zap.String("addr", cfg.Session.Redis.Addr))
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) error {
	d.Identities = services.NewIdentityService(d.Users, cfg.Hub.CreateUsers, d.Logger)
	d.SessionService = services.NewSessionService(d.Sessions, services.SessionConfig{
		CookieName: cfg.Session.CookieName,
		CookiePath: cfg.Hub.BaseURL,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}, d.Logger)

	d.Audit = audit.NewAuditService(d.LoginEvents, d.Logger, audit.DefaultConfig())
	return d.Audit.Start()
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	mode, err := cfg.VerificationMode()
	if err != nil {
		return err
	}

	verifier, err := jwtverify.NewVerifier(jwtverify.Options{
		Mode:             mode,
		ExpectedAudience: cfg.Auth.ExpectedAudience,
		Leeway:           cfg.Auth.Leeway,
	})
	if err != nil {
		return err
	}
	d.Verifier = verifier

	d.authHandler = auth.NewHandler(auth.OptionsFromConfig(cfg), verifier, d.Identities, d.SessionService, d.Logger).
		WithAuditor(d.Audit)
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.SessionService, d.Logger)

	d.Logger.Info("auth handler initialized",
		zap.String("mode", mode.Kind.String()),
		zap.Bool("audience_check", cfg.Auth.ExpectedAudience != ""),
		zap.Bool("external_login", cfg.Auth.LoginURL != ""))
	return nil
}

// ReadinessChecks returns a probe per external store in use.
func (d *Dependencies) ReadinessChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if d.DB != nil {
		checks["database"] = d.DB.HealthCheck
	}
	if d.RedisSessions != nil {
		checks["redis"] = d.RedisSessions.Ping
	}
	return checks
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued login events before the stores go away
	if d.Audit != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RedisSessions != nil {
		if err := d.RedisSessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// closeQuietly releases whatever was opened before a failed initialization.
func (d *Dependencies) closeQuietly() {
	if d.Audit != nil {
		_ = d.Audit.Stop(time.Second)
	}
	if d.RedisSessions != nil {
		_ = d.RedisSessions.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
