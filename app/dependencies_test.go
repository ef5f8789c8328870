package app

import (
	"context"
	"testing"
	"time"

	"github.com/hubauth/jwtauthenticator/config"
	"github.com/hubauth/jwtauthenticator/jwtverify"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("in-memory stores with secret mode", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, deps)

		// Verify infrastructure
		assert.NotNil(t, deps.Config)
		assert.Nil(t, deps.DB)
		assert.Nil(t, deps.RedisSessions)
		assert.NotNil(t, deps.Logger)

		// Verify repositories and services
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Sessions)
		assert.NotNil(t, deps.LoginEvents)
		assert.NotNil(t, deps.Identities)
		assert.NotNil(t, deps.SessionService)
		assert.True(t, deps.Audit.GetStats().Started)

		// Verify auth
		require.NotNil(t, deps.Verifier)
		assert.Equal(t, jwtverify.ModeSecret, deps.Verifier.Mode())
		assert.NotNil(t, deps.AuthHandler())
		assert.NotNil(t, deps.SessionMiddleware)
		assert.Empty(t, deps.ReadinessChecks())

		// Cleanup
		err = deps.Close(ctx)
		assert.NoError(t, err)
	})

	t.Run("certificate mode does not read the file at startup", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Auth.Secret = ""
		cfg.Auth.SigningCertificate = "/nonexistent/signer.pem"

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, jwtverify.ModeCertificate, deps.Verifier.Mode())
		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("missing trust anchor", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Auth.Secret = ""

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.ErrorIs(t, err, jwtverify.ErrNoTrustAnchor)
		assert.Contains(t, err.Error(), "failed to initialize auth")
	})

	t.Run("redis connection failure", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Session.Backend = "redis"
		cfg.Session.Redis.Addr = "127.0.0.1:1"

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize session store")
	})
}

func TestDependenciesRedisSessions(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	cfg := testConfig(t)
	cfg.Session.Backend = "redis"
	cfg.Session.Redis.Addr = "127.0.0.1:6379"

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, deps.RedisSessions)
	assert.Same(t, deps.RedisSessions, deps.Sessions)

	checks := deps.ReadinessChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](ctx))

	require.NoError(t, deps.Close(ctx))
	assert.ErrorIs(t, checks["redis"](ctx), redis.ErrClosed)
}

func TestDependenciesClose(t *testing.T) {
	t.Run("graceful shutdown", func(t *testing.T) {
		ctx := context.Background()
		deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		err = deps.Close(ctx)
		assert.NoError(t, err)
		assert.False(t, deps.Audit.GetStats().Started)
	})

	t.Run("second close reports the stopped audit service", func(t *testing.T) {
		ctx := context.Background()
		deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		require.NoError(t, deps.Close(ctx))
		assert.Error(t, deps.Close(ctx))
	})
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			Secret:                "test-secret",
			UsernameClaimField:    "upn",
			HeaderName:            "Authorization",
			HeaderIsAuthorization: true,
			ParamName:             "access_token",
			CookieName:            "XSRF-TOKEN",
		},
		Hub: config.HubConfig{
			BaseURL:     "/hub/",
			CreateUsers: true,
		},
		Session: config.SessionConfig{
			CookieName: "hub-session",
			TTL:        time.Hour,
			Backend:    "memory",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "text",
		},
	}
}
