package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hubauth/jwtauthenticator/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cli-test-secret"

func staticConfig(mutate func(*config.Config)) configLoader {
	return func(context.Context) (*config.Config, error) {
		cfg := &config.Config{
			Environment: "test",
			Auth: config.AuthConfig{
				Secret:             testSecret,
				UsernameClaimField: "upn",
			},
			Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "json"},
		}
		if mutate != nil {
			mutate(cfg)
		}
		return cfg, nil
	}
}

func mint(t *testing.T, secret string, claims jwt.MapClaims) string {
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func execute(t *testing.T, load configLoader, stdin string, args ...string) (string, error) {
	cmd := newRootCmd(load)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	t.Run("token as argument", func(t *testing.T) {
		token := mint(t, testSecret, jwt.MapClaims{"upn": "alice@corp.com"})

		out, err := execute(t, staticConfig(nil), "", token)
		require.NoError(t, err)
		assert.Equal(t, "alice\n", out)
	})

	t.Run("token on stdin", func(t *testing.T) {
		token := mint(t, testSecret, jwt.MapClaims{"upn": "plainuser"})

		out, err := execute(t, staticConfig(nil), token+"\n")
		require.NoError(t, err)
		assert.Equal(t, "plainuser\n", out)
	})

	t.Run("claim flag", func(t *testing.T) {
		token := mint(t, testSecret, jwt.MapClaims{"email": "a@b@c"})

		out, err := execute(t, staticConfig(nil), "", "--claim", "email", token)
		require.NoError(t, err)
		assert.Equal(t, "a\n", out)
	})

	t.Run("audience flag", func(t *testing.T) {
		token := mint(t, testSecret, jwt.MapClaims{"upn": "alice", "aud": "svcB"})

		_, err := execute(t, staticConfig(nil), "", "--audience", "svcA", token)
		require.Error(t, err)
		assert.Equal(t, "token rejected: bad_audience", err.Error())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := mint(t, "other-secret", jwt.MapClaims{"upn": "alice"})

		out, err := execute(t, staticConfig(nil), "", token)
		require.Error(t, err)
		assert.Equal(t, "token rejected: bad_signature", err.Error())
		assert.Empty(t, out)
	})

	t.Run("missing claim", func(t *testing.T) {
		token := mint(t, testSecret, jwt.MapClaims{"sub": "alice"})

		_, err := execute(t, staticConfig(nil), "", token)
		require.Error(t, err)
		assert.Equal(t, "token rejected: claim_missing", err.Error())
	})

	t.Run("no token", func(t *testing.T) {
		_, err := execute(t, staticConfig(nil), "  \n")
		assert.ErrorIs(t, err, errNoToken)
	})

	t.Run("config failure", func(t *testing.T) {
		load := func(context.Context) (*config.Config, error) {
			return nil, errors.New("config validation failed")
		}
		_, err := execute(t, load, "", "token")
		assert.EqualError(t, err, "config validation failed")
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := execute(t, staticConfig(nil), "", "a", "b")
		assert.Error(t, err)
	})
}

func TestReadToken(t *testing.T) {
	raw, err := readToken([]string{" tok "}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)

	raw, err = readToken(nil, strings.NewReader("from-stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", raw)

	_, err = readToken([]string{""}, strings.NewReader(""))
	assert.ErrorIs(t, err, errNoToken)
}
