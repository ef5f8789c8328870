package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hubauth/jwtauthenticator/config"
	"github.com/hubauth/jwtauthenticator/internal/observability"
	"github.com/hubauth/jwtauthenticator/jwtverify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configLoader returns the process configuration.
type configLoader func(ctx context.Context) (*config.Config, error)

var errNoToken = errors.New("no token given as argument or on stdin")

func newRootCmd(load configLoader) *cobra.Command {
	var (
		claimField string
		audience   string
	)

	root := &cobra.Command{
		Use:   "jwt-verify [token]",
		Short: "Verify a hub login token and print the resolved username",
		Long: `Verifies a token with the configured signing certificate or shared secret
and prints the local username taken from the username claim. The token is
read from the first argument or, when absent, from stdin. On failure the
failure kind is reported and the exit status is non-zero.`,
		Example: `  jwt-verify eyJhbGciOi...
  echo "$TOKEN" | JWT_SECRET=s3cret jwt-verify --claim email`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			if claimField != "" {
				cfg.Auth.UsernameClaimField = claimField
			}
			if cmd.Flags().Changed("audience") {
				cfg.Auth.ExpectedAudience = audience
			}

			raw, err := readToken(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			logger, err := observability.NewZap(observability.Config{
				Level:  cfg.Observability.LogLevel,
				Format: cfg.Observability.LogFormat,
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			username, err := verify(cmd.Context(), cfg, raw, logger)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), username)
			return err
		},
	}

	root.Flags().StringVar(&claimField, "claim", "", "Claim holding the username (overrides JWT_USERNAME_CLAIM_FIELD)")
	root.Flags().StringVar(&audience, "audience", "", "Expected audience (overrides JWT_EXPECTED_AUDIENCE)")

	root.AddCommand(newServeCmd(load))

	root.SilenceUsage = true
	root.SilenceErrors = true
	return root
}

// verify runs the verifier and username resolver the same way the login
// endpoint does.
func verify(ctx context.Context, cfg *config.Config, raw string, logger *zap.Logger) (string, error) {
	mode, err := cfg.VerificationMode()
	if err != nil {
		return "", err
	}

	verifier, err := jwtverify.NewVerifier(jwtverify.Options{
		Mode:             mode,
		ExpectedAudience: cfg.Auth.ExpectedAudience,
		Leeway:           cfg.Auth.Leeway,
	})
	if err != nil {
		return "", err
	}

	claims, err := verifier.Verify(ctx, raw)
	if err != nil {
		logger.Debug("verification failed", zap.String("mode", mode.Kind.String()), zap.Error(err))
		return "", fmt.Errorf("token rejected: %s", jwtverify.Reason(err))
	}

	username, err := jwtverify.ResolveUsername(claims, cfg.Auth.UsernameClaimField)
	if err != nil {
		logger.Debug("username resolution failed", zap.Error(err))
		return "", fmt.Errorf("token rejected: %s", jwtverify.Reason(err))
	}
	return username, nil
}

func readToken(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		if raw := strings.TrimSpace(args[0]); raw != "" {
			return raw, nil
		}
		return "", errNoToken
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", errNoToken
	}
	return raw, nil
}
