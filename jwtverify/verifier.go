package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when the token is not a well-formed JWS
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature is returned when the signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotYetValid is returned when the token nbf lies in the future
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrCertificateUnavailable is returned when the signing certificate cannot be read
	ErrCertificateUnavailable = errors.New("signing certificate unavailable")

	// ErrInvalidKey is returned when configured key material cannot be parsed
	ErrInvalidKey = errors.New("invalid key material")

	// ErrInvalidToken is returned for any other verification failure
	ErrInvalidToken = errors.New("invalid token")
)

// Options configures a Verifier.
type Options struct {
	Mode VerificationMode

	// Certificates overrides where certificate mode loads its key. When nil a
	// FileCertificateProvider for Mode.CertificatePath is used.
	Certificates CertificateProvider

	// ExpectedAudience disables audience verification when empty.
	ExpectedAudience string

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

// Verifier checks token signatures and standard claims and returns the
// decoded claim set. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	mode     VerificationMode
	certs    CertificateProvider
	audience string
	parser   *jwt.Parser
}

// NewVerifier creates a verifier for the given options.
func NewVerifier(opts Options) (*Verifier, error) {
	switch opts.Mode.Kind {
	case ModeSecret:
		if opts.Mode.Secret == "" {
			return nil, ErrNoTrustAnchor
		}
	case ModeCertificate:
		if opts.Certificates == nil {
			if opts.Mode.CertificatePath == "" {
				return nil, ErrNoTrustAnchor
			}
			opts.Certificates = FileCertificateProvider{Path: opts.Mode.CertificatePath}
		}
	default:
		return nil, fmt.Errorf("unknown verification mode: %s", opts.Mode.Kind)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(supportedAlgorithms()),
	}
	if opts.ExpectedAudience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.ExpectedAudience))
	}
	if opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(opts.Leeway))
	}

	return &Verifier{
		mode:     opts.Mode,
		certs:    opts.Certificates,
		audience: opts.ExpectedAudience,
		parser:   jwt.NewParser(parserOpts...),
	}, nil
}

// Mode reports which trust mode the verifier runs in.
func (v *Verifier) Mode() Mode {
	return v.mode.Kind
}

// Verify validates raw and returns its claims. No claims are returned unless
// the signature, time claims and (when configured) audience all check out.
func (v *Verifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.keyFor(ctx, token)
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// keyFor returns the verification key matching the token's declared algorithm.
func (v *Verifier) keyFor(ctx context.Context, token *jwt.Token) (interface{}, error) {
	if v.mode.Kind == ModeSecret {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
			return []byte(v.mode.Secret), nil
		}
		key, err := parsePublicKeyPEM([]byte(v.mode.Secret))
		if err != nil {
			return nil, fmt.Errorf("%w: secret is not usable for %s: %v", ErrInvalidKey, token.Method.Alg(), err)
		}
		return key, nil
	}

	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		return nil, fmt.Errorf("%w: %s requires a shared secret", ErrInvalidKey, token.Method.Alg())
	}

	data, err := v.certs.PublicKeyPEM(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificateUnavailable, err)
	}
	key, err := parsePublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// classify maps golang-jwt errors onto this package's sentinels. The
// underlying golang-jwt error is kept for internal logging.
func classify(err error) error {
	var sentinel error
	switch {
	case errors.Is(err, ErrCertificateUnavailable):
		sentinel = ErrCertificateUnavailable
	case errors.Is(err, ErrInvalidKey):
		sentinel = ErrInvalidKey
	case errors.Is(err, jwt.ErrTokenMalformed):
		sentinel = ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		sentinel = ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		sentinel = ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		sentinel = ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		sentinel = ErrInvalidAudience
	default:
		sentinel = ErrInvalidToken
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// supportedAlgorithms lists every signing method registered with golang-jwt
// except "none".
func supportedAlgorithms() []string {
	all := jwt.GetAlgorithms()
	algs := make([]string, 0, len(all))
	for _, alg := range all {
		if alg == jwt.SigningMethodNone.Alg() {
			continue
		}
		algs = append(algs, alg)
	}
	return algs
}
