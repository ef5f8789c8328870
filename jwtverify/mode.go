package jwtverify

import (
	"errors"
	"fmt"
)

// ErrNoTrustAnchor is returned when neither a signing certificate nor a shared
// secret has been configured.
var ErrNoTrustAnchor = errors.New("no signing certificate or shared secret configured")

// Mode identifies how token signatures are checked.
type Mode int

const (
	// ModeCertificate verifies signatures against a PEM public certificate on disk.
	ModeCertificate Mode = iota + 1
	// ModeSecret verifies signatures against a shared secret value.
	ModeSecret
)

// String returns the mode name used in logs.
func (m Mode) String() string {
	switch m {
	case ModeCertificate:
		return "certificate"
	case ModeSecret:
		return "secret"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// VerificationMode is the resolved trust configuration. Exactly one of
// CertificatePath or Secret is meaningful, as selected by Kind.
type VerificationMode struct {
	Kind            Mode
	CertificatePath string
	Secret          string
}

// NewVerificationMode resolves the configured trust anchor. A non-empty secret
// always wins over a certificate path.
func NewVerificationMode(certificatePath, secret string) (VerificationMode, error) {
	if secret != "" {
		return VerificationMode{Kind: ModeSecret, Secret: secret}, nil
	}
	if certificatePath != "" {
		return VerificationMode{Kind: ModeCertificate, CertificatePath: certificatePath}, nil
	}
	return VerificationMode{}, ErrNoTrustAnchor
}

// CertificateMode returns a certificate-backed mode for path.
func CertificateMode(path string) VerificationMode {
	return VerificationMode{Kind: ModeCertificate, CertificatePath: path}
}

// SecretMode returns a shared-secret mode for secret.
func SecretMode(secret string) VerificationMode {
	return VerificationMode{Kind: ModeSecret, Secret: secret}
}
