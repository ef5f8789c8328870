package jwtverify

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// CertificateProvider fetches the current public key material used to verify
// tokens in certificate mode.
type CertificateProvider interface {
	PublicKeyPEM(ctx context.Context) ([]byte, error)
}

// FileCertificateProvider reads a PEM file from disk on every call, so a
// certificate rotated on disk is picked up by the next verification.
type FileCertificateProvider struct {
	Path string
}

// PublicKeyPEM reads the configured file.
func (p FileCertificateProvider) PublicKeyPEM(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("read signing certificate %s: %w", p.Path, err)
	}
	return data, nil
}

// StaticCertificateProvider serves fixed PEM bytes held in memory.
type StaticCertificateProvider []byte

// PublicKeyPEM returns the held bytes.
func (p StaticCertificateProvider) PublicKeyPEM(context.Context) ([]byte, error) {
	if len(p) == 0 {
		return nil, errors.New("no certificate material")
	}
	return p, nil
}

// parsePublicKeyPEM extracts a public key from an X.509 certificate, a PKIX
// "PUBLIC KEY" block, or a PKCS#1 "RSA PUBLIC KEY" block.
func parsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		return cert.PublicKey, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS1 public key: %w", err)
		}
		return key, nil
	default:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		return key, nil
	}
}
