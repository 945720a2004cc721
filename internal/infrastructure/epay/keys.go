package epay

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoPEMBlock     = errors.New("no PEM block found")
	ErrNotRSAKey      = errors.New("key is not an RSA key")
	ErrNotCertificate = errors.New("PEM block is not a certificate")
)

// LoadPrivateKey reads the merchant signing key from a PEM file.
func LoadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator configured path
	if err != nil {
		return nil, fmt.Errorf("read merchant key: %w", err)
	}
	return ParsePrivateKey(raw, password)
}

// ParsePrivateKey accepts PKCS#1 and PKCS#8 keys. Legacy encrypted PEM blocks need password.
func ParsePrivateKey(raw []byte, password string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	der := block.Bytes
	//nolint:staticcheck // the bank issues keys in the legacy encrypted PEM format
	if x509.IsEncryptedPEMBlock(block) {
		var err error
		der, err = x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, fmt.Errorf("decrypt merchant key: %w", err)
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse merchant key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return key, nil
}

// LoadCertificate reads the bank certificate used to verify postbacks.
func LoadCertificate(path string) (*x509.Certificate, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator configured path
	if err != nil {
		return nil, fmt.Errorf("read bank certificate: %w", err)
	}
	return ParseCertificate(raw)
}

func ParseCertificate(raw []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrNoPEMBlock
	}
	if block.Type != "CERTIFICATE" {
		return nil, ErrNotCertificate
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse bank certificate: %w", err)
	}
	if _, ok := cert.PublicKey.(*rsa.PublicKey); !ok {
		return nil, ErrNotRSAKey
	}
	return cert, nil
}
