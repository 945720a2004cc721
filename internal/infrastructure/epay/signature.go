package epay

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // the gateway protocol mandates SHA1 with RSA
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
)

// The gateway transmits RSA signatures with their byte order reversed.

func sign(key *rsa.PrivateKey, data []byte) (string, error) {
	digest := sha1.Sum(data) //nolint:gosec
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	slices.Reverse(sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

func verify(pub *rsa.PublicKey, data []byte, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(signature), ""))
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	slices.Reverse(sig)

	digest := sha1.Sum(data) //nolint:gosec
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, digest[:], sig); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
