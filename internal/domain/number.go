package domain

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultNumberAttempts bounds how many candidates GenerateUniqueNumber tries.
const DefaultNumberAttempts = 10

// NumberGenerator produces a candidate identifier.
type NumberGenerator func() (string, error)

// UniquenessOracle reports whether a candidate identifier is still free.
type UniquenessOracle func(number string) (bool, error)

// GenerateUniqueNumber asks generate for candidates until isUnique accepts one.
// It fails with ErrNumberGenerationExhausted once attempts candidates were rejected.
func GenerateUniqueNumber(generate NumberGenerator, isUnique UniquenessOracle, attempts int) (string, error) {
	if attempts <= 0 {
		attempts = DefaultNumberAttempts
	}

	for range attempts {
		candidate, err := generate()
		if err != nil {
			return "", fmt.Errorf("generate number: %w", err)
		}
		ok, err := isUnique(candidate)
		if err != nil {
			return "", fmt.Errorf("check number uniqueness: %w", err)
		}
		if ok {
			return candidate, nil
		}
	}

	return "", NewNumberGenerationExhaustedError(attempts)
}

const (
	invoiceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderAlphabet   = "0123456789"
)

// RandomInvoiceNumber returns an 8 character code without ambiguous glyphs.
func RandomInvoiceNumber() (string, error) {
	return gonanoid.Generate(invoiceAlphabet, 8)
}

// RandomOrderNumber returns a 10 digit numeric order id, which is what the gateway accepts.
func RandomOrderNumber() (string, error) {
	return gonanoid.Generate(orderAlphabet, 10)
}
