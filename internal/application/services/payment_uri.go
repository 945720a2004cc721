package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const (
	placeholderInvoiceID     = "@INVOICE_ID@"
	placeholderInvoiceNumber = "@INVOICE_NUMBER@"
	placeholderLanguage      = "@LANG@"
)

// PaymentURIBuilder renders the operator configured payment page template for an invoice.
type PaymentURIBuilder struct {
	pattern string
}

func NewPaymentURIBuilder(pattern string) *PaymentURIBuilder {
	return &PaymentURIBuilder{pattern: pattern}
}

// Build fails with an internal error when the template does not yield a URI.
func (b *PaymentURIBuilder) Build(inv *domain.Invoice) (*url.URL, error) {
	if inv == nil {
		return nil, application.NewInvalidArgumentError(errMissing("invoice"))
	}
	if strings.TrimSpace(b.pattern) == "" {
		return nil, application.NewInternalError(errors.New("default payment URI pattern is not configured"))
	}

	resolved := strings.NewReplacer(
		placeholderInvoiceID, inv.Number,
		placeholderInvoiceNumber, inv.Number,
		placeholderLanguage, inv.LanguageTag(),
	).Replace(b.pattern)

	uri, err := url.Parse(resolved)
	if err != nil {
		return nil, application.NewInternalError(fmt.Errorf("parse payment URI %q: %w", resolved, err))
	}
	return uri, nil
}
