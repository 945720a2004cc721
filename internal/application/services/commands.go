package services

import (
	"net/url"
	"time"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

type AcceptInvoiceCommand struct {
	ExternalID       string          `validate:"max=128"`
	Amount           decimal.Decimal `validate:"-"`
	Currency         string          `validate:"required,len=3"`
	ProductName      string          `validate:"required,max=256"`
	ConsumerName     string          `validate:"max=256"`
	ConsumerEmail    string          `validate:"omitempty,email"`
	ConsumerLanguage string          `validate:"omitempty,max=35"`
}

type UnknownPaymentCommand struct {
	InvoiceNumber   string          `validate:"required"`
	Amount          decimal.Decimal `validate:"-"`
	Currency        string          `validate:"required,len=3"`
	PaidAt          *time.Time
	ReferenceNumber string `validate:"max=128"`
	PayerName       string `validate:"max=256"`
}

// RedirectCommand carries the callback URIs the gateway is told about.
type RedirectCommand struct {
	PostbackURI *url.URL
	FailureURI  *url.URL
	ReturnURI   *url.URL
}

func (c RedirectCommand) validate() error {
	switch {
	case c.PostbackURI == nil:
		return application.NewInvalidArgumentError(errMissing("postback URI"))
	case c.FailureURI == nil:
		return application.NewInvalidArgumentError(errMissing("failure URI"))
	case c.ReturnURI == nil:
		return application.NewInvalidArgumentError(errMissing("return URI"))
	}
	return nil
}

var validate = validator.New()

func validateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return application.NewInvalidArgumentError(err)
	}
	return nil
}
