package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// Redirect form field names understood by the gateway.
const (
	ParamSignedOrder     = "Signed_Order_B64"
	ParamTemplate        = "template"
	ParamEmail           = "email"
	ParamPostLink        = "PostLink"
	ParamFailurePostLink = "FailurePostLink"
	ParamLanguage        = "Language"
	ParamAppendix        = "appendix"
	ParamBackLink        = "BackLink"
)

type GatewayConfig struct {
	Merchant   application.MerchantCredentials
	EpayURI    string
	HTTPMethod string
	Template   string
}

// HTTPMethod describes the request the consumer's browser must submit to the gateway.
type HTTPMethod struct {
	Method string            `json:"method"`
	URI    string            `json:"uri"`
	Params map[string]string `json:"params"`
}

type PaymentMethod struct {
	HTTP HTTPMethod `json:"http"`
}

// RedirectService resolves the gateway order of an invoice and describes how to reach the payment page.
type RedirectService struct {
	uow       application.UnitOfWork
	codec     application.GatewayCodec
	cfg       GatewayConfig
	newNumber domain.NumberGenerator
	logger    *slog.Logger
}

func NewRedirectService(
	uow application.UnitOfWork,
	codec application.GatewayCodec,
	cfg GatewayConfig,
	logger *slog.Logger,
) *RedirectService {
	return &RedirectService{
		uow:       uow,
		codec:     codec,
		cfg:       cfg,
		newNumber: domain.RandomOrderNumber,
		logger:    logger,
	}
}

// WithNumberGenerator replaces the order number source.
func (s *RedirectService) WithNumberGenerator(gen domain.NumberGenerator) *RedirectService {
	s.newNumber = gen
	return s
}

// QazkomHTTPMethod builds the redirect for inv, reusing its latest order when one exists.
// The stored invoice is locked for the unit of work, so concurrent first redirects create one order.
func (s *RedirectService) QazkomHTTPMethod(ctx context.Context, inv *domain.Invoice, cmd RedirectCommand) (*PaymentMethod, error) {
	if inv == nil {
		return nil, application.NewInvalidArgumentError(errMissing("invoice"))
	}
	return s.QazkomHTTPMethodByNumber(ctx, inv.Number, cmd)
}

// QazkomHTTPMethodByNumber is QazkomHTTPMethod for an invoice looked up by number.
func (s *RedirectService) QazkomHTTPMethodByNumber(ctx context.Context, number string, cmd RedirectCommand) (*PaymentMethod, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	if err := requireNonEmpty(number, "invoice number"); err != nil {
		return nil, err
	}

	var (
		inv   *domain.Invoice
		order *domain.QazkomOrder
	)
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		order, err = s.resolveOrder(ctx, repos, inv)
		return err
	})
	if err != nil {
		return nil, application.TranslateError(err)
	}

	return s.paymentMethod(inv, order, cmd), nil
}

func (s *RedirectService) resolveOrder(ctx context.Context, repos application.Repositories, inv *domain.Invoice) (*domain.QazkomOrder, error) {
	latest, err := repos.Orders.FindLatestForInvoice(ctx, inv.Number)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return latest, nil
	}

	number, err := domain.GenerateUniqueNumber(s.newNumber, numberFree(func(n string) (bool, error) {
		return repos.Orders.ExistsByNumber(ctx, n)
	}), domain.DefaultNumberAttempts)
	if err != nil {
		return nil, err
	}

	orderDoc, err := s.codec.SignOrder(application.OrderDocumentRequest{
		Merchant:    s.cfg.Merchant,
		OrderNumber: number,
		Amount:      inv.Amount,
		Currency:    inv.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("sign order %s: %w", number, err)
	}

	cartDoc, err := s.codec.BuildCart([]application.CartItem{{
		Name:     inv.ProductName,
		Quantity: 1,
		Amount:   inv.Amount,
	}})
	if err != nil {
		return nil, fmt.Errorf("build cart for order %s: %w", number, err)
	}

	order, err := domain.NewQazkomOrder(number, inv.Number, orderDoc, cartDoc)
	if err != nil {
		return nil, err
	}
	if err := repos.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("gateway order created",
		"order_number", order.Number,
		"invoice_number", inv.Number,
	)
	return order, nil
}

func (s *RedirectService) paymentMethod(inv *domain.Invoice, order *domain.QazkomOrder, cmd RedirectCommand) *PaymentMethod {
	email := ""
	if inv.HasConsumerEmail() {
		email = *inv.ConsumerEmail
	}

	return &PaymentMethod{
		HTTP: HTTPMethod{
			Method: s.cfg.HTTPMethod,
			URI:    s.cfg.EpayURI,
			Params: map[string]string{
				ParamSignedOrder:     order.OrderDocBase64(),
				ParamTemplate:        s.cfg.Template,
				ParamEmail:           email,
				ParamPostLink:        cmd.PostbackURI.String(),
				ParamFailurePostLink: cmd.FailureURI.String(),
				ParamLanguage:        inv.LanguageTag(),
				ParamAppendix:        order.CartDocBase64(),
				ParamBackLink:        cmd.ReturnURI.String(),
			},
		},
	}
}
