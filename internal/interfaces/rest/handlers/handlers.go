package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/epay-reconciler/internal/application/services"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type InvoiceService interface {
	Accept(ctx context.Context, cmd services.AcceptInvoiceCommand) (*domain.Invoice, error)
	Expire(ctx context.Context, number string) (*domain.Invoice, error)
	CompleteWithUnknownPayment(ctx context.Context, cmd services.UnknownPaymentCommand) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	HasInvoiceWithNumber(ctx context.Context, number string) (bool, error)
	DefaultPaymentURI(ctx context.Context, number string) (string, error)
}

type RedirectService interface {
	QazkomHTTPMethodByNumber(ctx context.Context, number string, cmd services.RedirectCommand) (*services.PaymentMethod, error)
}

type PostbackService interface {
	CompleteWithGatewayPayment(ctx context.Context, raw []byte) (*domain.Invoice, error)
}

type FailureService interface {
	ProcessFailure(ctx context.Context, raw []byte) (string, error)
}

// CallbackURIs are advertised to the gateway on every redirect.
type CallbackURIs struct {
	Postback *url.URL
	Failure  *url.URL
	Return   *url.URL
}

type Handlers struct {
	invoices  InvoiceService
	redirects RedirectService
	postbacks PostbackService
	failures  FailureService
	callbacks CallbackURIs
	logger    *slog.Logger
}

func NewHandlers(
	invoices InvoiceService,
	redirects RedirectService,
	postbacks PostbackService,
	failures FailureService,
	callbacks CallbackURIs,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		invoices:  invoices,
		redirects: redirects,
		postbacks: postbacks,
		failures:  failures,
		callbacks: callbacks,
		logger:    logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /invoices", h.HandleAcceptInvoice)
	mux.HandleFunc("GET /invoices/{number}", h.HandleGetInvoice)
	mux.HandleFunc("HEAD /invoices/{number}", h.HandleHasInvoice)
	mux.HandleFunc("POST /invoices/{number}/expire", h.HandleExpireInvoice)
	mux.HandleFunc("POST /invoices/{number}/payments/unknown", h.HandleUnknownPayment)
	mux.HandleFunc("GET /invoices/{number}/payment-uri", h.HandlePaymentURI)
	mux.HandleFunc("GET /invoices/{number}/payment-method", h.HandlePaymentMethod)

	mux.HandleFunc("POST /qazkom/postback", h.HandlePostback)
	mux.HandleFunc("POST /qazkom/failure", h.HandleFailure)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
