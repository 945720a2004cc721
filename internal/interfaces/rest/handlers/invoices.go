package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/application/services"
	"github.com/DanielPopoola/epay-reconciler/internal/interfaces/rest"
)

type AcceptInvoiceRequest struct {
	ExternalID       string          `json:"external_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	ProductName      string          `json:"product_name"`
	ConsumerName     string          `json:"consumer_name"`
	ConsumerEmail    string          `json:"consumer_email"`
	ConsumerLanguage string          `json:"consumer_language"`
}

type UnknownPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaidAt          *time.Time      `json:"paid_at"`
	ReferenceNumber string          `json:"reference_number"`
	PayerName       string          `json:"payer_name"`
}

type PaymentURIResponse struct {
	URI string `json:"uri"`
}

func (h *Handlers) HandleAcceptInvoice(w http.ResponseWriter, r *http.Request) {
	var req AcceptInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	inv, err := h.invoices.Accept(r.Context(), services.AcceptInvoiceCommand{
		ExternalID:       req.ExternalID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		ProductName:      req.ProductName,
		ConsumerName:     req.ConsumerName,
		ConsumerEmail:    req.ConsumerEmail,
		ConsumerLanguage: req.ConsumerLanguage,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusCreated, rest.ToAPIInvoice(inv))
}

func (h *Handlers) HandleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, rest.ToAPIInvoice(inv))
}

func (h *Handlers) HandleHasInvoice(w http.ResponseWriter, r *http.Request) {
	exists, err := h.invoices.HasInvoiceWithNumber(r.Context(), r.PathValue("number"))
	switch {
	case err != nil:
		w.WriteHeader(application.ToHTTPStatus(err))
	case exists:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handlers) HandleExpireInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Expire(r.Context(), r.PathValue("number"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, rest.ToAPIInvoice(inv))
}

func (h *Handlers) HandleUnknownPayment(w http.ResponseWriter, r *http.Request) {
	var req UnknownPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	inv, err := h.invoices.CompleteWithUnknownPayment(r.Context(), services.UnknownPaymentCommand{
		InvoiceNumber:   r.PathValue("number"),
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaidAt:          req.PaidAt,
		ReferenceNumber: req.ReferenceNumber,
		PayerName:       req.PayerName,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, rest.ToAPIInvoice(inv))
}

func (h *Handlers) HandlePaymentURI(w http.ResponseWriter, r *http.Request) {
	uri, err := h.invoices.DefaultPaymentURI(r.Context(), r.PathValue("number"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, PaymentURIResponse{URI: uri})
}

// HandlePaymentMethod describes the form the consumer's browser submits to the gateway.
// A return_uri query parameter overrides the configured BackLink.
func (h *Handlers) HandlePaymentMethod(w http.ResponseWriter, r *http.Request) {
	cmd := services.RedirectCommand{
		PostbackURI: h.callbacks.Postback,
		FailureURI:  h.callbacks.Failure,
		ReturnURI:   h.callbacks.Return,
	}
	if raw := r.URL.Query().Get("return_uri"); raw != "" {
		back, err := url.ParseRequestURI(raw)
		if err != nil {
			rest.WriteError(w, application.NewInvalidArgumentError(err), h.logger)
			return
		}
		cmd.ReturnURI = back
	}

	method, err := h.redirects.QazkomHTTPMethodByNumber(r.Context(), r.PathValue("number"), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, method)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rest.WriteError(w, application.NewInvalidArgumentError(errors.Join(errMalformedBody, err)), h.logger)
		return false
	}
	return true
}
