package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/interfaces/rest"
)

const (
	maxBodyBytes = 1 << 20

	// responseField carries the XML document when the gateway posts a form.
	responseField = "response"
)

var errMalformedBody = errors.New("malformed request body")

type PostbackResponse struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Status        string `json:"status,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

type FailureResponse struct {
	Message string `json:"message"`
}

// HandlePostback answers 200 for redelivered postbacks so the gateway stops retrying.
func (h *Handlers) HandlePostback(w http.ResponseWriter, r *http.Request) {
	raw, err := gatewayDocument(w, r)
	if err != nil {
		rest.WriteError(w, application.NewInvalidArgumentError(err), h.logger)
		return
	}

	inv, err := h.postbacks.CompleteWithGatewayPayment(r.Context(), raw)
	if err != nil {
		if application.IsDuplicatePayment(err) {
			rest.RespondWithJSON(w, http.StatusOK, PostbackResponse{Duplicate: true})
			return
		}
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusOK, PostbackResponse{
		InvoiceNumber: inv.Number,
		Status:        string(inv.Status),
	})
}

func (h *Handlers) HandleFailure(w http.ResponseWriter, r *http.Request) {
	raw, err := gatewayDocument(w, r)
	if err != nil {
		rest.WriteError(w, application.NewInvalidArgumentError(err), h.logger)
		return
	}

	msg, err := h.failures.ProcessFailure(r.Context(), raw)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, FailureResponse{Message: msg})
}

// gatewayDocument accepts the XML either as the raw body or as the "response" form field.
func gatewayDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, errors.Join(errMalformedBody, err)
		}
		doc := strings.TrimSpace(r.PostForm.Get(responseField))
		if doc == "" {
			return nil, errors.Join(errMalformedBody, errors.New("missing response field"))
		}
		return []byte(doc), nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Join(errMalformedBody, err)
	}
	if len(raw) == 0 {
		return nil, errors.Join(errMalformedBody, errors.New("empty body"))
	}
	return raw, nil
}
