package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

type Invoice struct {
	Number           string          `json:"number"`
	ExternalID       string          `json:"external_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	ProductName      string          `json:"product_name"`
	ConsumerName     string          `json:"consumer_name,omitempty"`
	ConsumerEmail    *string         `json:"consumer_email,omitempty"`
	ConsumerLanguage string          `json:"consumer_language"`
	Status           string          `json:"status"`
	PaymentID        *string         `json:"payment_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func ToAPIInvoice(inv *domain.Invoice) Invoice {
	return Invoice{
		Number:           inv.Number,
		ExternalID:       inv.ExternalID,
		Amount:           inv.Amount,
		Currency:         inv.Currency,
		ProductName:      inv.ProductName,
		ConsumerName:     inv.ConsumerName,
		ConsumerEmail:    inv.ConsumerEmail,
		ConsumerLanguage: inv.LanguageTag(),
		Status:           string(inv.Status),
		PaymentID:        inv.PaymentID,
		PaidAt:           inv.PaidAt,
		CreatedAt:        inv.CreatedAt,
	}
}
