package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

func toInvoiceModel(inv *domain.Invoice) *InvoiceModel {
	return &InvoiceModel{
		Number:           inv.Number,
		ExternalID:       inv.ExternalID,
		Amount:           inv.Amount.String(),
		Currency:         inv.Currency,
		ProductName:      inv.ProductName,
		ConsumerName:     inv.ConsumerName,
		ConsumerEmail:    inv.ConsumerEmail,
		ConsumerLanguage: inv.ConsumerLanguage.String(),
		Status:           string(inv.Status),
		PaymentID:        inv.PaymentID,
		PaidAt:           inv.PaidAt,
		CreatedAt:        inv.CreatedAt,
	}
}

func toInvoice(m InvoiceModel) (*domain.Invoice, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("invoice %s amount: %w", m.Number, err)
	}
	return domain.ReconstituteInvoice(
		m.Number, m.ExternalID,
		amount, m.Currency,
		m.ProductName, m.ConsumerName, m.ConsumerEmail, m.ConsumerLanguage,
		domain.InvoiceStatus(m.Status),
		m.PaymentID, m.PaidAt, m.CreatedAt,
	), nil
}

func toPaymentModel(p *domain.Payment) *PaymentModel {
	m := &PaymentModel{
		ID:              p.ID,
		Kind:            string(p.Kind),
		Amount:          p.Amount.String(),
		Currency:        p.Currency,
		ReferenceNumber: p.ReferenceNumber,
		PayerName:       p.PayerName,
		OrderNumber:     p.OrderNumber,
		CardNumber:      p.CardNumber,
		ApprovalCode:    p.ApprovalCode,
		ResponseCode:    p.ResponseCode,
		CreatedAt:       p.CreatedAt,
	}
	if b := p.CardIssuingBank; b != nil {
		m.CardBankBIN = &b.BIN
		m.CardBankCode = &b.Code
		m.CardBankName = &b.Name
	}
	return m
}

func toPayment(m PaymentModel) (*domain.Payment, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("payment %s amount: %w", m.ID, err)
	}
	p := &domain.Payment{
		ID:              m.ID,
		Kind:            domain.PaymentKind(m.Kind),
		Amount:          amount,
		Currency:        m.Currency,
		CreatedAt:       m.CreatedAt,
		ReferenceNumber: m.ReferenceNumber,
		PayerName:       m.PayerName,
		OrderNumber:     m.OrderNumber,
		CardNumber:      m.CardNumber,
		ApprovalCode:    m.ApprovalCode,
		ResponseCode:    m.ResponseCode,
	}
	if m.CardBankCode != nil {
		p.CardIssuingBank = &domain.Bank{
			BIN:  deref(m.CardBankBIN),
			Code: *m.CardBankCode,
			Name: deref(m.CardBankName),
		}
	}
	return p, nil
}

func toOrderModel(o *domain.QazkomOrder) *OrderModel {
	return &OrderModel{
		Number:        o.Number,
		InvoiceNumber: o.InvoiceNumber,
		OrderDoc:      o.OrderDoc,
		CartDoc:       o.CartDoc,
		PaymentID:     o.PaymentID,
		ErrorID:       o.ErrorID,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrder(m OrderModel) *domain.QazkomOrder {
	return &domain.QazkomOrder{
		Number:        m.Number,
		InvoiceNumber: m.InvoiceNumber,
		OrderDoc:      m.OrderDoc,
		CartDoc:       m.CartDoc,
		PaymentID:     m.PaymentID,
		ErrorID:       m.ErrorID,
		CreatedAt:     m.CreatedAt,
	}
}

func toOutboxEvent(m OutboxModel) *application.OutboxEvent {
	return &application.OutboxEvent{
		ID:          m.ID,
		Type:        m.Type,
		Key:         m.Key,
		Payload:     m.Payload,
		CreatedAt:   m.CreatedAt,
		PublishedAt: m.PublishedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
