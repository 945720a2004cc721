// Package epay speaks the Kazkom epay merchant protocol: signed order documents,
// cart appendices, signed postbacks and unsigned failure reports.
package epay

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

var numericCurrencies = map[string]string{
	"KZT": "398",
	"USD": "840",
	"EUR": "978",
	"RUB": "643",
}

var _ application.GatewayCodec = (*Codec)(nil)

// Codec implements application.GatewayCodec.
type Codec struct {
	merchantKey *rsa.PrivateKey
	bankCert    *x509.Certificate
	location    *time.Location
}

type Option func(*Codec)

// WithLocation sets the zone gateway timestamps are read in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		if loc != nil {
			c.location = loc
		}
	}
}

func NewCodec(merchantKey *rsa.PrivateKey, bankCert *x509.Certificate, opts ...Option) (*Codec, error) {
	if merchantKey == nil {
		return nil, errors.New("merchant key is required")
	}
	if bankCert == nil {
		return nil, errors.New("bank certificate is required")
	}
	if _, ok := bankCert.PublicKey.(*rsa.PublicKey); !ok {
		return nil, ErrNotRSAKey
	}

	c := &Codec{
		merchantKey: merchantKey,
		bankCert:    bankCert,
		location:    time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SignOrder renders the order registration document signed with the merchant key.
func (c *Codec) SignOrder(req application.OrderDocumentRequest) (string, error) {
	numeric, err := numericCurrency(req.Currency)
	if err != nil {
		return "", err
	}
	amount := formatAmount(req.Amount)

	merchant, err := xml.Marshal(merchantElement{
		CertID: req.Merchant.CertID,
		Name:   req.Merchant.Name,
		Order: orderElement{
			OrderID:  req.OrderNumber,
			Amount:   amount,
			Currency: numeric,
			Department: departmentElement{
				MerchantID: req.Merchant.MerchantID,
				Amount:     amount,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode order document: %w", err)
	}

	sig, err := sign(c.merchantKey, merchant)
	if err != nil {
		return "", err
	}

	var doc strings.Builder
	doc.WriteString("<document>")
	doc.Write(merchant)
	doc.WriteString(`<merchant_sign type="RSA">`)
	doc.WriteString(sig)
	doc.WriteString("</merchant_sign></document>")
	return doc.String(), nil
}

func (c *Codec) BuildCart(items []application.CartItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("cart has no items")
	}

	doc := cartDocument{Items: make([]cartItem, 0, len(items))}
	for i, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		doc.Items = append(doc.Items, cartItem{
			Number:   i + 1,
			Name:     it.Name,
			Quantity: qty,
			Amount:   formatAmount(it.Amount),
		})
	}

	raw, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode cart document: %w", err)
	}
	return string(raw), nil
}

// ParsePostback verifies the bank signature before reading anything from the payload.
func (c *Codec) ParsePostback(raw []byte) (*application.PostbackMessage, error) {
	signed, err := bankElementBytes(raw)
	if err != nil {
		return nil, invalid("postback", err)
	}

	var doc postbackDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, invalid("postback", err)
	}

	if err := c.checkCertID(doc.BankSign.CertID); err != nil {
		return nil, invalid("postback", err)
	}
	if err := verify(c.bankCert.PublicKey.(*rsa.PublicKey), signed, doc.BankSign.Value); err != nil {
		return nil, invalid("postback", err)
	}

	var bank bankElement
	if err := xml.Unmarshal(signed, &bank); err != nil {
		return nil, invalid("postback", err)
	}

	order := bank.Customer.Merchant.Order
	if len(bank.Results.Payments) == 0 {
		return nil, invalid("postback", errors.New("no payment result"))
	}
	result := bank.Results.Payments[0]

	amount, err := decimal.NewFromString(firstNonEmpty(result.Amount, order.Amount))
	if err != nil {
		return nil, invalid("postback", fmt.Errorf("amount: %w", err))
	}
	cur, err := alphaCurrency(order.Currency)
	if err != nil {
		return nil, invalid("postback", err)
	}

	var ts time.Time
	if bank.Results.Timestamp != "" {
		ts, err = time.ParseInLocation(TimestampLayout, bank.Results.Timestamp, c.location)
		if err != nil {
			return nil, invalid("postback", fmt.Errorf("timestamp: %w", err))
		}
	}

	return &application.PostbackMessage{
		OrderNumber:     strings.TrimSpace(order.OrderID),
		Amount:          amount,
		Currency:        cur,
		Timestamp:       ts,
		ReferenceNumber: result.Reference,
		ApprovalCode:    result.ApprovalCode,
		ResponseCode:    result.ResponseCode,
		CardNumber:      result.Card,
		PayerName:       bank.Customer.Name,
		PayerEmail:      bank.Customer.Mail,
	}, nil
}

func (c *Codec) ParseFailure(raw []byte) (*application.FailureMessage, error) {
	var doc failureDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, invalid("failure report", err)
	}

	msg := &application.FailureMessage{
		OrderNumber: strings.TrimSpace(doc.OrderID),
		Code:        doc.Error.Code,
		Type:        doc.Error.Type,
		Message:     strings.TrimSpace(doc.Error.Message),
	}
	if doc.Error.Time != "" {
		if ts, err := time.ParseInLocation(TimestampLayout, doc.Error.Time, c.location); err == nil {
			msg.Timestamp = ts
		}
	}
	return msg, nil
}

// checkCertID rejects postbacks signed under a certificate other than the configured one.
func (c *Codec) checkCertID(certID string) error {
	certID = strings.TrimSpace(certID)
	if certID == "" {
		return nil
	}
	serial, ok := new(big.Int).SetString(certID, 16)
	if !ok {
		return fmt.Errorf("malformed bank certificate id %q", certID)
	}
	if serial.Cmp(c.bankCert.SerialNumber) != 0 {
		return fmt.Errorf("postback signed with unknown bank certificate %q", certID)
	}
	return nil
}

// bankElementBytes returns the exact bytes the bank signed: the single <bank> child of the root.
// Offsets come from the tokenizer, so commented or oddly spaced markup cannot shift them.
func bankElementBytes(raw []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		depth      int
		bankDepth  int
		start, end int64 = -1, -1
	)
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local != "bank" {
				continue
			}
			if start >= 0 {
				return nil, errors.New("more than one bank element")
			}
			if depth != 2 {
				return nil, errors.New("bank element is not a child of the document")
			}
			start, bankDepth = offset, depth
		case xml.EndElement:
			if start >= 0 && end < 0 && depth == bankDepth && t.Name.Local == "bank" {
				end = dec.InputOffset()
			}
			depth--
		}
	}

	if start < 0 || end <= start {
		return nil, errors.New("bank element not found")
	}
	return raw[start:end], nil
}

func numericCurrency(alpha string) (string, error) {
	code, ok := numericCurrencies[strings.ToUpper(alpha)]
	if !ok {
		return "", fmt.Errorf("currency %q is not supported by the gateway", alpha)
	}
	return code, nil
}

func alphaCurrency(numeric string) (string, error) {
	numeric = strings.TrimSpace(numeric)
	for alpha, code := range numericCurrencies {
		if code == numeric {
			return alpha, nil
		}
	}
	return "", fmt.Errorf("unknown currency code %q", numeric)
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func invalid(what string, err error) error {
	return domain.NewInvalidArgumentError("invalid %s: %v", what, err)
}
