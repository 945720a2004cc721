package epay

import "encoding/xml"

// TimestampLayout is how the gateway formats instants in postbacks and failure reports.
const TimestampLayout = "2006-01-02 15:04:05"

// Order registration document, signed by the merchant.

type merchantElement struct {
	XMLName xml.Name     `xml:"merchant"`
	CertID  string       `xml:"cert_id,attr"`
	Name    string       `xml:"name,attr"`
	Order   orderElement `xml:"order"`
}

type orderElement struct {
	OrderID    string            `xml:"order_id,attr"`
	Amount     string            `xml:"amount,attr"`
	Currency   string            `xml:"currency,attr"`
	Department departmentElement `xml:"department"`
}

type departmentElement struct {
	MerchantID string `xml:"merchant_id,attr"`
	Amount     string `xml:"amount,attr"`
}

// Cart (appendix) document.

type cartDocument struct {
	XMLName xml.Name   `xml:"document"`
	Items   []cartItem `xml:"item"`
}

type cartItem struct {
	Number   int    `xml:"number,attr"`
	Name     string `xml:"name,attr"`
	Quantity int    `xml:"quantity,attr"`
	Amount   string `xml:"amount,attr"`
}

// Postback document, signed by the bank over its <bank> element.
// The <bank> element is decoded from the verified bytes only, never from the whole document.

type postbackDocument struct {
	XMLName  xml.Name      `xml:"document"`
	BankSign signatureElem `xml:"bank_sign"`
}

type bankElement struct {
	Name     string          `xml:"name,attr"`
	Customer customerElement `xml:"customer"`
	Results  resultsElement  `xml:"results"`
}

type customerElement struct {
	Name     string          `xml:"name,attr"`
	Mail     string          `xml:"mail,attr"`
	Phone    string          `xml:"phone,attr"`
	Merchant merchantElement `xml:"merchant"`
}

type resultsElement struct {
	Timestamp string          `xml:"timestamp,attr"`
	Payments  []paymentResult `xml:"payment"`
}

type paymentResult struct {
	MerchantID   string `xml:"merchant_id,attr"`
	Card         string `xml:"card,attr"`
	Amount       string `xml:"amount,attr"`
	Reference    string `xml:"reference,attr"`
	ApprovalCode string `xml:"approval_code,attr"`
	ResponseCode string `xml:"response_code,attr"`
}

type signatureElem struct {
	CertID string `xml:"cert_id,attr"`
	Type   string `xml:"type,attr"`
	Value  string `xml:",chardata"`
}

// Failure report, unsigned.

type failureDocument struct {
	XMLName xml.Name     `xml:"response"`
	OrderID string       `xml:"order_id,attr"`
	Error   failureError `xml:"error"`
	Session struct {
		ID string `xml:"id,attr"`
	} `xml:"session"`
}

type failureError struct {
	Type    string `xml:"type,attr"`
	Time    string `xml:"time,attr"`
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}
