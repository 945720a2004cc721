package epay

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const bankCertSerial = 0xC182B189

type fixture struct {
	merchantKey *rsa.PrivateKey
	bankKey     *rsa.PrivateKey
	bankCert    *x509.Certificate
	codec       *Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	merchantKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	bankKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cert := selfSignedCert(t, bankKey)
	codec, err := NewCodec(merchantKey, cert, WithLocation(time.UTC))
	require.NoError(t, err)

	return &fixture{merchantKey: merchantKey, bankKey: bankKey, bankCert: cert, codec: codec}
}

func selfSignedCert(t *testing.T, key *rsa.PrivateKey) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(bankCertSerial),
		Subject:      pkix.Name{CommonName: "epay test bank"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func bankXML(orderID, amount string) string {
	return fmt.Sprintf(`<bank name="Kazkommertsbank JSC">`+
		`<customer name="IVAN IVANOV" mail="buyer@example.kz" phone="">`+
		`<merchant cert_id="00C182B189" name="Test shop">`+
		`<order order_id="%[1]s" amount="%[2]s" currency="398"><department merchant_id="92061101" amount="%[2]s"/></order>`+
		`</merchant><merchant_sign type="RSA"/></customer><customer_sign type="RSA"/>`+
		`<results timestamp="2024-05-01 12:30:00">`+
		`<payment merchant_id="92061101" card="440564-XX-XXXX-6150" amount="%[2]s" reference="618704198173" approval_code="447753" response_code="00"/>`+
		`</results></bank>`, orderID, amount)
}

func signedPostback(t *testing.T, key *rsa.PrivateKey, bank, certID string) []byte {
	t.Helper()
	sig, err := sign(key, []byte(bank))
	require.NoError(t, err)
	return []byte(`<document>` + bank + `<bank_sign cert_id="` + certID + `" type="SHA/RSA">` + sig + `</bank_sign></document>`)
}

func TestCodec_ParsePostback(t *testing.T) {
	f := newFixture(t)

	t.Run("valid signature", func(t *testing.T) {
		raw := signedPostback(t, f.bankKey, bankXML("0000000001", "15000.00"), "C182B189")

		msg, err := f.codec.ParsePostback(raw)

		require.NoError(t, err)
		assert.Equal(t, "0000000001", msg.OrderNumber)
		assert.True(t, decimal.RequireFromString("15000").Equal(msg.Amount))
		assert.Equal(t, "KZT", msg.Currency)
		assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), msg.Timestamp)
		assert.Equal(t, "618704198173", msg.ReferenceNumber)
		assert.Equal(t, "447753", msg.ApprovalCode)
		assert.Equal(t, "00", msg.ResponseCode)
		assert.Equal(t, "440564-XX-XXXX-6150", msg.CardNumber)
		assert.Equal(t, "IVAN IVANOV", msg.PayerName)
		assert.Equal(t, "buyer@example.kz", msg.PayerEmail)
	})

	t.Run("tampered payload", func(t *testing.T) {
		raw := signedPostback(t, f.bankKey, bankXML("0000000001", "15000.00"), "C182B189")
		tampered := strings.ReplaceAll(string(raw), `amount="15000.00"`, `amount="1.00"`)

		_, err := f.codec.ParsePostback([]byte(tampered))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("signed by another key", func(t *testing.T) {
		raw := signedPostback(t, f.merchantKey, bankXML("0000000001", "15000.00"), "C182B189")

		_, err := f.codec.ParsePostback(raw)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("unknown certificate id", func(t *testing.T) {
		raw := signedPostback(t, f.bankKey, bankXML("0000000001", "15000.00"), "0BADCAFE")

		_, err := f.codec.ParsePostback(raw)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("genuine element hidden in a comment", func(t *testing.T) {
		genuine := bankXML("0000000001", "15000.00")
		sig, err := sign(f.bankKey, []byte(genuine))
		require.NoError(t, err)
		forged := strings.Replace(bankXML("0000000999", "1.00"), "<bank ", "<bank\n ", 1)
		raw := `<document>` + forged + `<!--` + genuine + `-->` +
			`<bank_sign cert_id="C182B189" type="SHA/RSA">` + sig + `</bank_sign></document>`

		msg, err := f.codec.ParsePostback([]byte(raw))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Nil(t, msg)
	})

	t.Run("second bank element", func(t *testing.T) {
		genuine := bankXML("0000000001", "15000.00")
		sig, err := sign(f.bankKey, []byte(genuine))
		require.NoError(t, err)
		raw := `<document>` + bankXML("0000000999", "1.00") + genuine +
			`<bank_sign cert_id="C182B189" type="SHA/RSA">` + sig + `</bank_sign></document>`

		_, err = f.codec.ParsePostback([]byte(raw))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("bank element nested below the root", func(t *testing.T) {
		genuine := bankXML("0000000001", "15000.00")
		sig, err := sign(f.bankKey, []byte(genuine))
		require.NoError(t, err)
		raw := `<document><wrapper>` + genuine + `</wrapper>` +
			`<bank_sign cert_id="C182B189" type="SHA/RSA">` + sig + `</bank_sign></document>`

		_, err = f.codec.ParsePostback([]byte(raw))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("whitespace inside the start tag is still signed", func(t *testing.T) {
		spaced := strings.Replace(bankXML("0000000001", "15000.00"), "<bank ", "<bank\n ", 1)
		raw := signedPostback(t, f.bankKey, spaced, "C182B189")

		msg, err := f.codec.ParsePostback(raw)

		require.NoError(t, err)
		assert.Equal(t, "0000000001", msg.OrderNumber)
	})

	t.Run("not a postback", func(t *testing.T) {
		_, err := f.codec.ParsePostback([]byte("<response/>"))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestCodec_SignOrder(t *testing.T) {
	f := newFixture(t)

	doc, err := f.codec.SignOrder(application.OrderDocumentRequest{
		Merchant:    application.MerchantCredentials{MerchantID: "92061101", Name: "Test shop", CertID: "00C182B189"},
		OrderNumber: "0000000001",
		Amount:      decimal.RequireFromString("15000"),
		Currency:    "KZT",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<document><merchant "))
	assert.Contains(t, doc, `order_id="0000000001"`)
	assert.Contains(t, doc, `amount="15000.00"`)
	assert.Contains(t, doc, `currency="398"`)
	assert.Contains(t, doc, `merchant_id="92061101"`)

	start := strings.Index(doc, "<merchant ")
	end := strings.Index(doc, "</merchant>") + len("</merchant>")
	sigStart := strings.Index(doc, `<merchant_sign type="RSA">`) + len(`<merchant_sign type="RSA">`)
	sigEnd := strings.Index(doc, "</merchant_sign>")

	err = verify(&f.merchantKey.PublicKey, []byte(doc[start:end]), doc[sigStart:sigEnd])
	assert.NoError(t, err)

	_, err = f.codec.SignOrder(application.OrderDocumentRequest{
		OrderNumber: "0000000002",
		Amount:      decimal.NewFromInt(1),
		Currency:    "JPY",
	})
	assert.Error(t, err)
}

func TestCodec_BuildCart(t *testing.T) {
	f := newFixture(t)

	doc, err := f.codec.BuildCart([]application.CartItem{{Name: "Policy <OSAGO>", Amount: decimal.RequireFromString("15000")}})

	require.NoError(t, err)
	assert.Equal(t, `<document><item number="1" name="Policy &lt;OSAGO&gt;" quantity="1" amount="15000.00"></item></document>`, doc)

	_, err = f.codec.BuildCart(nil)
	assert.Error(t, err)
}

func TestCodec_ParseFailure(t *testing.T) {
	f := newFixture(t)
	raw := []byte(`<response order_id="0000000001"><error type="system" time="2024-05-01 12:31:00" code="00">Card declined</error><session id="1234654"/></response>`)

	msg, err := f.codec.ParseFailure(raw)

	require.NoError(t, err)
	assert.Equal(t, "0000000001", msg.OrderNumber)
	assert.Equal(t, "Card declined", msg.Message)
	assert.Equal(t, "system", msg.Type)
	assert.Equal(t, "00", msg.Code)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 31, 0, 0, time.UTC), msg.Timestamp)

	_, err = f.codec.ParseFailure([]byte("not xml"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSignature_ReversedByteOrder(t *testing.T) {
	f := newFixture(t)
	data := []byte("<merchant/>")

	sig, err := sign(f.merchantKey, data)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	digest := sha1.Sum(data) //nolint:gosec
	assert.Error(t, rsa.VerifyPKCS1v15(&f.merchantKey.PublicKey, crypto.SHA1, digest[:], raw))
	assert.NoError(t, verify(&f.merchantKey.PublicKey, data, sig))
}

func TestParseKeysAndCertificates(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	parsed, err := ParsePrivateKey(pkcs1, "")
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	parsed, err = ParsePrivateKey(pkcs8, "")
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	_, err = ParsePrivateKey([]byte("garbage"), "")
	assert.ErrorIs(t, err, ErrNoPEMBlock)

	cert := selfSignedCert(t, key)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	parsedCert, err := ParseCertificate(certPEM)
	require.NoError(t, err)
	assert.Equal(t, cert.SerialNumber, parsedCert.SerialNumber)

	_, err = ParseCertificate(pkcs1)
	assert.ErrorIs(t, err, ErrNotCertificate)
}
