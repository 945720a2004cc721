package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load(t.Context())

	require.NoError(t, err)
	require.NotNil(t, doc.Paths.Find("/invoices"))
	assert.NotNil(t, doc.Paths.Find("/invoices/{number}/payments/unknown").Post)
	assert.Contains(t, doc.Components.Schemas, "AcceptInvoiceRequest")
}

func TestRegisterDocsRoutes(t *testing.T) {
	doc, err := Load(t.Context())
	require.NoError(t, err)
	require.NoError(t, Register(doc))
	require.NoError(t, Register(doc))

	mux := http.NewServeMux()
	RegisterDocsRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var served map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &served))
	assert.Equal(t, "3.0.3", served["openapi"])
	assert.Contains(t, served["paths"], "/invoices")
}
