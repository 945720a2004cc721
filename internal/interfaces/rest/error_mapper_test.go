package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLogged bool
	}{
		{
			name:       "not found",
			err:        application.NewNotFoundError(domain.NewNotFoundError("invoice", "X")),
			wantStatus: http.StatusNotFound,
			wantCode:   application.ErrCodeNotFound,
		},
		{
			name:       "invalid transition",
			err:        application.TranslateError(domain.NewInvalidTransitionError("invoice X", domain.InvoiceStatusPaid, domain.InvoiceStatusExpired)),
			wantStatus: http.StatusConflict,
			wantCode:   application.ErrCodeInvalidTransition,
		},
		{
			name:       "raw error is internal and alerted",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   application.ErrCodeInternal,
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := httptest.NewRecorder()

			WriteError(rec, tt.err, slog.New(slog.NewJSONHandler(&logs, nil)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "connection refused")
			assert.Equal(t, tt.wantLogged, logs.Len() > 0)
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondWithJSON(rec, http.StatusCreated, map[string]string{"number": "AB12CD34"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"number":"AB12CD34"}}`, rec.Body.String())
}
