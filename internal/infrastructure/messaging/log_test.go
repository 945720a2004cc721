package messaging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := p.Publish(context.Background(), &application.OutboxEvent{
		ID:        "7f1c2a9e-0d4b-4c55-9b1e-2f3a4b5c6d7e",
		Type:      "invoice.has_paid",
		Key:       "0000000001",
		Payload:   []byte(`{"number":"0000000001"}`),
		CreatedAt: time.Now(),
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"event_type":"invoice.has_paid"`)
	assert.Contains(t, buf.String(), `"key":"0000000001"`)
}
