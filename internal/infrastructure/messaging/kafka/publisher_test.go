package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

// fakeWriter is a test writer that records messages written.
type fakeWriter struct {
	msgs   []skafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewPublisherWithWriter(fw, discardLogger())
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	err := p.Publish(context.Background(), &application.OutboxEvent{
		ID:        "6f1c2b1e-7d44-4e8e-9a43-1b0f2a3c4d5e",
		Type:      "invoice.has_paid",
		Key:       "0000000001",
		Payload:   []byte(`{"invoiceNumber":"0000000001"}`),
		CreatedAt: created,
	})

	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "0000000001", string(msg.Key))
	assert.JSONEq(t, `{"invoiceNumber":"0000000001"}`, string(msg.Value))
	assert.Equal(t, created, msg.Time)
	assert.Contains(t, msg.Headers, skafka.Header{Key: HeaderEventType, Value: []byte("invoice.has_paid")})
	assert.Contains(t, msg.Headers, skafka.Header{Key: HeaderEventID, Value: []byte("6f1c2b1e-7d44-4e8e-9a43-1b0f2a3c4d5e")})
}

func TestPublisher_WriteFailure(t *testing.T) {
	brokerDown := errors.New("broker unavailable")
	fw := &fakeWriter{err: brokerDown}
	p := NewPublisherWithWriter(fw, discardLogger())

	err := p.Publish(context.Background(), &application.OutboxEvent{ID: "e1", Type: "invoice.has_paid", Key: "k"})

	assert.ErrorIs(t, err, brokerDown)
	assert.Empty(t, fw.msgs)
}

func TestPublisher_Close(t *testing.T) {
	fw := &fakeWriter{}
	p := NewPublisherWithWriter(fw, discardLogger())

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}
