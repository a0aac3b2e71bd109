package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"cantina/internal/apperror"
	"cantina/internal/infra"
	"cantina/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body, attachment string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(to, subject, body, attachmentPath string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body, attachmentPath})
	return nil
}

type fakeInvoices map[uuid.UUID]*model.Invoice

func (f fakeInvoices) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := f[id]
	if !ok {
		return nil, apperror.NotFound("nota", id)
	}
	return inv, nil
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestAlertWorker_SendsMail(t *testing.T) {
	sender := &fakeSender{}
	w := NewAlertWorker(sender, nil, "cantina@escola.test")

	err := w.Process(context.Background(), payload(t, LowStockAlertPayload{
		ProductName: "Suco", School: "Wizard", Stock: 1, MinStock: 5,
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "cantina@escola.test", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "Suco")
	assert.Contains(t, sender.sent[0].body, "1 unidades")
	assert.Empty(t, sender.sent[0].attachment)
}

func TestAlertWorker_NoRecipientOnlyLogs(t *testing.T) {
	sender := &fakeSender{}
	w := NewAlertWorker(sender, nil, "")
	require.NoError(t, w.Process(context.Background(), payload(t, LowStockAlertPayload{ProductName: "Suco"})))
	assert.Empty(t, sender.sent)
}

func TestAlertWorker_DropsMalformedPayload(t *testing.T) {
	sender := &fakeSender{}
	w := NewAlertWorker(sender, nil, "x@y.test")
	assert.NoError(t, w.Process(context.Background(), json.RawMessage(`{"stock": "many"`)))
	assert.Empty(t, sender.sent)
}

func TestAlertWorker_BreakerShortCircuits(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial tcp: connection refused")}
	breaker := infra.NewBreaker("smtp", infra.BreakerConfig{Threshold: 1, Cooldown: time.Minute})
	w := NewAlertWorker(sender, breaker, "x@y.test")
	p := payload(t, LowStockAlertPayload{ProductName: "Suco"})

	assert.ErrorIs(t, w.Process(context.Background(), p), sender.err)
	assert.ErrorIs(t, w.Process(context.Background(), p), infra.ErrBreakerOpen)
}

func TestInvoiceWorker_RendersAndMails(t *testing.T) {
	inv := &model.Invoice{
		ID: uuid.New(), Supplier: "Distribuidora", Number: "NF-9", School: model.SchoolWizard,
		Date:  time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
		Items: []model.InvoiceItem{{ProductName: "Agua", Quantity: 12}},
	}
	sender := &fakeSender{}
	dir := t.TempDir()
	w := NewInvoiceWorker(fakeInvoices{inv.ID: inv}, dir, sender, nil, "compras@escola.test")

	require.NoError(t, w.Process(context.Background(), payload(t, InvoicePDFPayload{InvoiceID: inv.ID.String()})))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].subject, "NF-9")
	_, err := os.Stat(sender.sent[0].attachment)
	assert.NoError(t, err)
}

func TestInvoiceWorker_SkipsMissingInvoice(t *testing.T) {
	sender := &fakeSender{}
	w := NewInvoiceWorker(fakeInvoices{}, t.TempDir(), sender, nil, "compras@escola.test")

	assert.NoError(t, w.Process(context.Background(), payload(t, InvoicePDFPayload{InvoiceID: uuid.NewString()})))
	assert.NoError(t, w.Process(context.Background(), payload(t, InvoicePDFPayload{InvoiceID: "nope"})))
	assert.Empty(t, sender.sent)
}

func TestInvoiceWorker_WithoutRecipientStillRenders(t *testing.T) {
	inv := &model.Invoice{ID: uuid.New(), Supplier: "Distribuidora", Date: time.Now().UTC()}
	dir := t.TempDir()
	w := NewInvoiceWorker(fakeInvoices{inv.ID: inv}, dir, nil, nil, "")

	require.NoError(t, w.Process(context.Background(), payload(t, InvoicePDFPayload{InvoiceID: inv.ID.String()})))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
