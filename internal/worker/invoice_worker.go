package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cantina/internal/apperror"
	"cantina/internal/infra"
	"cantina/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InvoicePDFPayload is enqueued after a bulk restock creates an invoice.
type InvoicePDFPayload struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceFinder loads an invoice with its items.
type InvoiceFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
}

// InvoiceWorker renders the invoice receipt and, when a recipient is
// configured, mails it.
type InvoiceWorker struct {
	invoices    InvoiceFinder
	storagePath string
	sender      Sender
	guard       Guard
	to          string
}

func NewInvoiceWorker(invoices InvoiceFinder, storagePath string, sender Sender, guard Guard, to string) *InvoiceWorker {
	if guard == nil {
		guard = passthrough{}
	}
	return &InvoiceWorker{invoices: invoices, storagePath: storagePath, sender: sender, guard: guard, to: to}
}

func (w *InvoiceWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p InvoicePDFPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("invoice_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(p.InvoiceID)
	if err != nil {
		log.Error().Str("invoice_id", p.InvoiceID).Msg("invoice_worker: invalid invoice id")
		return nil
	}

	inv, err := w.invoices.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		log.Warn().Str("invoice_id", p.InvoiceID).Msg("invoice_worker: invoice not found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("invoice_worker: load invoice: %w", err)
	}

	path, err := infra.GenerateInvoicePDF(inv, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("invoice_id", p.InvoiceID).Str("path", path).Msg("invoice_worker: pdf generated")

	if w.to == "" || w.sender == nil {
		return nil
	}
	subject := fmt.Sprintf("Nota de entrada %s - %s", inv.Number, inv.Supplier)
	body := fmt.Sprintf("Segue a nota de entrada registrada em %s.\n", inv.Date.Format("02/01/2006 15:04"))
	if err := w.guard.Do(func() error { return w.sender.Send(w.to, subject, body, path) }); err != nil {
		return fmt.Errorf("invoice_worker: send: %w", err)
	}
	return nil
}
