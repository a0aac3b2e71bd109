package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// LowStockAlertPayload is enqueued when a sale leaves a product at or below
// its minimum stock.
type LowStockAlertPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	School      string `json:"school"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
}

// Sender delivers an email, optionally with an attachment.
type Sender interface {
	Send(to, subject, body, attachmentPath string) error
}

// Guard wraps outbound calls; *infra.Breaker satisfies it.
type Guard interface {
	Do(fn func() error) error
}

type passthrough struct{}

func (passthrough) Do(fn func() error) error { return fn() }

// AlertWorker mails low-stock alerts to the configured address.
type AlertWorker struct {
	sender Sender
	guard  Guard
	to     string
}

// NewAlertWorker builds the worker. A nil guard sends unguarded; an empty
// recipient turns alerts into log lines only.
func NewAlertWorker(sender Sender, guard Guard, to string) *AlertWorker {
	if guard == nil {
		guard = passthrough{}
	}
	return &AlertWorker{sender: sender, guard: guard, to: to}
}

func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p LowStockAlertPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// Malformed payloads never succeed; drop instead of retrying.
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return nil
	}
	if w.to == "" || w.sender == nil {
		log.Warn().Str("product", p.ProductName).Int("stock", p.Stock).Msg("alert_worker: low stock (no recipient configured)")
		return nil
	}

	subject := fmt.Sprintf("Estoque baixo: %s (%s)", p.ProductName, p.School)
	body := fmt.Sprintf("O produto %s da escola %s esta com %d unidades (minimo %d).\n",
		p.ProductName, p.School, p.Stock, p.MinStock)

	if err := w.guard.Do(func() error { return w.sender.Send(w.to, subject, body, "") }); err != nil {
		return fmt.Errorf("alert_worker: send: %w", err)
	}
	log.Info().Str("product", p.ProductName).Msg("alert_worker: low stock alert sent")
	return nil
}
