package service

import (
	"context"
	"strings"

	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxLineQuantity bounds one purchase or restock line, after repeated
// products are summed. The request DTOs carry the same limit as a max tag.
const maxLineQuantity = 10000

// JobDispatcher enqueues post-commit background work. A nil dispatcher
// disables background jobs (no Redis configured).
type JobDispatcher interface {
	EnqueueLowStockAlert(ctx context.Context, p worker.LowStockAlertPayload) error
	EnqueueInvoicePDF(ctx context.Context, p worker.InvoicePDFPayload) error
}

// positiveAmount rounds a money input to cents and rejects anything that is
// not strictly positive afterwards.
func positiveAmount(field string, v decimal.Decimal) (decimal.Decimal, error) {
	r := v.Round(2)
	if !r.IsPositive() {
		return decimal.Zero, apperror.Validation("%s deve ser um valor positivo", field)
	}
	return r, nil
}

func nonNegativeAmount(field string, v decimal.Decimal) (decimal.Decimal, error) {
	r := v.Round(2)
	if r.IsNegative() {
		return decimal.Zero, apperror.Validation("%s nao pode ser negativo", field)
	}
	return r, nil
}

// requestedSchool reads an optional school patch. Absent and blank both
// mean "keep the current school".
func requestedSchool(raw *string) (model.School, bool) {
	if raw == nil {
		return "", false
	}
	school := model.School(strings.TrimSpace(*raw))
	return school, school != ""
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation("id de %s invalido %q", kind, raw)
	}
	return id, nil
}

func studentToResponse(s *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		School:    string(s.School),
		Balance:   s.Balance,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		CostPrice: p.CostPrice,
		Supplier:  p.Supplier,
		Category:  p.Category,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		LowStock:  p.LowStock(),
		School:    string(p.School),
		UpdatedAt: p.UpdatedAt,
	}
}

func transactionToResponse(t *model.Transaction) dto.TransactionResponse {
	items := make([]dto.TransactionItemResponse, len(t.Items))
	for i, it := range t.Items {
		items[i] = dto.TransactionItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		}
	}
	return dto.TransactionResponse{
		ID:          t.ID.String(),
		StudentID:   t.StudentID.String(),
		StudentName: t.StudentName,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Method:      string(t.Method),
		Description: t.Description,
		Date:        t.Date,
		Items:       items,
	}
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = dto.InvoiceItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		}
	}
	return &dto.InvoiceResponse{
		ID:       inv.ID.String(),
		Supplier: inv.Supplier,
		Number:   inv.Number,
		School:   string(inv.School),
		Date:     inv.Date,
		Items:    items,
	}
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	var ref *string
	if m.ReferenceID != nil {
		s := m.ReferenceID.String()
		ref = &s
	}
	return dto.StockMovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		Kind:        m.Kind,
		Delta:       m.Delta,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		ReferenceID: ref,
		CreatedAt:   m.CreatedAt,
	}
}
