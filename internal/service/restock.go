package service

import (
	"context"
	"strings"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"
	"cantina/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (s *ledgerService) Restock(ctx context.Context, scope access.Scope, productID uuid.UUID, quantity int) (*dto.ProductResponse, error) {
	p, err := s.restockOne(ctx, scope, productID, quantity, nil)
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

// restockOne adds quantity to one product in its own atomic unit.
func (s *ledgerService) restockOne(ctx context.Context, scope access.Scope, productID uuid.UUID, quantity int, ref *uuid.UUID) (*model.Product, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantidade deve ser um inteiro positivo")
	}
	if quantity > maxLineQuantity {
		return nil, apperror.Validation("quantidade excede o limite de %d", maxLineQuantity)
	}
	var product *model.Product
	err := s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		products, err := tx.Products.FindByIDsForUpdate(ctx, []uuid.UUID{productID})
		if err != nil {
			return err
		}
		p, ok := products[productID]
		if !ok {
			return apperror.NotFound("produto", productID)
		}
		if err := scope.Check("produto", p.School); err != nil {
			return err
		}
		if err := moveStock(ctx, tx, p, quantity, model.MovementRestock, ref); err != nil {
			return err
		}
		product = p
		return nil
	})
	return product, err
}

// invoiceFailureMessage is reported when the invoice insert fails for a
// reason that is not a business error.
const invoiceFailureMessage = "nota de entrada nao registrada; os itens aplicados foram mantidos"

// BulkRestock applies every line independently: a failing line is reported
// and the others still go through. When invoice metadata is given and at
// least one line applied, one invoice records what was actually added.
func (s *ledgerService) BulkRestock(ctx context.Context, scope access.Scope, req dto.BulkRestockRequest) (*dto.BulkRestockResponse, error) {
	if len(req.Items) == 0 {
		return nil, apperror.Validation("informe ao menos um item")
	}
	var meta *dto.InvoiceMeta
	if req.Invoice != nil {
		m := dto.InvoiceMeta{
			Supplier: strings.TrimSpace(req.Invoice.Supplier),
			Number:   strings.TrimSpace(req.Invoice.Number),
		}
		if m.Supplier == "" {
			return nil, apperror.Validation("fornecedor da nota e obrigatorio")
		}
		meta = &m
	}

	// The invoice id is fixed up front so stock movements can point at it.
	var invoiceID *uuid.UUID
	if meta != nil {
		id := uuid.New()
		invoiceID = &id
	}

	resp := &dto.BulkRestockResponse{Results: make([]dto.RestockItemResult, 0, len(req.Items))}
	var applied []*model.Product
	var quantities []int
	for _, item := range req.Items {
		result := dto.RestockItemResult{ProductID: item.ProductID}
		p, err := s.restockLine(ctx, scope, item, invoiceID)
		if err != nil {
			result.Error = err.Error()
			result.Code = string(apperror.CodeOf(err))
			resp.Failed++
			log.Warn().Err(err).Str("product_id", item.ProductID).Msg("restock: line not applied")
		} else {
			result.Applied = true
			result.Stock = p.Stock
			resp.Applied++
			applied = append(applied, p)
			quantities = append(quantities, item.Quantity)
		}
		resp.Results = append(resp.Results, result)
	}

	if meta == nil || len(applied) == 0 {
		return resp, nil
	}

	inv := &model.Invoice{
		ID:       *invoiceID,
		Supplier: meta.Supplier,
		Number:   meta.Number,
		School:   invoiceSchool(scope, applied),
	}
	for i, p := range applied {
		inv.Items = append(inv.Items, model.InvoiceItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    quantities[i],
		})
	}
	err := s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		return tx.Invoices.Create(ctx, inv)
	})
	if err != nil {
		// Stock is already in; the line results stand.
		log.Error().Err(err).Str("invoice_id", inv.ID.String()).Int("applied", resp.Applied).
			Msg("restock: invoice not recorded")
		resp.InvoiceCode = string(apperror.CodeOf(err))
		resp.InvoiceError = invoiceFailureMessage
		if resp.InvoiceCode != "" {
			resp.InvoiceError = err.Error()
		}
		return resp, nil
	}
	resp.Invoice = invoiceToResponse(inv)
	s.enqueueInvoicePDF(ctx, inv.ID)
	return resp, nil
}

func (s *ledgerService) restockLine(ctx context.Context, scope access.Scope, item dto.RestockItemRequest, ref *uuid.UUID) (*model.Product, error) {
	id, err := parseID("produto", item.ProductID)
	if err != nil {
		return nil, err
	}
	return s.restockOne(ctx, scope, id, item.Quantity, ref)
}

// invoiceSchool tags the invoice with the caller's school, or for admins with
// the school shared by every restocked product (empty when mixed).
func invoiceSchool(scope access.Scope, products []*model.Product) model.School {
	if !scope.IsAdmin() {
		return scope.School()
	}
	school := products[0].School
	for _, p := range products[1:] {
		if p.School != school {
			return ""
		}
	}
	return school
}

func (s *ledgerService) ListInvoices(ctx context.Context, scope access.Scope, limit int) ([]dto.InvoiceResponse, error) {
	invoices, err := s.store.Invoices.List(ctx, limit, scope.Invoices())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		resp[i] = *invoiceToResponse(&invoices[i])
	}
	return resp, nil
}

func (s *ledgerService) enqueueInvoicePDF(ctx context.Context, id uuid.UUID) {
	if s.jobs == nil {
		return
	}
	err := s.jobs.EnqueueInvoicePDF(context.WithoutCancel(ctx), worker.InvoicePDFPayload{InvoiceID: id.String()})
	if err != nil {
		log.Warn().Err(err).Str("invoice_id", id.String()).Msg("restock: failed to enqueue invoice pdf")
	}
}
