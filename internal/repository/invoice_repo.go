package repository

import (
	"context"

	"cantina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, limit int, opts ...QueryOption) ([]model.Invoice, error)
}

type invoiceRepo struct {
	db   *gorm.DB
	emit func(ChangeEvent)
}

func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return err
	}
	r.emit(ChangeEvent{Kind: KindInvoice, Op: OpCreated, ID: inv.ID.String(), School: inv.School})
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, notFound(err, "nota", id)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, limit int, opts ...QueryOption) ([]model.Invoice, error) {
	q := applyOptions(r.db.WithContext(ctx).Model(&model.Invoice{}), opts)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var invoices []model.Invoice
	err := q.Preload("Items").Order("date DESC").Find(&invoices).Error
	return invoices, err
}
