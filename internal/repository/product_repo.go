package repository

import (
	"context"
	"errors"
	"sort"

	"cantina/internal/apperror"
	"cantina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Name         string
	Category     string
	LowStockOnly bool
}

// ProductRepository defines the data access contract for products.
// Stock is never part of Update; it moves only through AdjustStock.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDsForUpdate locks the given rows in ascending id order so
	// concurrent multi-product writers cannot deadlock. Missing ids are
	// simply absent from the result.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	List(ctx context.Context, filter ProductFilter, opts ...QueryOption) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustStock adds delta to p's stock and refreshes p.Stock.
	// Returns ErrStockGuard when the row is gone or stock would go negative.
	AdjustStock(ctx context.Context, p *model.Product, delta int) error
}

type productRepo struct {
	db   *gorm.DB
	emit func(ChangeEvent)
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	r.emit(productEvent(p, OpCreated))
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "produto", id)
	}
	return &p, nil
}

func (r *productRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	sorted := uniqueSorted(ids)
	out := make(map[uuid.UUID]*model.Product, len(sorted))
	for _, id := range sorted {
		var p model.Product
		err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = &p
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter, opts ...QueryOption) ([]model.Product, error) {
	q := applyOptions(r.db.WithContext(ctx).Model(&model.Product{}), opts)
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStockOnly {
		q = q.Where("stock <= min_stock")
	}
	var products []model.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":       p.Name,
		"price":      p.Price,
		"cost_price": p.CostPrice,
		"supplier":   p.Supplier,
		"category":   p.Category,
		"min_stock":  p.MinStock,
		"school":     p.School,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("produto", p.ID)
	}
	r.emit(productEvent(p, OpUpdated))
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var p model.Product
	if err := r.db.WithContext(ctx).Select("id", "school").Where("id = ?", id).First(&p).Error; err != nil {
		return notFound(err, "produto", id)
	}
	if err := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id).Error; err != nil {
		return err
	}
	r.emit(productEvent(&p, OpDeleted))
	return nil
}

func (r *productRepo) AdjustStock(ctx context.Context, p *model.Product, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", p.ID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuard
	}
	p.Stock += delta
	r.emit(productEvent(p, OpUpdated))
	return nil
}

func productEvent(p *model.Product, op Op) ChangeEvent {
	return ChangeEvent{Kind: KindProduct, Op: op, ID: p.ID.String(), School: p.School}
}

func uniqueSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
