package service

import (
	"context"
	"math"
	"strings"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"

	"github.com/google/uuid"
)

type ProductService interface {
	Create(ctx context.Context, scope access.Scope, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context, scope access.Scope, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.ProductResponse, error)
	Update(ctx context.Context, scope access.Scope, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error
	Movements(ctx context.Context, scope access.Scope, id uuid.UUID, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
}

type productService struct {
	store *repository.EntityStore
}

func NewProductService(store *repository.EntityStore) ProductService {
	return &productService{store: store}
}

func (s *productService) Create(ctx context.Context, scope access.Scope, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("nome e obrigatorio")
	}
	price, err := nonNegativeAmount("price", req.Price)
	if err != nil {
		return nil, err
	}
	cost, err := nonNegativeAmount("cost_price", req.CostPrice)
	if err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("estoque nao pode ser negativo")
	}
	school, err := scope.ResolveSchool(model.School(req.School))
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:      name,
		Price:     price,
		CostPrice: cost,
		Supplier:  strings.TrimSpace(req.Supplier),
		Category:  strings.TrimSpace(req.Category),
		Stock:     req.Stock,
		MinStock:  model.DefaultMinStock,
		School:    school,
	}
	if p.Category == "" {
		p.Category = model.DefaultCategory
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return nil, apperror.Validation("min_stock nao pode ser negativo")
		}
		p.MinStock = *req.MinStock
	}

	err = s.store.Atomic(ctx, func(tx *repository.EntityStore) error {
		if err := tx.Products.Create(ctx, p); err != nil {
			return err
		}
		if p.Stock == 0 {
			return nil
		}
		return tx.Movements.Create(ctx, &model.StockMovement{
			ProductID:   p.ID,
			Kind:        model.MovementInitial,
			Delta:       p.Stock,
			StockBefore: 0,
			StockAfter:  p.Stock,
		})
	})
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, scope access.Scope, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.store.Products.List(ctx, repository.ProductFilter{
		Name:         strings.TrimSpace(filter.Name),
		Category:     strings.TrimSpace(filter.Category),
		LowStockOnly: filter.LowStockOnly,
	}, scope.Products())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = *productToResponse(&products[i])
	}
	return resp, nil
}

func (s *productService) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Update(ctx context.Context, scope access.Scope, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if school, ok := requestedSchool(req.School); ok {
		if err := scope.CheckSchoolChange(p.School, school); err != nil {
			return nil, err
		}
		p.School = school
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("nome nao pode ser vazio")
		}
		p.Name = name
	}
	if req.Price != nil {
		if p.Price, err = nonNegativeAmount("price", *req.Price); err != nil {
			return nil, err
		}
	}
	if req.CostPrice != nil {
		if p.CostPrice, err = nonNegativeAmount("cost_price", *req.CostPrice); err != nil {
			return nil, err
		}
	}
	if req.Supplier != nil {
		p.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
		if p.Category == "" {
			p.Category = model.DefaultCategory
		}
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return nil, apperror.Validation("min_stock nao pode ser negativo")
		}
		p.MinStock = *req.MinStock
	}
	if err := s.store.Products.Update(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

// Delete removes the product for good. Past transactions and invoices keep
// its id and name snapshot.
func (s *productService) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if _, err := s.find(ctx, scope, id); err != nil {
		return err
	}
	return s.store.Products.Delete(ctx, id)
}

func (s *productService) Movements(ctx context.Context, scope access.Scope, id uuid.UUID, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	movements, total, err := s.store.Movements.List(ctx, repository.StockMovementFilter{
		ProductID: &id,
		Kind:      filter.Kind,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockMovementResponse, len(movements))
	for i := range movements {
		data[i] = movementToResponse(&movements[i])
	}
	return &dto.StockMovementListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productService) find(ctx context.Context, scope access.Scope, id uuid.UUID) (*model.Product, error) {
	p, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Check("produto", p.School); err != nil {
		return nil, err
	}
	return p, nil
}
