package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name      string          `json:"name"       validate:"required,min=1,max=120"`
	Price     decimal.Decimal `json:"price"      validate:"gte=0"`
	CostPrice decimal.Decimal `json:"cost_price" validate:"gte=0"`
	Supplier  string          `json:"supplier"   validate:"max=120"`
	Category  string          `json:"category"   validate:"max=60"`
	Stock     int             `json:"stock"      validate:"min=0"`
	MinStock  *int            `json:"min_stock"  validate:"omitempty,min=0"`
	School    string          `json:"school"     validate:"omitempty,oneof=Wizard WizKids"`
}

// UpdateProductRequest patches catalogue fields. Stock is not editable here;
// use the restock endpoints.
type UpdateProductRequest struct {
	Name      *string          `json:"name"       validate:"omitempty,min=1,max=120"`
	Price     *decimal.Decimal `json:"price"      validate:"omitempty,gte=0"`
	CostPrice *decimal.Decimal `json:"cost_price" validate:"omitempty,gte=0"`
	Supplier  *string          `json:"supplier"   validate:"omitempty,max=120"`
	Category  *string          `json:"category"   validate:"omitempty,max=60"`
	MinStock  *int             `json:"min_stock"  validate:"omitempty,min=0"`
	School    *string          `json:"school"     validate:"omitempty,oneof=Wizard WizKids"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0,max=10000"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Name         string `form:"name"`
	Category     string `form:"category"`
	LowStockOnly bool   `form:"low_stock"`
}

type StockMovementFilter struct {
	Kind  string `form:"kind"  validate:"omitempty,oneof=initial purchase restock reversal"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Supplier  string          `json:"supplier"`
	Category  string          `json:"category"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"min_stock"`
	LowStock  bool            `json:"low_stock"`
	School    string          `json:"school"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type StockMovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Kind        string    `json:"kind"`
	Delta       int       `json:"delta"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	ReferenceID *string   `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type StockMovementListResponse struct {
	Data       []StockMovementResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}
