package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCategory and DefaultMinStock apply when a product is created without them.
const (
	DefaultCategory = "Outros"
	DefaultMinStock = 5
)

// Product is a sellable item. Stock is never edited directly: it moves only
// through purchases, restocks and reversals, each leaving a StockMovement.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"index;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Supplier  string
	Category  string `gorm:"not null"`
	Stock     int    `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	MinStock  int    `gorm:"not null"`
	School    School `gorm:"type:varchar(20);index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}
