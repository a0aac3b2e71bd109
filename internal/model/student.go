package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Student holds a prepaid balance. Balance is a cached projection of the
// student's transactions and is only written by the ledger service.
// Deleting a student is a soft delete: history keeps pointing at the row.
type Student struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"index;not null"`
	School    School          `gorm:"type:varchar(20);index;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active    bool            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (s *Student) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
