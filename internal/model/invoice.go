package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice records a supplier delivery applied through a bulk restock.
// Append-only. School is empty when an admin restocked products of both schools.
type Invoice struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Supplier string    `gorm:"not null"`
	Number   string
	School   School    `gorm:"type:varchar(20);index"`
	Date     time.Time `gorm:"index;not null"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	if i.Date.IsZero() {
		i.Date = time.Now().UTC()
	}
	return nil
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null"`
	ProductName string    `gorm:"not null"`
	Quantity    int       `gorm:"not null"`
}

func (i *InvoiceItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
