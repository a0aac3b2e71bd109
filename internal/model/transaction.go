package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TxType string

const (
	TxDeposit  TxType = "DEPOSIT"
	TxPurchase TxType = "PURCHASE"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCard   PaymentMethod = "CARD"
	MethodPix    PaymentMethod = "PIX"
	MethodCredit PaymentMethod = "CREDIT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodPix, MethodCredit:
		return true
	}
	return false
}

// Transaction is one entry of the student ledger. Amount is always positive;
// the sign comes from Type and Method (see BalanceEffect).
// StudentName and item names are snapshots taken at creation.
type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StudentID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	StudentName string          `gorm:"not null"`
	Type        TxType          `gorm:"type:varchar(10);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method      PaymentMethod   `gorm:"type:varchar(10);not null"`
	Description string
	Date        time.Time `gorm:"index;not null"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	return nil
}

// BalanceEffect is the signed contribution of t to its student's balance:
// +amount for deposits, -amount for CREDIT purchases, zero otherwise.
func (t *Transaction) BalanceEffect() decimal.Decimal {
	switch {
	case t.Type == TxDeposit:
		return t.Amount
	case t.Type == TxPurchase && t.Method == MethodCredit:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// TransactionItem freezes what was sold. ProductID is kept even after the
// product is deleted, so there is no foreign key to products.
type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductName   string    `gorm:"not null"`
	Quantity      int       `gorm:"not null"`
}

func (i *TransactionItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
