package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Method string          `json:"method" validate:"required,oneof=CASH CARD PIX"`
}

type PurchaseItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0,max=10000"`
}

type PurchaseRequest struct {
	Amount      decimal.Decimal       `json:"amount"      validate:"required,gt=0"`
	Description string                `json:"description" validate:"max=200"`
	Method      string                `json:"method"      validate:"required,oneof=CASH CARD PIX CREDIT"`
	Items       []PurchaseItemRequest `json:"items"       validate:"omitempty,dive"`
}

type UpdateTransactionRequest struct {
	Description string `json:"description" validate:"required,max=200"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type TransactionFilter struct {
	StudentID string     `form:"student_id" validate:"omitempty,uuid"`
	Type      string     `form:"type"       validate:"omitempty,oneof=DEPOSIT PURCHASE"`
	From      *time.Time `form:"from"       time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to"         time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `form:"limit"      validate:"omitempty,min=1,max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type TransactionResponse struct {
	ID          string                    `json:"id"`
	StudentID   string                    `json:"student_id"`
	StudentName string                    `json:"student_name"`
	Type        string                    `json:"type"`
	Amount      decimal.Decimal           `json:"amount"`
	Method      string                    `json:"method"`
	Description string                    `json:"description"`
	Date        time.Time                 `json:"date"`
	Items       []TransactionItemResponse `json:"items"`
}

// LedgerResponse is returned by deposit and purchase: the new transaction
// and the student's balance after it.
type LedgerResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
}
