package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RestockItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0,max=10000"`
}

// InvoiceMeta describes the supplier delivery behind a bulk restock.
type InvoiceMeta struct {
	Supplier string `json:"supplier" validate:"required,min=1,max=120"`
	Number   string `json:"number"   validate:"max=60"`
}

// BulkRestockRequest lines are not validated at bind time: each one is checked
// when applied, so a malformed line shows up in its own result.
type BulkRestockRequest struct {
	Items   []RestockItemRequest `json:"items"   validate:"required,min=1"`
	Invoice *InvoiceMeta         `json:"invoice" validate:"omitempty"`
}

type InvoiceFilter struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// RestockItemResult is the outcome of one bulk restock line. Stock is the
// product's stock after the line was applied.
type RestockItemResult struct {
	ProductID string `json:"product_id"`
	Applied   bool   `json:"applied"`
	Stock     int    `json:"stock,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

// BulkRestockResponse reports every line. When the invoice could not be
// recorded the applied lines still stand and InvoiceError says why.
type BulkRestockResponse struct {
	Applied      int                 `json:"applied"`
	Failed       int                 `json:"failed"`
	Results      []RestockItemResult `json:"results"`
	Invoice      *InvoiceResponse    `json:"invoice,omitempty"`
	InvoiceError string              `json:"invoice_error,omitempty"`
	InvoiceCode  string              `json:"invoice_code,omitempty"`
}

type InvoiceItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type InvoiceResponse struct {
	ID       string                `json:"id"`
	Supplier string                `json:"supplier"`
	Number   string                `json:"number"`
	School   string                `json:"school,omitempty"`
	Date     time.Time             `json:"date"`
	Items    []InvoiceItemResponse `json:"items"`
}
