package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateStudentRequest struct {
	Name   string `json:"name"   validate:"required,min=1,max=120"`
	School string `json:"school" validate:"omitempty,oneof=Wizard WizKids"`
}

type UpdateStudentRequest struct {
	Name   *string `json:"name"   validate:"omitempty,min=1,max=120"`
	School *string `json:"school" validate:"omitempty,oneof=Wizard WizKids"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type StudentFilter struct {
	Name       string `form:"name"`
	ActiveOnly bool   `form:"active_only"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StudentResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	School    string          `json:"school"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}
