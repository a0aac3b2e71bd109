package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type UpdateSettingsRequest struct {
	OperationalTaxRatePercent *decimal.Decimal `json:"operational_tax_rate_percent" validate:"omitempty,gte=0,lte=100"`
}

type SettingsResponse struct {
	OperationalTaxRatePercent decimal.Decimal `json:"operational_tax_rate_percent"`
	UpdatedAt                 *time.Time      `json:"updated_at"`
}
