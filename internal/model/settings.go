package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// DefaultOperationalTaxRate is the percentage applied when no settings row exists yet.
var DefaultOperationalTaxRate = decimal.NewFromInt(15)

type Settings struct {
	ID                        uint            `gorm:"primaryKey"`
	OperationalTaxRatePercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	UpdatedAt                 time.Time
}

func DefaultSettings() Settings {
	return Settings{ID: SettingsID, OperationalTaxRatePercent: DefaultOperationalTaxRate}
}

// TaxRate returns the percentage as a fraction (15 -> 0.15).
func (s Settings) TaxRate() decimal.Decimal {
	return s.OperationalTaxRatePercent.Div(decimal.NewFromInt(100))
}
