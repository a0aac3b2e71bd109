package report

import (
	"sort"

	"cantina/internal/model"

	"github.com/shopspring/decimal"
)

type StockSummary struct {
	Products        int
	TotalUnits      int
	StockCost       decimal.Decimal
	StockValue      decimal.Decimal
	PotentialProfit decimal.Decimal
	MarginPercent   decimal.Decimal
}

// Stock values the shelf at cost and at sale price.
func Stock(products []model.Product) StockSummary {
	sum := StockSummary{Products: len(products), StockCost: decimal.Zero, StockValue: decimal.Zero}
	for _, p := range products {
		qty := decimal.NewFromInt(int64(p.Stock))
		sum.TotalUnits += p.Stock
		sum.StockCost = sum.StockCost.Add(p.CostPrice.Mul(qty))
		sum.StockValue = sum.StockValue.Add(p.Price.Mul(qty))
	}
	sum.PotentialProfit = sum.StockValue.Sub(sum.StockCost)
	sum.MarginPercent = decimal.Zero
	if sum.StockValue.IsPositive() {
		sum.MarginPercent = sum.PotentialProfit.Div(sum.StockValue).Mul(hundred).Round(2)
	}
	sum.StockCost = sum.StockCost.Round(2)
	sum.StockValue = sum.StockValue.Round(2)
	sum.PotentialProfit = sum.PotentialProfit.Round(2)
	return sum
}

// LowStock returns products at or below their minimum, emptiest first.
func LowStock(products []model.Product) []model.Product {
	var out []model.Product
	for _, p := range products {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type DashboardSummary struct {
	TotalBalance   decimal.Decimal
	TotalSales     decimal.Decimal
	ActiveStudents int
	Students       int
	Recent         []model.Transaction
}

// Dashboard summarises balances and sales. txs must be ordered newest first;
// the first recent entries are returned as the activity feed.
func Dashboard(students []model.Student, txs []model.Transaction, recent int) DashboardSummary {
	d := DashboardSummary{TotalBalance: decimal.Zero, Students: len(students)}
	for _, s := range students {
		d.TotalBalance = d.TotalBalance.Add(s.Balance)
		if s.Active {
			d.ActiveStudents++
		}
	}
	d.TotalBalance = d.TotalBalance.Round(2)
	d.TotalSales = GrossRevenue(txs).Round(2)
	recent = max(0, min(recent, len(txs)))
	d.Recent = txs[:recent]
	return d
}
