// Package report derives read-only metrics from a snapshot of products,
// students and transactions. Callers pass data already narrowed to the
// requesting scope; nothing here touches the database.
package report

import (
	"sort"

	"cantina/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type UnitMargin struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	CostPrice decimal.Decimal
	Tax       decimal.Decimal
	Margin    decimal.Decimal
}

type SlowMover struct {
	ProductID  uuid.UUID
	Name       string
	Stock      int
	UnitsSold  int
	StockValue decimal.Decimal
}

type Financial struct {
	TaxRatePercent  decimal.Decimal
	GrossRevenue    decimal.Decimal
	CostOfGoodsSold decimal.Decimal
	OperationalCost decimal.Decimal
	NetProfit       decimal.Decimal
	UnitMargins     []UnitMargin
	SlowMovers      []SlowMover
}

// Financials computes revenue, cost and profit figures. taxRatePercent is
// the operational tax rate as a percentage (15 means 15%).
func Financials(products []model.Product, txs []model.Transaction, taxRatePercent decimal.Decimal) Financial {
	rate := taxRatePercent.Div(hundred)
	gross := GrossRevenue(txs)
	cogs := CostOfGoodsSold(products, txs)
	opCost := gross.Mul(rate)

	return Financial{
		TaxRatePercent:  taxRatePercent,
		GrossRevenue:    gross.Round(2),
		CostOfGoodsSold: cogs.Round(2),
		OperationalCost: opCost.Round(2),
		NetProfit:       gross.Sub(cogs).Sub(opCost).Round(2),
		UnitMargins:     UnitMarginRanking(products, rate),
		SlowMovers:      SlowMoving(products, txs),
	}
}

// GrossRevenue sums purchase amounts, whatever the payment method.
func GrossRevenue(txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type == model.TxPurchase {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CostOfGoodsSold values every sold item at the product's current cost.
// Items of deleted products contribute nothing.
func CostOfGoodsSold(products []model.Product, txs []model.Transaction) decimal.Decimal {
	cost := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		cost[p.ID] = p.CostPrice
	}
	total := decimal.Zero
	for _, t := range txs {
		if t.Type != model.TxPurchase {
			continue
		}
		for _, it := range t.Items {
			if c, ok := cost[it.ProductID]; ok {
				total = total.Add(c.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
		}
	}
	return total
}

// UnitMarginRanking orders products by price - cost - price*rate, best first.
// rate is a fraction. Ties are broken by name.
func UnitMarginRanking(products []model.Product, rate decimal.Decimal) []UnitMargin {
	out := make([]UnitMargin, 0, len(products))
	for _, p := range products {
		tax := p.Price.Mul(rate)
		out = append(out, UnitMargin{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			CostPrice: p.CostPrice,
			Tax:       tax.Round(2),
			Margin:    p.Price.Sub(p.CostPrice).Sub(tax).Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Margin.Cmp(out[j].Margin); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SlowMoving ranks products holding stock by units sold, fewest first, with
// ties going to the larger tied-up stock value (stock * price). Products
// without stock or without stock value are left out.
func SlowMoving(products []model.Product, txs []model.Transaction) []SlowMover {
	sold := unitsSold(txs)
	out := make([]SlowMover, 0, len(products))
	for _, p := range products {
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
		if p.Stock <= 0 || !value.IsPositive() {
			continue
		}
		out = append(out, SlowMover{
			ProductID:  p.ID,
			Name:       p.Name,
			Stock:      p.Stock,
			UnitsSold:  sold[p.ID],
			StockValue: value.Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold < out[j].UnitsSold
		}
		if c := out[i].StockValue.Cmp(out[j].StockValue); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func unitsSold(txs []model.Transaction) map[uuid.UUID]int {
	sold := make(map[uuid.UUID]int)
	for _, t := range txs {
		if t.Type != model.TxPurchase {
			continue
		}
		for _, it := range t.Items {
			sold[it.ProductID] += it.Quantity
		}
	}
	return sold
}
