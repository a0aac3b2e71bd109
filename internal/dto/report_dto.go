package dto

import "github.com/shopspring/decimal"

type UnitMarginResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Tax       decimal.Decimal `json:"tax"`
	Margin    decimal.Decimal `json:"margin"`
}

type SlowMoverResponse struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Stock      int             `json:"stock"`
	UnitsSold  int             `json:"units_sold"`
	StockValue decimal.Decimal `json:"stock_value"`
}

type FinancialReportResponse struct {
	TaxRatePercent  decimal.Decimal      `json:"tax_rate_percent"`
	GrossRevenue    decimal.Decimal      `json:"gross_revenue"`
	CostOfGoodsSold decimal.Decimal      `json:"cost_of_goods_sold"`
	OperationalCost decimal.Decimal      `json:"operational_cost"`
	NetProfit       decimal.Decimal      `json:"net_profit"`
	UnitMargins     []UnitMarginResponse `json:"unit_margins"`
	SlowMovers      []SlowMoverResponse  `json:"slow_movers"`
}

type StockReportResponse struct {
	Products        int             `json:"products"`
	TotalUnits      int             `json:"total_units"`
	StockCost       decimal.Decimal `json:"stock_cost"`
	StockValue      decimal.Decimal `json:"stock_value"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
}

type DashboardResponse struct {
	TotalBalance   decimal.Decimal       `json:"total_balance"`
	TotalSales     decimal.Decimal       `json:"total_sales"`
	ActiveStudents int                   `json:"active_students"`
	Students       int                   `json:"students"`
	Recent         []TransactionResponse `json:"recent"`
}
