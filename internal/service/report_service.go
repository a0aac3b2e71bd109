package service

import (
	"context"

	"cantina/internal/access"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/report"
	"cantina/internal/repository"
)

// dashboardRecent is how many transactions the dashboard feed shows.
const dashboardRecent = 5

// ReportService loads a scoped snapshot and hands it to the report package.
type ReportService interface {
	Financial(ctx context.Context, scope access.Scope) (*dto.FinancialReportResponse, error)
	Stock(ctx context.Context, scope access.Scope) (*dto.StockReportResponse, error)
	Dashboard(ctx context.Context, scope access.Scope) (*dto.DashboardResponse, error)
	LowStock(ctx context.Context, scope access.Scope) ([]dto.ProductResponse, error)
}

type reportService struct {
	store *repository.EntityStore
}

func NewReportService(store *repository.EntityStore) ReportService {
	return &reportService{store: store}
}

func (s *reportService) Financial(ctx context.Context, scope access.Scope) (*dto.FinancialReportResponse, error) {
	settings, err := s.store.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products(ctx, scope)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions.List(ctx, repository.TransactionFilter{Type: model.TxPurchase}, scope.Transactions())
	if err != nil {
		return nil, err
	}

	f := report.Financials(products, txs, settings.OperationalTaxRatePercent)
	resp := &dto.FinancialReportResponse{
		TaxRatePercent:  f.TaxRatePercent,
		GrossRevenue:    f.GrossRevenue,
		CostOfGoodsSold: f.CostOfGoodsSold,
		OperationalCost: f.OperationalCost,
		NetProfit:       f.NetProfit,
		UnitMargins:     make([]dto.UnitMarginResponse, len(f.UnitMargins)),
		SlowMovers:      make([]dto.SlowMoverResponse, len(f.SlowMovers)),
	}
	for i, m := range f.UnitMargins {
		resp.UnitMargins[i] = dto.UnitMarginResponse{
			ProductID: m.ProductID.String(),
			Name:      m.Name,
			Price:     m.Price,
			CostPrice: m.CostPrice,
			Tax:       m.Tax,
			Margin:    m.Margin,
		}
	}
	for i, m := range f.SlowMovers {
		resp.SlowMovers[i] = dto.SlowMoverResponse{
			ProductID:  m.ProductID.String(),
			Name:       m.Name,
			Stock:      m.Stock,
			UnitsSold:  m.UnitsSold,
			StockValue: m.StockValue,
		}
	}
	return resp, nil
}

func (s *reportService) Stock(ctx context.Context, scope access.Scope) (*dto.StockReportResponse, error) {
	products, err := s.products(ctx, scope)
	if err != nil {
		return nil, err
	}
	sum := report.Stock(products)
	return &dto.StockReportResponse{
		Products:        sum.Products,
		TotalUnits:      sum.TotalUnits,
		StockCost:       sum.StockCost,
		StockValue:      sum.StockValue,
		PotentialProfit: sum.PotentialProfit,
		MarginPercent:   sum.MarginPercent,
	}, nil
}

func (s *reportService) Dashboard(ctx context.Context, scope access.Scope) (*dto.DashboardResponse, error) {
	students, err := s.store.Students.List(ctx, repository.StudentFilter{}, scope.Students())
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions.List(ctx, repository.TransactionFilter{}, scope.Transactions())
	if err != nil {
		return nil, err
	}

	d := report.Dashboard(students, txs, dashboardRecent)
	resp := &dto.DashboardResponse{
		TotalBalance:   d.TotalBalance,
		TotalSales:     d.TotalSales,
		ActiveStudents: d.ActiveStudents,
		Students:       d.Students,
		Recent:         make([]dto.TransactionResponse, len(d.Recent)),
	}
	for i := range d.Recent {
		resp.Recent[i] = transactionToResponse(&d.Recent[i])
	}
	return resp, nil
}

func (s *reportService) LowStock(ctx context.Context, scope access.Scope) ([]dto.ProductResponse, error) {
	products, err := s.products(ctx, scope)
	if err != nil {
		return nil, err
	}
	low := report.LowStock(products)
	resp := make([]dto.ProductResponse, len(low))
	for i := range low {
		resp[i] = *productToResponse(&low[i])
	}
	return resp, nil
}

func (s *reportService) products(ctx context.Context, scope access.Scope) ([]model.Product, error) {
	return s.store.Products.List(ctx, repository.ProductFilter{}, scope.Products())
}
