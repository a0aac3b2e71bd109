package service

import (
	"context"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"

	"github.com/shopspring/decimal"
)

type SettingsService interface {
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	Update(ctx context.Context, scope access.Scope, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	store *repository.EntityStore
}

func NewSettingsService(store *repository.EntityStore) SettingsService {
	return &settingsService{store: store}
}

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	st, err := s.store.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return settingsToResponse(st), nil
}

func (s *settingsService) Update(ctx context.Context, scope access.Scope, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if err := scope.RequireAdmin("alterar as configuracoes"); err != nil {
		return nil, err
	}
	if req.OperationalTaxRatePercent == nil {
		return nil, apperror.Validation("operational_tax_rate_percent e obrigatorio")
	}
	rate := req.OperationalTaxRatePercent.Round(2)
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperror.Validation("operational_tax_rate_percent deve estar entre 0 e 100")
	}

	st := model.Settings{OperationalTaxRatePercent: rate}
	if err := s.store.Settings.Save(ctx, &st); err != nil {
		return nil, err
	}
	return settingsToResponse(st), nil
}

func settingsToResponse(st model.Settings) *dto.SettingsResponse {
	resp := &dto.SettingsResponse{OperationalTaxRatePercent: st.OperationalTaxRatePercent}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}
