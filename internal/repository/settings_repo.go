package repository

import (
	"context"
	"errors"
	"strconv"

	"cantina/internal/model"

	"gorm.io/gorm"
)

// SettingsRepository reads and writes the singleton settings row.
type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none were saved.
	Get(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
}

type settingsRepo struct {
	db   *gorm.DB
	emit func(ChangeEvent)
}

func (r *settingsRepo) Get(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := r.db.WithContext(ctx).Where("id = ?", model.SettingsID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultSettings(), nil
	}
	return s, err
}

func (r *settingsRepo) Save(ctx context.Context, s *model.Settings) error {
	s.ID = model.SettingsID
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return err
	}
	r.emit(ChangeEvent{Kind: KindSettings, Op: OpUpdated, ID: strconv.Itoa(model.SettingsID)})
	return nil
}
