// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"cantina/internal/infra"
	"cantina/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := infra.NewDatabase(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// D parses a decimal literal, failing the test on bad input.
func D(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

// SeedStudent inserts a student directly, bypassing the ledger.
func SeedStudent(t testing.TB, db *gorm.DB, name string, school model.School, balance string) *model.Student {
	t.Helper()
	s := &model.Student{Name: name, School: school, Balance: D(t, balance), Active: true}
	require.NoError(t, db.WithContext(context.Background()).Create(s).Error)
	return s
}

// SeedProduct inserts a product directly with the given stock.
func SeedProduct(t testing.TB, db *gorm.DB, name string, school model.School, price, cost string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:      name,
		Price:     D(t, price),
		CostPrice: D(t, cost),
		Category:  model.DefaultCategory,
		Stock:     stock,
		MinStock:  model.DefaultMinStock,
		School:    school,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(p).Error)
	return p
}
