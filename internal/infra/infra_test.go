package infra

import (
	"errors"
	"os"
	"testing"
	"time"

	"cantina/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	b := NewBreaker("smtp", BreakerConfig{Threshold: 2, Recovery: 1, Cooldown: 20 * time.Millisecond})
	fail := errors.New("dial tcp: connection refused")

	assert.ErrorIs(t, b.Do(func() error { return fail }), fail)
	assert.Equal(t, BreakerClosed, b.State())
	assert.ErrorIs(t, b.Do(func() error { return fail }), fail)
	assert.Equal(t, BreakerOpen, b.State())

	called := false
	assert.ErrorIs(t, b.Do(func() error { called = true; return nil }), ErrBreakerOpen)
	assert.False(t, called)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, BreakerHalfOpen, b.State())
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("smtp", BreakerConfig{Threshold: 1, Cooldown: 10 * time.Millisecond})
	_ = b.Do(func() error { return errors.New("x") })
	time.Sleep(15 * time.Millisecond)

	_ = b.Do(func() error { return errors.New("still down") })
	assert.Equal(t, BreakerOpen, b.State())
}

func TestGenerateInvoicePDF(t *testing.T) {
	dir := t.TempDir()
	inv := &model.Invoice{
		ID:       uuid.New(),
		Supplier: "Distribuidora São Jorge",
		Number:   "NF-123",
		School:   model.SchoolWizard,
		Date:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []model.InvoiceItem{
			{ProductName: "Pão de queijo", Quantity: 10},
			{ProductName: "Suco de maçã", Quantity: 5},
		},
	}

	path, err := GenerateInvoicePDF(inv, dir)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(""))
	assert.Equal(t, ":memory:", sqliteDSN("sqlite://:memory:"))
	assert.Equal(t, "cantina.db?_busy_timeout=5000&_txlock=immediate", sqliteDSN("sqlite://cantina.db"))
	assert.Equal(t, "file:x.db?cache=shared&_busy_timeout=5000&_txlock=immediate", sqliteDSN("file:x.db?cache=shared"))
	assert.True(t, isPostgresDSN("postgres://u:p@localhost/db"))
	assert.False(t, isPostgresDSN("cantina.db"))
}
