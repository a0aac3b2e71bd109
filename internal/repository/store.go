package repository

import (
	"context"
	"errors"
	"time"

	"cantina/internal/apperror"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockGuard is returned by AdjustStock when the row is missing or the
// change would take stock below zero.
var ErrStockGuard = errors.New("stock guard rejected update")

// EntityStore groups the repositories over one database handle. Repositories
// obtained from the store passed to an Atomic callback share that unit's
// transaction; change events they produce are held back until commit.
type EntityStore struct {
	db      *gorm.DB
	bus     *changeBus
	retry   RetryPolicy
	pending *[]ChangeEvent
	closers []func() error

	Students     StudentRepository
	Products     ProductRepository
	Transactions TransactionRepository
	Invoices     InvoiceRepository
	Settings     SettingsRepository
	Movements    StockMovementRepository
	Users        UserRepository
}

type Option func(*EntityStore)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *EntityStore) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		s.retry = p
	}
}

func NewEntityStore(db *gorm.DB, opts ...Option) *EntityStore {
	s := &EntityStore{db: db, bus: newChangeBus(), retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	s.bind(db)
	return s
}

func (s *EntityStore) bind(db *gorm.DB) {
	s.Students = &studentRepo{db: db, emit: s.emit}
	s.Products = &productRepo{db: db, emit: s.emit}
	s.Transactions = &transactionRepo{db: db, emit: s.emit}
	s.Invoices = &invoiceRepo{db: db, emit: s.emit}
	s.Settings = &settingsRepo{db: db, emit: s.emit}
	s.Movements = &stockMovementRepo{db: db}
	s.Users = &userRepo{db: db}
}

// DB exposes the underlying handle (a transaction inside Atomic).
func (s *EntityStore) DB() *gorm.DB { return s.db }

// Atomic runs fn inside one database transaction. Write conflicts are retried
// up to the configured budget, after which ConcurrencyError is returned.
// Calling Atomic on a store that is already transactional just runs fn.
func (s *EntityStore) Atomic(ctx context.Context, fn func(tx *EntityStore) error) error {
	if s.pending != nil {
		return fn(s)
	}

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		var pending []ChangeEvent
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			scoped := &EntityStore{db: tx, bus: s.bus, retry: s.retry, pending: &pending}
			scoped.bind(tx)
			return fn(scoped)
		})
		if err == nil {
			s.bus.publish(pending...)
			return nil
		}
		if !IsContention(err) {
			return err
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("store: write conflict, retrying")

		if attempt < s.retry.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retry.delay(attempt)):
			}
		}
	}
	return apperror.Concurrency(s.retry.MaxAttempts, lastErr)
}

// Subscribe registers fn for committed changes of the given kind (or KindAny).
// The returned func removes the subscription; calling it twice is harmless.
func (s *EntityStore) Subscribe(kind Kind, fn Listener) func() {
	return s.bus.subscribe(kind, fn)
}

// OnClose registers a teardown step run by Close in reverse order.
func (s *EntityStore) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close runs the registered teardown steps, then closes the SQL pool.
func (s *EntityStore) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *EntityStore) emit(ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if s.pending != nil {
		*s.pending = append(*s.pending, ev)
		return
	}
	s.bus.publish(ev)
}

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks (SQLite)
// drop the clause and rely on their database-level write lock.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound converts gorm.ErrRecordNotFound into the business NotFound error.
func notFound(err error, kind string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(kind, id)
	}
	return err
}

// QueryOption narrows a list query, typically to a caller's tenant scope.
type QueryOption func(*gorm.DB) *gorm.DB

func applyOptions(q *gorm.DB, opts []QueryOption) *gorm.DB {
	for _, opt := range opts {
		if opt != nil {
			q = opt(q)
		}
	}
	return q
}
