package infra

import (
	"fmt"
	"strings"

	"cantina/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens PostgreSQL for postgres:// URLs and key=value DSNs, and
// SQLite for anything else (a file path, "sqlite://path" or ":memory:").
// The schema is migrated before the handle is returned.
func NewDatabase(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if isPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(sqliteDSN(dsn))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if db.Dialector.Name() == "sqlite" {
		// SQLite has a single writer; one connection keeps writers queued
		// in the pool instead of failing with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table, then applies the index patches
// AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. Both dialects accept
// CREATE INDEX IF NOT EXISTS with a WHERE clause.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// transaction history per student, newest first
		`CREATE INDEX IF NOT EXISTS idx_transactions_student_date ON transactions (student_id, date DESC)`,
		// low-stock report and alerts
		`CREATE INDEX IF NOT EXISTS idx_products_low_stock ON products (school) WHERE stock <= min_stock`,
	}
	if db.Dialector.Name() == "postgres" {
		patches = append(patches,
			`DO $$ BEGIN
			  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_transactions_amount_positive') THEN
			    ALTER TABLE transactions ADD CONSTRAINT chk_transactions_amount_positive CHECK (amount > 0);
			  END IF;
			END $$`,
		)
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// sqliteDSN adds a busy timeout and immediate transactions so concurrent
// writers queue on the database lock instead of deadlocking on upgrade.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if dsn == "" || dsn == ":memory:" {
		return ":memory:"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000&_txlock=immediate"
}
