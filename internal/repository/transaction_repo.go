package repository

import (
	"context"
	"time"

	"cantina/internal/apperror"
	"cantina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionFilter struct {
	StudentID *uuid.UUID
	Type      model.TxType
	From      *time.Time
	To        *time.Time
	Limit     int
}

// TransactionRepository defines the data access contract for the ledger log.
// Records are immutable apart from Description; removal happens only as part
// of a reversal.
type TransactionRepository interface {
	// Create inserts t together with its items.
	Create(ctx context.Context, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindByIDForUpdate locks the row so a concurrent reversal of the same
	// transaction waits and then sees it gone.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter TransactionFilter, opts ...QueryOption) ([]model.Transaction, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description string) error
	Delete(ctx context.Context, t *model.Transaction) error
}

type transactionRepo struct {
	db   *gorm.DB
	emit func(ChangeEvent)
}

func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return err
	}
	r.emit(r.event(ctx, t.ID, t.StudentID, OpCreated))
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err, "transacao", id)
	}
	return &t, nil
}

func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err, "transacao", id)
	}
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).Find(&t.Items).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter, opts ...QueryOption) ([]model.Transaction, error) {
	q := applyOptions(r.db.WithContext(ctx).Model(&model.Transaction{}), opts)
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date < ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var txs []model.Transaction
	err := q.Preload("Items").Order("date DESC").Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Select("id", "student_id").Where("id = ?", id).First(&t).Error; err != nil {
		return notFound(err, "transacao", id)
	}
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", id).
		Update("description", description).Error; err != nil {
		return err
	}
	r.emit(r.event(ctx, t.ID, t.StudentID, OpUpdated))
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, t *model.Transaction) error {
	// Resolve the school before the row disappears.
	ev := r.event(ctx, t.ID, t.StudentID, OpDeleted)

	if err := r.db.WithContext(ctx).Where("transaction_id = ?", t.ID).Delete(&model.TransactionItem{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", t.ID).Delete(&model.Transaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("transacao", t.ID)
	}
	r.emit(ev)
	return nil
}

// event tags a transaction change with its student's school, including
// students that have been soft deleted.
func (r *transactionRepo) event(ctx context.Context, id, studentID uuid.UUID, op Op) ChangeEvent {
	var school string
	r.db.WithContext(ctx).Unscoped().Model(&model.Student{}).
		Where("id = ?", studentID).Select("school").Scan(&school)
	return ChangeEvent{Kind: KindTransaction, Op: op, ID: id.String(), School: model.School(school)}
}
