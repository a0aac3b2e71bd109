package repository

import (
	"context"

	"cantina/internal/apperror"
	"cantina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentFilter struct {
	Name       string
	ActiveOnly bool
}

// StudentRepository defines the data access contract for students.
// Balance is written only through UpdateBalance, by the ledger.
type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Student, error)
	// FindAnyForUpdate also matches deleted students, so a reversal can still
	// settle the balance of a student that was hidden after the fact.
	FindAnyForUpdate(ctx context.Context, id uuid.UUID) (*model.Student, error)
	List(ctx context.Context, filter StudentFilter, opts ...QueryOption) ([]model.Student, error)
	// Update writes name, school and active.
	Update(ctx context.Context, s *model.Student) error
	UpdateBalance(ctx context.Context, s *model.Student) error
	// Delete hides the student; transactions keep referencing it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type studentRepo struct {
	db   *gorm.DB
	emit func(ChangeEvent)
}

func (r *studentRepo) Create(ctx context.Context, s *model.Student) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return err
	}
	r.emit(studentEvent(s, OpCreated))
	return nil
}

func (r *studentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "aluno", id)
	}
	return &s, nil
}

func (r *studentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "aluno", id)
	}
	return &s, nil
}

func (r *studentRepo) FindAnyForUpdate(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	if err := forUpdate(r.db.WithContext(ctx).Unscoped()).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "aluno", id)
	}
	return &s, nil
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter, opts ...QueryOption) ([]model.Student, error) {
	q := applyOptions(r.db.WithContext(ctx).Model(&model.Student{}), opts)
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	var students []model.Student
	err := q.Order("name ASC").Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, s *model.Student) error {
	res := r.db.WithContext(ctx).Model(&model.Student{}).Where("id = ?", s.ID).Updates(map[string]any{
		"name":   s.Name,
		"school": s.School,
		"active": s.Active,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("aluno", s.ID)
	}
	r.emit(studentEvent(s, OpUpdated))
	return nil
}

func (r *studentRepo) UpdateBalance(ctx context.Context, s *model.Student) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Student{}).Where("id = ?", s.ID).
		Update("balance", s.Balance.Round(2))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("aluno", s.ID)
	}
	r.emit(studentEvent(s, OpUpdated))
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var s model.Student
	if err := r.db.WithContext(ctx).Select("id", "school").Where("id = ?", id).First(&s).Error; err != nil {
		return notFound(err, "aluno", id)
	}
	if err := r.db.WithContext(ctx).Delete(&s).Error; err != nil {
		return err
	}
	r.emit(studentEvent(&s, OpDeleted))
	return nil
}

func studentEvent(s *model.Student, op Op) ChangeEvent {
	return ChangeEvent{Kind: KindStudent, Op: op, ID: s.ID.String(), School: s.School}
}
