package service

import (
	"context"
	"strings"

	"cantina/internal/access"
	"cantina/internal/apperror"
	"cantina/internal/dto"
	"cantina/internal/model"
	"cantina/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StudentService interface {
	Create(ctx context.Context, scope access.Scope, req dto.CreateStudentRequest) (*dto.StudentResponse, error)
	List(ctx context.Context, scope access.Scope, filter dto.StudentFilter) ([]dto.StudentResponse, error)
	Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.StudentResponse, error)
	Update(ctx context.Context, scope access.Scope, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	SetActive(ctx context.Context, scope access.Scope, id uuid.UUID, active bool) (*dto.StudentResponse, error)
	Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error
}

type studentService struct {
	store *repository.EntityStore
}

func NewStudentService(store *repository.EntityStore) StudentService {
	return &studentService{store: store}
}

// Create registers a student with a zero balance. Money only enters through
// deposits so the balance always matches the ledger.
func (s *studentService) Create(ctx context.Context, scope access.Scope, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("nome e obrigatorio")
	}
	school, err := scope.ResolveSchool(model.School(req.School))
	if err != nil {
		return nil, err
	}
	st := &model.Student{Name: name, School: school, Balance: decimal.Zero, Active: true}
	if err := s.store.Students.Create(ctx, st); err != nil {
		return nil, err
	}
	return studentToResponse(st), nil
}

func (s *studentService) List(ctx context.Context, scope access.Scope, filter dto.StudentFilter) ([]dto.StudentResponse, error) {
	students, err := s.store.Students.List(ctx, repository.StudentFilter{
		Name:       strings.TrimSpace(filter.Name),
		ActiveOnly: filter.ActiveOnly,
	}, scope.Students())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StudentResponse, len(students))
	for i := range students {
		resp[i] = *studentToResponse(&students[i])
	}
	return resp, nil
}

func (s *studentService) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*dto.StudentResponse, error) {
	st, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return studentToResponse(st), nil
}

func (s *studentService) Update(ctx context.Context, scope access.Scope, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	st, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if school, ok := requestedSchool(req.School); ok {
		if err := scope.CheckSchoolChange(st.School, school); err != nil {
			return nil, err
		}
		st.School = school
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("nome nao pode ser vazio")
		}
		st.Name = name
	}
	if err := s.store.Students.Update(ctx, st); err != nil {
		return nil, err
	}
	return studentToResponse(st), nil
}

// SetActive only toggles visibility in sale-eligible listings; the balance
// and history are untouched.
func (s *studentService) SetActive(ctx context.Context, scope access.Scope, id uuid.UUID, active bool) (*dto.StudentResponse, error) {
	st, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	st.Active = active
	if err := s.store.Students.Update(ctx, st); err != nil {
		return nil, err
	}
	return studentToResponse(st), nil
}

func (s *studentService) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if _, err := s.find(ctx, scope, id); err != nil {
		return err
	}
	return s.store.Students.Delete(ctx, id)
}

func (s *studentService) find(ctx context.Context, scope access.Scope, id uuid.UUID) (*model.Student, error) {
	st, err := s.store.Students.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Check("aluno", st.School); err != nil {
		return nil, err
	}
	return st, nil
}
