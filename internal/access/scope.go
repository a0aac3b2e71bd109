// Package access maps an operator role to the school it may see and narrows
// reads and writes to that school. It is the only place that knows which
// role belongs to which tenant.
package access

import (
	"cantina/internal/apperror"
	"cantina/internal/model"
	"cantina/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleWizard  = "wizard"
	RoleWizKids = "wizkids"
)

var roleSchools = map[string]model.School{
	RoleWizard:  model.SchoolWizard,
	RoleWizKids: model.SchoolWizKids,
}

// Roles lists every role accepted by ScopeFor.
func Roles() []string { return []string{RoleAdmin, RoleWizard, RoleWizKids} }

// Scope is the tenant view of one caller. The zero value denies everything.
type Scope struct {
	role   string
	school model.School
}

// ScopeFor resolves a role. Unknown roles are denied.
func ScopeFor(role string) (Scope, error) {
	if role == RoleAdmin {
		return Scope{role: RoleAdmin}, nil
	}
	if school, ok := roleSchools[role]; ok {
		return Scope{role: role, school: school}, nil
	}
	return Scope{}, apperror.AccessDenied("perfil desconhecido %q", role)
}

// Admin is the unrestricted scope, used by internal jobs and tools.
func Admin() Scope { return Scope{role: RoleAdmin} }

func (s Scope) Role() string { return s.role }

func (s Scope) IsAdmin() bool { return s.role == RoleAdmin }

// School is the caller's tenant; empty for admins.
func (s Scope) School() model.School { return s.school }

func (s Scope) Allows(school model.School) bool {
	if s.IsAdmin() {
		return true
	}
	return s.school != "" && s.school == school
}

// Check fails with AccessDenied when a record of the given school is out of scope.
func (s Scope) Check(kind string, school model.School) error {
	if s.Allows(school) {
		return nil
	}
	return apperror.AccessDenied("%s pertence a outra escola", kind)
}

func (s Scope) RequireAdmin(action string) error {
	if s.IsAdmin() {
		return nil
	}
	return apperror.AccessDenied("somente administradores podem %s", action)
}

// ResolveSchool fixes the tenant tag of a record being created. Non-admins
// always get their own school whatever they asked for; admins get the
// requested school or the default one.
func (s Scope) ResolveSchool(requested model.School) (model.School, error) {
	if !s.IsAdmin() {
		if s.school == "" {
			return "", apperror.AccessDenied("perfil %q sem escola", s.role)
		}
		if requested != "" && requested != s.school {
			log.Warn().
				Str("role", s.role).
				Str("requested", string(requested)).
				Str("assigned", string(s.school)).
				Msg("access: school re-tagged to caller scope")
		}
		return s.school, nil
	}
	if requested == "" {
		return model.DefaultSchool, nil
	}
	if !requested.Valid() {
		return "", apperror.Validation("escola desconhecida %q", requested)
	}
	return requested, nil
}

// CheckSchoolChange guards updates: only admins may move a record between
// schools, and only to a known one. An empty school is not a valid target.
func (s Scope) CheckSchoolChange(current, requested model.School) error {
	if requested == current {
		return nil
	}
	if !s.IsAdmin() {
		return apperror.AccessDenied("somente administradores podem mudar a escola de um registro")
	}
	if !requested.Valid() {
		return apperror.Validation("escola desconhecida %q", requested)
	}
	return nil
}

// AllowsEvent decides whether a change notification may be pushed to this caller.
func (s Scope) AllowsEvent(ev repository.ChangeEvent) bool {
	if ev.Kind == repository.KindSettings {
		return s.role != ""
	}
	return s.Allows(ev.School)
}

func (s Scope) bySchool(column string) repository.QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if s.IsAdmin() {
			return db
		}
		return db.Where(column+" = ?", s.school)
	}
}

func (s Scope) Students() repository.QueryOption { return s.bySchool("school") }

func (s Scope) Products() repository.QueryOption { return s.bySchool("school") }

func (s Scope) Invoices() repository.QueryOption { return s.bySchool("school") }

// Transactions narrows through the owning student's school, soft-deleted
// students included. Transactions whose student cannot be found are never
// visible to a tenant scope.
func (s Scope) Transactions() repository.QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if s.IsAdmin() {
			return db
		}
		return db.Where("student_id IN (SELECT id FROM students WHERE school = ?)", s.school)
	}
}
