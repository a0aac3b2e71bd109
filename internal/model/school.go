package model

import "github.com/google/uuid"

// School is the tenant tag carried by students, products and invoices.
type School string

const (
	SchoolWizard  School = "Wizard"
	SchoolWizKids School = "WizKids"
)

// DefaultSchool is used when an admin creates a record without a tag.
const DefaultSchool = SchoolWizard

func (s School) Valid() bool {
	return s == SchoolWizard || s == SchoolWizKids
}

// assignID gives new rows a v4 UUID before insert so every dialect behaves the same.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
