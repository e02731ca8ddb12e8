package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories aggregates all persistence gateways.
type Repositories struct {
	User       *UserRepository
	Org        *OrgRepository
	Form       *FormRepository
	Evaluation *EvaluationRepository
}

// NewRepositories creates the repository aggregate.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Org:        NewOrgRepository(db),
		Form:       NewFormRepository(db),
		Evaluation: NewEvaluationRepository(db),
	}
}
