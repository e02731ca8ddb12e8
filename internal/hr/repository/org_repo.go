package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// OrgRepository reads the organizational structure: units, job roles and
// employee profiles.
type OrgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// ProfileByUserID loads the employee profile with user, unit and job role.
func (r *OrgRepository) ProfileByUserID(ctx context.Context, userID string) (*entity.EmployeeProfile, error) {
	var profile entity.EmployeeProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Unit").
		Preload("JobRole").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// ProfileByPersonnelCode loads a profile by the HR personnel code, used by
// the employee import to upsert existing people.
func (r *OrgRepository) ProfileByPersonnelCode(ctx context.Context, code string) (*entity.EmployeeProfile, error) {
	var profile entity.EmployeeProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Unit").
		Preload("JobRole").
		Where("personnel_code = ?", code).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// ProfilesByUnit lists all profiles in a unit.
func (r *OrgRepository) ProfilesByUnit(ctx context.Context, unitCode string) ([]entity.EmployeeProfile, error) {
	var profiles []entity.EmployeeProfile
	err := r.db.WithContext(ctx).
		Joins("JOIN units ON units.id = employee_profiles.unit_id").
		Where("units.unit_code = ?", unitCode).
		Preload("User").
		Preload("Unit").
		Preload("JobRole").
		Find(&profiles).Error
	return profiles, err
}

// SaveProfile creates or updates an employee profile.
func (r *OrgRepository) SaveProfile(ctx context.Context, profile *entity.EmployeeProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// UnitByCode fetches one unit by its code.
func (r *OrgRepository) UnitByCode(ctx context.Context, code string) (*entity.Unit, error) {
	var unit entity.Unit
	err := r.db.WithContext(ctx).Where("unit_code = ?", code).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// SaveUnit creates or updates a unit.
func (r *OrgRepository) SaveUnit(ctx context.Context, unit *entity.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

// JobRoleByCode fetches one job role by its numeric code.
func (r *OrgRepository) JobRoleByCode(ctx context.Context, code string) (*entity.JobRole, error) {
	var role entity.JobRole
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// SaveJobRole creates or updates a job role catalog entry.
func (r *OrgRepository) SaveJobRole(ctx context.Context, role *entity.JobRole) error {
	return r.db.WithContext(ctx).Save(role).Error
}
