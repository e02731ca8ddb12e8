package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// FormRepository persists form templates with their criteria and options.
type FormRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// FindPublishedByCode returns the latest published version of a form.
func (r *FormRepository) FindPublishedByCode(ctx context.Context, code string) (*entity.FormTemplate, error) {
	var tpl entity.FormTemplate
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Preload("Criteria.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Where("code = ? AND status = ?", code, entity.TemplateStatusPublished).
		Order("version DESC").
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// FindByID loads a template with criteria and options.
func (r *FormRepository) FindByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	var tpl entity.FormTemplate
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Preload("Criteria.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Where("id = ?", id).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// FindAll lists templates, optionally filtered by status.
func (r *FormRepository) FindAll(ctx context.Context, status string) ([]entity.FormTemplate, error) {
	var templates []entity.FormTemplate
	query := r.db.WithContext(ctx).Model(&entity.FormTemplate{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("code, version DESC").Find(&templates).Error
	return templates, err
}

// Create writes the template together with its criteria and options.
func (r *FormRepository) Create(ctx context.Context, tpl *entity.FormTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// UpdateStatus moves a template between Draft/Published/Archived.
func (r *FormRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&entity.FormTemplate{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MaxVersion returns the highest existing version for a form code, 0 when
// the code is new.
func (r *FormRepository) MaxVersion(ctx context.Context, code string) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Model(&entity.FormTemplate{}).
		Where("code = ?", code).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	return version, err
}
