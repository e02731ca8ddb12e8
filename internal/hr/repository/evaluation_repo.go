package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// EvaluationRepository persists evaluation documents, their items and
// signatures.
type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// FindByID loads a document with its item snapshot (including criterion
// options, which the completion gate needs) and signatures.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*entity.Evaluation, error) {
	var eval entity.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("criterion_order")
		}).
		Preload("Items.Criterion.Options").
		Preload("Signatures").
		Preload("Template").
		Where("id = ?", id).
		First(&eval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eval, nil
}

// FindAll lists documents with pagination and optional filters.
func (r *EvaluationRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	var items []entity.Evaluation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Evaluation{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if employeeID := filters["employee_id"]; employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	}
	if evaluatorID := filters["evaluator_id"]; evaluatorID != "" {
		query = query.Where("evaluator_id = ?", evaluatorID)
	}
	if unitCode := filters["unit_code"]; unitCode != "" {
		query = query.Where("unit_code = ?", unitCode)
	}
	if formCode := filters["form_code"]; formCode != "" {
		query = query.Where("template_code = ?", formCode)
	}
	if filters["include_archived"] != "true" {
		query = query.Where("is_archived = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// Create writes the document together with its item snapshot.
func (r *EvaluationRepository) Create(ctx context.Context, eval *entity.Evaluation) error {
	return r.db.WithContext(ctx).Create(eval).Error
}

// UpdateFields applies a partial update to the document row.
func (r *EvaluationRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Evaluation{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SaveItem persists a single item's selection.
func (r *EvaluationRepository) SaveItem(ctx context.Context, item *entity.EvaluationItem) error {
	return r.db.WithContext(ctx).Model(item).
		Omit("Criterion").
		Save(item).Error
}

// Approve records the signature and advances the status in one transaction.
//
// The signature insert is a get-or-create keyed on (evaluation_id, role):
// a duplicate approve is a no-op on the signature table. The status update
// is guarded on the expected current status, so a concurrent approve that
// already advanced the document makes this call fail instead of moving the
// status twice.
func (r *EvaluationRepository) Approve(ctx context.Context, sig *entity.EvaluationSignature, from, to approval.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "evaluation_id"}, {Name: "role"}},
			DoNothing: true,
		}).Create(sig).Error; err != nil {
			return fmt.Errorf("create signature: %w", err)
		}

		res := tx.Model(&entity.Evaluation{}).
			Where("id = ? AND status = ?", sig.EvaluationID, string(from)).
			Updates(map[string]interface{}{
				"status":     string(to),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("advance status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: evaluation %s is no longer in status %s", approval.ErrNotAuthorized, sig.EvaluationID, from)
		}
		return nil
	})
}

// SetStatus moves the document between statuses with the same guard as
// Approve but without touching signatures (used by return-for-edit).
func (r *EvaluationRepository) SetStatus(ctx context.Context, evaluationID string, from, to approval.Status) error {
	res := r.db.WithContext(ctx).Model(&entity.Evaluation{}).
		Where("id = ? AND status = ?", evaluationID, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: evaluation %s is no longer in status %s", approval.ErrNotAuthorized, evaluationID, from)
	}
	return nil
}

// HasSignature checks whether the role already signed the document.
func (r *EvaluationRepository) HasSignature(ctx context.Context, evaluationID string, role approval.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EvaluationSignature{}).
		Where("evaluation_id = ? AND role = ?", evaluationID, string(role)).
		Count(&count).Error
	return count > 0, err
}

// ArchiveExpiredDrafts flags drafts whose visibility window has passed.
// Returns the number of archived documents.
func (r *EvaluationRepository) ArchiveExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Evaluation{}).
		Where("status = ? AND is_archived = false AND visible_until IS NOT NULL AND visible_until < ?",
			string(approval.StatusDraft), now).
		Updates(map[string]interface{}{
			"is_archived": true,
			"archived_at": now,
		})
	return res.RowsAffected, res.Error
}
