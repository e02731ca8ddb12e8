package entity

import (
	"math"
	"time"
)

// Evaluation is one review cycle for one employee under one form version.
// The employee block is a snapshot taken at creation time, not a live join
// into the org tables.
type Evaluation struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	Status string `json:"status" gorm:"size:20;not null;default:'draft';index"`

	TemplateID      string `json:"template_id" gorm:"size:36;not null;index"`
	TemplateCode    string `json:"template_code" gorm:"size:50;not null"`
	TemplateVersion int    `json:"template_version" gorm:"not null"`

	// Subject snapshot
	EmployeeID   string `json:"employee_id" gorm:"size:64;not null;index"`
	EmployeeName string `json:"employee_name" gorm:"size:255;not null"`
	UnitCode     string `json:"unit_code" gorm:"size:10"`
	RoleCode     string `json:"role_code" gorm:"size:10"`

	// Evaluator
	EvaluatorID string `json:"evaluator_id" gorm:"size:36;index"`
	ManagerID   string `json:"manager_id" gorm:"size:64"`
	ManagerName string `json:"manager_name" gorm:"size:255"`

	PeriodStart *time.Time `json:"period_start" gorm:"type:date"`
	PeriodEnd   *time.Time `json:"period_end" gorm:"type:date"`

	// Stale-draft handling
	VisibleUntil *time.Time `json:"visible_until"`
	DraftStarted bool       `json:"draft_started" gorm:"default:false"`

	// Display flags copied from the template
	ShowEmployeeSignature bool `json:"show_employee_signature" gorm:"default:false"`
	ShowManagerSignature  bool `json:"show_manager_signature" gorm:"default:false"`
	ShowHRSignature       bool `json:"show_hr_signature" gorm:"default:false"`
	ShowEmployeeComment   bool `json:"show_employee_comment" gorm:"default:false"`
	ShowNextPeriodGoals   bool `json:"show_next_period_goals" gorm:"default:false"`

	EmployeeComment string `json:"employee_comment" gorm:"type:text"`
	NextPeriodGoals string `json:"next_period_goals" gorm:"type:text"`

	// Per-stage flags maintained by the legacy workflow only; the approval
	// chain records signatures instead.
	HRSigned        bool       `json:"hr_signed" gorm:"default:false"`
	ManagerSigned   bool       `json:"manager_signed" gorm:"default:false"`
	FactorySigned   bool       `json:"factory_signed" gorm:"default:false"`
	HRSignedAt      *time.Time `json:"hr_signed_at"`
	ManagerSignedAt *time.Time `json:"manager_signed_at"`
	FactorySignedAt *time.Time `json:"factory_signed_at"`

	FinalScore *float64 `json:"final_score" gorm:"type:decimal(10,2)"`
	MaxScore   *float64 `json:"max_score" gorm:"type:decimal(10,2)"`

	IsArchived bool       `json:"is_archived" gorm:"default:false;index"`
	ArchivedAt *time.Time `json:"archived_at"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ApprovedAt  *time.Time `json:"approved_at"`

	Template   *FormTemplate         `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Items      []EvaluationItem      `json:"items,omitempty" gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
	Signatures []EvaluationSignature `json:"signatures,omitempty" gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// IsComplete reports whether every required item has a selection. Items
// whose criterion has no scoring options are decorative and excluded from
// the requirement. A form with no required items at all is not complete.
func (e *Evaluation) IsComplete() bool {
	required, filled := 0, 0
	for i := range e.Items {
		it := &e.Items[i]
		if it.Criterion == nil || len(it.Criterion.Options) == 0 {
			continue
		}
		required++
		if it.SelectedOptionID != nil {
			filled++
		}
	}
	return required > 0 && filled == required
}

// RecalcScores recomputes final/max score from the item snapshot. Items
// must be loaded with their criterion options.
func (e *Evaluation) RecalcScores() {
	var total, maxTotal float64
	for i := range e.Items {
		it := &e.Items[i]
		weight := it.Weight
		if weight == 0 {
			weight = 1
		}
		if it.SelectedValue != nil {
			total += *it.SelectedValue * weight
		}
		if it.Criterion != nil {
			maxTotal += it.Criterion.MaxOptionValue() * weight
		}
	}
	total = math.Round(total*100) / 100
	maxTotal = math.Round(maxTotal*100) / 100
	e.FinalScore = &total
	e.MaxScore = &maxTotal
}

// HasProgress reports whether any item has been scored yet.
func (e *Evaluation) HasProgress() bool {
	for i := range e.Items {
		if e.Items[i].SelectedOptionID != nil {
			return true
		}
	}
	return false
}

// EvaluationItem is one scored line, bound to a criterion snapshot taken at
// creation time. Items are created in bulk from the template and never
// added or removed afterwards; only the selection changes.
type EvaluationItem struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	EvaluationID string `json:"evaluation_id" gorm:"size:36;not null;index"`

	CriterionID    *string `json:"criterion_id" gorm:"size:36"`
	CriterionOrder int     `json:"criterion_order" gorm:"not null"`
	CriterionTitle string  `json:"criterion_title" gorm:"size:255;not null"`
	Weight         float64 `json:"weight" gorm:"type:decimal(6,2);default:1"`

	SelectedOptionID *string  `json:"selected_option_id" gorm:"size:36"`
	SelectedLabel    string   `json:"selected_label" gorm:"size:255"`
	SelectedValue    *float64 `json:"selected_value" gorm:"type:decimal(10,2)"`
	EarnedPoints     *float64 `json:"earned_points" gorm:"type:decimal(12,2)"`
	Comment          string   `json:"comment" gorm:"type:text"`

	Criterion *FormCriterion `json:"criterion,omitempty" gorm:"foreignKey:CriterionID"`
}

func (EvaluationItem) TableName() string {
	return "evaluation_items"
}

// ApplySelection copies the option snapshot onto the item and derives the
// earned points.
func (it *EvaluationItem) ApplySelection(opt *FormOption) {
	weight := it.Weight
	if weight == 0 {
		weight = 1
	}
	value := opt.Value
	earned := math.Round(value*weight*100) / 100
	it.SelectedOptionID = &opt.ID
	it.SelectedLabel = opt.Label
	it.SelectedValue = &value
	it.EarnedPoints = &earned
}

// EvaluationSignature is the durable record that an approval role acted on
// an evaluation. The (evaluation_id, role) unique index is what makes an
// approval non-repeatable per role; rows are never updated or deleted.
type EvaluationSignature struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	EvaluationID string `json:"evaluation_id" gorm:"size:36;not null;uniqueIndex:idx_signature_eval_role"`
	Role         string `json:"role" gorm:"size:20;not null;uniqueIndex:idx_signature_eval_role"`

	EvaluatorID           string    `json:"evaluator_id" gorm:"size:36;not null"`
	SignedByName          string    `json:"signed_by_name" gorm:"size:150"`
	SignedByPersonnelCode string    `json:"signed_by_personnel_code" gorm:"size:50"`
	SignedAt              time.Time `json:"signed_at" gorm:"autoCreateTime"`
	Comment               string    `json:"comment" gorm:"type:text"`
	IsFinal               bool      `json:"is_final" gorm:"default:false"`
}

func (EvaluationSignature) TableName() string {
	return "evaluation_signatures"
}
