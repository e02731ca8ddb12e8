package entity

import "time"

// Form template statuses
const (
	TemplateStatusDraft     = "Draft"
	TemplateStatusPublished = "Published"
	TemplateStatusArchived  = "Archived"
)

// FormTemplate is a versioned scoring form (e.g. HR-F-84 v2). Once a
// version has evaluations, its criteria are treated as frozen; changes go
// into a new version.
type FormTemplate struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	Code        string `json:"code" gorm:"size:50;not null;uniqueIndex:idx_form_code_version"`
	Version     int    `json:"version" gorm:"not null;default:1;uniqueIndex:idx_form_code_version"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"size:10;not null;default:'Draft'"`

	// Display flags copied onto each evaluation at creation time.
	ShowEmployeeSignature bool `json:"show_employee_signature" gorm:"default:false"`
	ShowManagerSignature  bool `json:"show_manager_signature" gorm:"default:false"`
	ShowHRSignature       bool `json:"show_hr_signature" gorm:"default:false"`
	ShowEmployeeComment   bool `json:"show_employee_comment" gorm:"default:false"`
	ShowNextPeriodGoals   bool `json:"show_next_period_goals" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Criteria []FormCriterion `json:"criteria,omitempty" gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}

// FormCriterion is one scored line of a form template.
type FormCriterion struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	TemplateID  string  `json:"template_id" gorm:"size:36;not null;index"`
	Order       int     `json:"order" gorm:"column:sort_order;not null"`
	Title       string  `json:"title" gorm:"size:255;not null"`
	Description string  `json:"description" gorm:"type:text"`
	Weight      float64 `json:"weight" gorm:"type:decimal(6,2);default:1"`

	Options []FormOption `json:"options,omitempty" gorm:"foreignKey:CriterionID;constraint:OnDelete:CASCADE"`
}

func (FormCriterion) TableName() string {
	return "form_criteria"
}

// MaxOptionValue returns the highest option value, 0 for decorative
// criteria without options.
func (c *FormCriterion) MaxOptionValue() float64 {
	var max float64
	for _, o := range c.Options {
		if o.Value > max {
			max = o.Value
		}
	}
	return max
}

// FormOption is one selectable answer for a criterion.
type FormOption struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	CriterionID string  `json:"criterion_id" gorm:"size:36;not null;index"`
	Order       int     `json:"order" gorm:"column:sort_order;not null"`
	Label       string  `json:"label" gorm:"size:255;not null"`
	Value       float64 `json:"value" gorm:"type:decimal(10,2);not null"`
}

func (FormOption) TableName() string {
	return "form_options"
}
