package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// ErrNotEligible is returned when the evaluator/subject/form combination
// fails the eligibility rules.
var ErrNotEligible = errors.New("evaluator is not eligible for this subject and form")

// ErrEvaluationLocked is returned when a write hits a document that has
// left draft.
var ErrEvaluationLocked = errors.New("evaluation is no longer editable")

// EvaluationStore is the persistence surface of the evaluation lifecycle.
type EvaluationStore interface {
	Create(ctx context.Context, eval *entity.Evaluation) error
	FindByID(ctx context.Context, id string) (*entity.Evaluation, error)
	FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	SaveItem(ctx context.Context, item *entity.EvaluationItem) error
	SetStatus(ctx context.Context, evaluationID string, from, to approval.Status) error
	ArchiveExpiredDrafts(ctx context.Context, now time.Time) (int64, error)
}

// FormStore loads published form templates.
type FormStore interface {
	FindPublishedByCode(ctx context.Context, code string) (*entity.FormTemplate, error)
}

// EvaluationService owns the evaluation lifecycle from creation through
// submission; approvals are WorkflowService territory.
type EvaluationService struct {
	catalog     *catalog.Catalog
	store       EvaluationStore
	forms       FormStore
	org         OrgDirectory
	permissions *PermissionService
	logger      *zap.Logger
}

func NewEvaluationService(cat *catalog.Catalog, store EvaluationStore, forms FormStore, org OrgDirectory, permissions *PermissionService, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		catalog:     cat,
		store:       store,
		forms:       forms,
		org:         org,
		permissions: permissions,
		logger:      logger,
	}
}

// CreateInput is the request to open a new evaluation.
type CreateInput struct {
	EvaluatorID string
	SubjectID   string
	FormCode    string // empty means the subject's default form
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// Create opens a draft evaluation: checks eligibility, loads the latest
// published form version and snapshots its criteria into items. The draft
// stays visible for one month before the archive sweep may claim it.
func (s *EvaluationService) Create(ctx context.Context, in CreateInput) (*entity.Evaluation, error) {
	subject, err := s.org.Profile(ctx, in.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	evaluator, err := s.org.Profile(ctx, in.EvaluatorID)
	if err != nil {
		return nil, fmt.Errorf("load evaluator: %w", err)
	}

	formCode := catalog.NormalizeFormCode(in.FormCode)
	if formCode == "" {
		formCode, err = s.permissions.DefaultForm(ctx, in.SubjectID)
		if err != nil {
			return nil, err
		}
		if formCode == "" {
			return nil, fmt.Errorf("%w: subject role has no evaluation form", ErrNotEligible)
		}
	}

	if !s.permissions.canEvaluateProfiles(evaluator, subject, formCode) {
		return nil, fmt.Errorf("%w: form %s", ErrNotEligible, formCode)
	}

	tpl, err := s.forms.FindPublishedByCode(ctx, formCode)
	if err != nil {
		return nil, fmt.Errorf("load form %s: %w", formCode, err)
	}

	now := time.Now()
	visibleUntil := now.AddDate(0, 1, 0)
	eval := &entity.Evaluation{
		ID:              uuid.NewString(),
		Status:          string(approval.StatusDraft),
		TemplateID:      tpl.ID,
		TemplateCode:    tpl.Code,
		TemplateVersion: tpl.Version,

		EmployeeID:   in.SubjectID,
		EmployeeName: subject.DisplayName(),
		UnitCode:     subject.UnitCode(),
		RoleCode:     subject.RoleCode(),

		EvaluatorID: in.EvaluatorID,
		ManagerID:   in.EvaluatorID,
		ManagerName: evaluator.DisplayName(),

		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,

		VisibleUntil: &visibleUntil,

		ShowEmployeeSignature: tpl.ShowEmployeeSignature,
		ShowManagerSignature:  tpl.ShowManagerSignature,
		ShowHRSignature:       tpl.ShowHRSignature,
		ShowEmployeeComment:   tpl.ShowEmployeeComment,
		ShowNextPeriodGoals:   tpl.ShowNextPeriodGoals,
	}

	for _, crit := range tpl.Criteria {
		critID := crit.ID
		eval.Items = append(eval.Items, entity.EvaluationItem{
			ID:             uuid.NewString(),
			EvaluationID:   eval.ID,
			CriterionID:    &critID,
			CriterionOrder: crit.Order,
			CriterionTitle: crit.Title,
			Weight:         crit.Weight,
		})
	}

	if err := s.store.Create(ctx, eval); err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}

	s.logger.Info("evaluation created",
		zap.String("evaluation_id", eval.ID),
		zap.String("form", tpl.Code),
		zap.Int("form_version", tpl.Version),
		zap.String("employee_id", in.SubjectID),
		zap.String("evaluator_id", in.EvaluatorID),
	)
	return eval, nil
}

// Get loads one evaluation.
func (s *EvaluationService) Get(ctx context.Context, id string) (*entity.Evaluation, error) {
	return s.store.FindByID(ctx, id)
}

// List pages through evaluations with optional filters.
func (s *EvaluationService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	return s.store.FindAll(ctx, page, pageSize, filters)
}

// SelectOption records one criterion selection on a draft. Every selection
// pushes the visibility window out another month, so the archive sweep only
// catches drafts nobody touched.
func (s *EvaluationService) SelectOption(ctx context.Context, evaluationID, itemID, optionID, comment string) (*entity.Evaluation, error) {
	eval, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if eval.Status != string(approval.StatusDraft) {
		return nil, fmt.Errorf("%w: status %s", ErrEvaluationLocked, eval.Status)
	}

	var item *entity.EvaluationItem
	for i := range eval.Items {
		if eval.Items[i].ID == itemID {
			item = &eval.Items[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotEligible)
	}
	if item.Criterion == nil {
		return nil, fmt.Errorf("item %s has no criterion to score", itemID)
	}

	var opt *entity.FormOption
	for i := range item.Criterion.Options {
		if item.Criterion.Options[i].ID == optionID {
			opt = &item.Criterion.Options[i]
			break
		}
	}
	if opt == nil {
		return nil, fmt.Errorf("option %s does not belong to criterion %s", optionID, item.CriterionTitle)
	}

	item.ApplySelection(opt)
	item.Comment = comment
	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	eval.RecalcScores()
	visibleUntil := time.Now().AddDate(0, 1, 0)
	eval.VisibleUntil = &visibleUntil
	fields := map[string]interface{}{
		"final_score":   eval.FinalScore,
		"max_score":     eval.MaxScore,
		"visible_until": visibleUntil,
	}
	if !eval.DraftStarted {
		eval.DraftStarted = true
		fields["draft_started"] = true
	}
	if err := s.store.UpdateFields(ctx, eval.ID, fields); err != nil {
		return nil, fmt.Errorf("update scores: %w", err)
	}
	return eval, nil
}

// SetComments stores the free-text blocks on a draft.
func (s *EvaluationService) SetComments(ctx context.Context, evaluationID, employeeComment, nextPeriodGoals string) error {
	eval, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return err
	}
	if eval.Status != string(approval.StatusDraft) {
		return fmt.Errorf("%w: status %s", ErrEvaluationLocked, eval.Status)
	}
	return s.store.UpdateFields(ctx, evaluationID, map[string]interface{}{
		"employee_comment":  employeeComment,
		"next_period_goals": nextPeriodGoals,
	})
}

// Submit moves a complete draft into the approval chain. Incomplete drafts
// fail with ErrIncompleteForm and stay editable.
func (s *EvaluationService) Submit(ctx context.Context, evaluationID string) (*entity.Evaluation, error) {
	eval, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if eval.Status != string(approval.StatusDraft) {
		return nil, fmt.Errorf("%w: status %s", ErrEvaluationLocked, eval.Status)
	}
	if !eval.IsComplete() {
		return nil, approval.ErrIncompleteForm
	}

	eval.RecalcScores()
	now := time.Now()
	if err := s.store.SetStatus(ctx, eval.ID, approval.StatusDraft, approval.StatusSubmitted); err != nil {
		return nil, err
	}
	if err := s.store.UpdateFields(ctx, eval.ID, map[string]interface{}{
		"final_score":  eval.FinalScore,
		"max_score":    eval.MaxScore,
		"submitted_at": now,
	}); err != nil {
		return nil, err
	}

	eval.Status = string(approval.StatusSubmitted)
	eval.SubmittedAt = &now

	s.logger.Info("evaluation submitted",
		zap.String("evaluation_id", eval.ID),
		zap.Float64p("final_score", eval.FinalScore),
		zap.Float64p("max_score", eval.MaxScore),
	)
	return eval, nil
}

// ArchiveExpiredDrafts flags drafts whose visibility window has passed.
// Run from the daily sweep.
func (s *EvaluationService) ArchiveExpiredDrafts(ctx context.Context) (int64, error) {
	n, err := s.store.ArchiveExpiredDrafts(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("archived expired drafts", zap.Int64("count", n))
	}
	return n, nil
}

// legacyStage describes one hop of the stage-by-stage workflow that predates
// the approval chain. It survives for documents still moving through the
// old statuses; new documents never enter it.
type legacyStage struct {
	from, to approval.Status
	fields   func(now time.Time) map[string]interface{}
}

var legacyAdvance = []legacyStage{
	{from: approval.StatusDraft, to: approval.StatusSubmitted,
		fields: func(now time.Time) map[string]interface{} {
			return map[string]interface{}{"submitted_at": now}
		}},
	{from: approval.StatusSubmitted, to: approval.StatusHRReview, fields: nil},
	{from: approval.StatusHRReview, to: approval.StatusManagerReview,
		fields: func(now time.Time) map[string]interface{} {
			return map[string]interface{}{"hr_signed": true, "hr_signed_at": now}
		}},
	{from: approval.StatusManagerReview, to: approval.StatusFactoryReview,
		fields: func(now time.Time) map[string]interface{} {
			return map[string]interface{}{"manager_signed": true, "manager_signed_at": now}
		}},
	{from: approval.StatusFactoryReview, to: approval.StatusFinalApproved,
		fields: func(now time.Time) map[string]interface{} {
			return map[string]interface{}{"factory_signed": true, "factory_signed_at": now, "approved_at": now}
		}},
}

// AdvanceWorkflow moves a document one hop along the legacy stage sequence,
// maintaining the per-stage signed flags the old reports read.
func (s *EvaluationService) AdvanceWorkflow(ctx context.Context, evaluationID string) (approval.Status, error) {
	eval, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return "", err
	}
	status, err := approval.ParseStatus(eval.Status)
	if err != nil {
		return "", err
	}

	for _, stage := range legacyAdvance {
		if stage.from != status {
			continue
		}
		if err := s.store.SetStatus(ctx, evaluationID, stage.from, stage.to); err != nil {
			return "", err
		}
		if stage.fields != nil {
			if err := s.store.UpdateFields(ctx, evaluationID, stage.fields(time.Now())); err != nil {
				return "", err
			}
		}
		return stage.to, nil
	}
	return "", fmt.Errorf("%w: status %s", approval.ErrNoNextStep, status)
}

// RejectWorkflow sends a legacy-workflow document back to draft, clearing
// every per-stage flag so the next pass starts clean.
func (s *EvaluationService) RejectWorkflow(ctx context.Context, evaluationID string) error {
	eval, err := s.store.FindByID(ctx, evaluationID)
	if err != nil {
		return err
	}
	status, err := approval.ParseStatus(eval.Status)
	if err != nil {
		return err
	}
	if status == approval.StatusDraft {
		return fmt.Errorf("%w: document is already in draft", approval.ErrNoNextStep)
	}

	if err := s.store.SetStatus(ctx, evaluationID, status, approval.StatusDraft); err != nil {
		return err
	}
	return s.store.UpdateFields(ctx, evaluationID, map[string]interface{}{
		"hr_signed":         false,
		"hr_signed_at":      nil,
		"manager_signed":    false,
		"manager_signed_at": nil,
		"factory_signed":    false,
		"factory_signed_at": nil,
		"submitted_at":      nil,
	})
}
