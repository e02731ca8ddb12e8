package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// OrgDirectory resolves a user to their organizational profile.
type OrgDirectory interface {
	Profile(ctx context.Context, userID string) (*entity.EmployeeProfile, error)
}

// WorkflowStore is the persistence surface the workflow needs: guarded
// status moves and the signature log.
type WorkflowStore interface {
	Approve(ctx context.Context, sig *entity.EvaluationSignature, from, to approval.Status) error
	SetStatus(ctx context.Context, evaluationID string, from, to approval.Status) error
	HasSignature(ctx context.Context, evaluationID string, role approval.Role) (bool, error)
}

// WorkflowService resolves who a user is in the approval chain and drives
// evaluations through it.
type WorkflowService struct {
	catalog *catalog.Catalog
	org     OrgDirectory
	store   WorkflowStore
	logger  *zap.Logger
}

func NewWorkflowService(cat *catalog.Catalog, org OrgDirectory, store WorkflowStore, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{catalog: cat, org: org, store: store, logger: logger}
}

// roleRule matches a profile to an approval role. Rules are evaluated in
// order and the first match wins, so the HR rule must stay ahead of the
// generic manager rule: an HR-unit manager is HR, never a plain manager.
type roleRule struct {
	role  approval.Role
	match func(tag catalog.RoleTag, unitCode string) bool
}

func (s *WorkflowService) roleRules() []roleRule {
	return []roleRule{
		{
			role: approval.RoleHR,
			match: func(tag catalog.RoleTag, unitCode string) bool {
				return tag == catalog.RoleTagUnitManager && s.catalog.IsHRUnit(unitCode)
			},
		},
		{
			role: approval.RoleFactoryManager,
			match: func(tag catalog.RoleTag, unitCode string) bool {
				return tag == catalog.RoleTagFactoryManager
			},
		},
		{
			role: approval.RoleManager,
			match: func(tag catalog.RoleTag, unitCode string) bool {
				switch tag {
				case catalog.RoleTagUnitManager, catalog.RoleTagSectionHead,
					catalog.RoleTagSupervisor, catalog.RoleTagSeniorSpecialist:
					return true
				}
				return false
			},
		},
	}
}

// ResolveRole maps a user to their approval role. The second result is
// false for users who hold no approval role at all.
func (s *WorkflowService) ResolveRole(ctx context.Context, userID string) (approval.Role, bool, error) {
	profile, err := s.org.Profile(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("resolve approval role: %w", err)
	}
	role, ok := s.resolveProfile(profile)
	return role, ok, nil
}

func (s *WorkflowService) resolveProfile(profile *entity.EmployeeProfile) (approval.Role, bool) {
	tag, ok := s.catalog.RoleTagOf(profile.RoleCode())
	if !ok {
		return "", false
	}
	unitCode := profile.UnitCode()
	for _, rule := range s.roleRules() {
		if rule.match(tag, unitCode) {
			return rule.role, true
		}
	}
	return "", false
}

// approverRole resolves the narrow approver identity straight from org
// data: only the HR-unit manager and the factory manager count. The generic
// manager role that ResolveRole produces deliberately does not.
func (s *WorkflowService) approverRole(ctx context.Context, userID string) (approval.Role, bool, error) {
	profile, err := s.org.Profile(ctx, userID)
	if err != nil {
		return "", false, err
	}
	tag, ok := s.catalog.RoleTagOf(profile.RoleCode())
	if !ok {
		return "", false, nil
	}
	if tag == catalog.RoleTagFactoryManager {
		return approval.RoleFactoryManager, true, nil
	}
	if tag == catalog.RoleTagUnitManager && s.catalog.IsHRUnit(profile.UnitCode()) {
		return approval.RoleHR, true, nil
	}
	return "", false, nil
}

// PendingStatus returns the status whose documents sit in the user's
// approval inbox. False when the user reviews no step at all.
func (s *WorkflowService) PendingStatus(ctx context.Context, userID string) (approval.Status, bool, error) {
	role, ok, err := s.approverRole(ctx, userID)
	if err != nil || !ok {
		return "", false, err
	}
	status, ok := approval.StepStatus(role)
	return status, ok, nil
}

// EngineFor builds a per-document engine. The stored status is parsed once
// here; documents with an unknown status fail before any decision is made.
func (s *WorkflowService) EngineFor(eval *entity.Evaluation) (*WorkflowEngine, error) {
	status, err := approval.ParseStatus(eval.Status)
	if err != nil {
		return nil, err
	}
	return &WorkflowEngine{svc: s, eval: eval, status: status}, nil
}

// WorkflowEngine answers workflow questions about one evaluation at its
// current status. It is cheap to build and not reused across status moves.
type WorkflowEngine struct {
	svc    *WorkflowService
	eval   *entity.Evaluation
	status approval.Status
}

// Status returns the parsed status the engine was built for.
func (e *WorkflowEngine) Status() approval.Status {
	return e.status
}

// CurrentStep returns the role the document is waiting on.
func (e *WorkflowEngine) CurrentStep() (approval.Role, bool) {
	return approval.CurrentStep(e.status)
}

// CanApprove reports whether the user could approve at the current step.
func (e *WorkflowEngine) CanApprove(ctx context.Context, userID string) (bool, error) {
	role, ok, err := e.svc.ResolveRole(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return approval.CanApprove(e.status, role), nil
}

// CanUserApprove is the gate behind approve buttons: the user must be the
// HR-unit manager or the factory manager, and this document must currently
// be waiting on that role. It is deliberately resolved from the narrow
// approver identity rather than ResolveRole.
func (e *WorkflowEngine) CanUserApprove(ctx context.Context, userID string) (bool, error) {
	role, ok, err := e.svc.approverRole(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return approval.CanApprove(e.status, role), nil
}

// CanSign reports whether the user may sign the pending step right now:
// they hold the step's role and their role has not signed this document yet.
func (e *WorkflowEngine) CanSign(ctx context.Context, userID string) (bool, error) {
	role, ok, err := e.svc.ResolveRole(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	if !approval.CanApprove(e.status, role) {
		return false, nil
	}
	signed, err := e.svc.store.HasSignature(ctx, e.eval.ID, role)
	if err != nil {
		return false, err
	}
	return !signed, nil
}

// CanReturn reports whether the user could send the document back.
func (e *WorkflowEngine) CanReturn(ctx context.Context, userID string) (bool, error) {
	role, ok, err := e.svc.ResolveRole(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return approval.CanReturn(e.status, role), nil
}

// HasSignature reports whether the given role already signed this document.
func (e *WorkflowEngine) HasSignature(ctx context.Context, role approval.Role) (bool, error) {
	return e.svc.store.HasSignature(ctx, e.eval.ID, role)
}

// Approve advances the document one step on behalf of the user.
//
// Check order: a user with no approval role is rejected first; then a
// document with no forward move fails with ErrNoNextStep regardless of who
// asks; only then is the user's role checked against the pending step.
// This keeps "approve a final document" a conflict for everyone instead of
// a permission error for almost everyone.
func (e *WorkflowEngine) Approve(ctx context.Context, userID, comment string) (approval.Status, error) {
	profile, err := e.svc.org.Profile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("approve: %w", err)
	}
	role, ok := e.svc.resolveProfile(profile)
	if !ok {
		return "", fmt.Errorf("%w: user %s holds no approval role", approval.ErrNotAuthorized, userID)
	}

	next, ok := approval.ApproveStatus(e.status)
	if !ok {
		return "", fmt.Errorf("%w: status %s", approval.ErrNoNextStep, e.status)
	}

	step, _ := approval.CurrentStep(e.status)
	if role != step {
		return "", fmt.Errorf("%w: step %s requires role %s, user has %s", approval.ErrNotAuthorized, e.status, step, role)
	}

	sig := &entity.EvaluationSignature{
		ID:                    uuid.NewString(),
		EvaluationID:          e.eval.ID,
		Role:                  string(role),
		EvaluatorID:           userID,
		SignedByName:          profile.DisplayName(),
		SignedByPersonnelCode: profile.PersonnelCode,
		Comment:               comment,
		IsFinal:               role == approval.RoleFactoryManager,
	}

	if err := e.svc.store.Approve(ctx, sig, e.status, next); err != nil {
		return "", err
	}

	e.svc.logger.Info("evaluation approved",
		zap.String("evaluation_id", e.eval.ID),
		zap.String("role", string(role)),
		zap.String("from", string(e.status)),
		zap.String("to", string(next)),
		zap.String("user_id", userID),
	)

	e.eval.Status = string(next)
	now := time.Now()
	e.eval.UpdatedAt = now
	if next == approval.StatusFinalApproved {
		e.eval.ApprovedAt = &now
	}
	e.status = next
	return next, nil
}

// ReturnForEdit sends the document back to draft on behalf of the user.
func (e *WorkflowEngine) ReturnForEdit(ctx context.Context, userID string) (approval.Status, error) {
	role, ok, err := e.svc.ResolveRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("return for edit: %w", err)
	}
	if !ok || !approval.CanReturn(e.status, role) {
		return "", fmt.Errorf("%w: cannot return document in status %s", approval.ErrNotAuthorized, e.status)
	}

	target := approval.ReturnStatus()
	if err := e.svc.store.SetStatus(ctx, e.eval.ID, e.status, target); err != nil {
		return "", err
	}

	e.svc.logger.Info("evaluation returned for edit",
		zap.String("evaluation_id", e.eval.ID),
		zap.String("role", string(role)),
		zap.String("from", string(e.status)),
		zap.String("user_id", userID),
	)

	e.eval.Status = string(target)
	e.eval.UpdatedAt = time.Now()
	e.status = target
	return target, nil
}
