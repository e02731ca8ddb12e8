package service

import (
	"context"
	"errors"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

// Actor is a resolved caller: account plus organizational profile. The
// profile may be nil for accounts without one (pure admin logins).
type Actor struct {
	UserID  string
	IsAdmin bool
	Profile *entity.EmployeeProfile
}

// AccessService answers visibility questions about evaluations. Workflow
// permission (who may approve) lives in WorkflowService; this is about who
// may see and edit a document at all.
type AccessService struct {
	catalog  *catalog.Catalog
	org      OrgDirectory
	workflow *WorkflowService
}

func NewAccessService(cat *catalog.Catalog, org OrgDirectory, workflow *WorkflowService) *AccessService {
	return &AccessService{catalog: cat, org: org, workflow: workflow}
}

// ActorFor resolves a user into an Actor. Missing profiles are not an
// error; the actor just has no organizational standing.
func (s *AccessService) ActorFor(ctx context.Context, user *entity.User) (*Actor, error) {
	return s.ActorByID(ctx, user.ID, user.IsAdmin)
}

// ActorByID builds an Actor from the identity the auth middleware carries.
func (s *AccessService) ActorByID(ctx context.Context, userID string, isAdmin bool) (*Actor, error) {
	actor := &Actor{UserID: userID, IsAdmin: isAdmin}
	profile, err := s.org.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return actor, nil
		}
		return nil, err
	}
	actor.Profile = profile
	return actor, nil
}

// CanView reports whether the actor may open the evaluation. Admins and HR
// see everything; the evaluator and the subject see their own documents;
// unit managers and section heads see their unit once a document has left
// draft; the factory manager sees everything past draft.
func (s *AccessService) CanView(ctx context.Context, actor *Actor, eval *entity.Evaluation) (bool, error) {
	if actor.IsAdmin {
		return true, nil
	}
	if actor.UserID == eval.EvaluatorID || actor.UserID == eval.EmployeeID {
		return true, nil
	}
	if actor.Profile == nil {
		return false, nil
	}

	role, ok, err := s.workflow.ResolveRole(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	if ok && role == approval.RoleHR {
		return true, nil
	}

	if eval.Status == string(approval.StatusDraft) {
		return false, nil
	}

	tag, okTag := s.catalog.RoleTagOf(actor.Profile.RoleCode())
	if !okTag {
		return false, nil
	}
	if tag == catalog.RoleTagFactoryManager {
		return true, nil
	}
	if tag == catalog.RoleTagUnitManager || tag == catalog.RoleTagSectionHead {
		return actor.Profile.UnitCode() == eval.UnitCode, nil
	}
	return false, nil
}

// CanEdit reports whether the actor may change the document's content.
// Only the evaluator (or an admin) edits, and only while it is a draft.
func (s *AccessService) CanEdit(actor *Actor, eval *entity.Evaluation) bool {
	if eval.Status != string(approval.StatusDraft) {
		return false
	}
	return actor.IsAdmin || actor.UserID == eval.EvaluatorID
}

// CanApprove reports whether the actor may act on the document's pending
// approval step. This drives approve buttons, so it uses the narrow
// per-document gate rather than the engine's generic role check.
func (s *AccessService) CanApprove(ctx context.Context, actor *Actor, eval *entity.Evaluation) (bool, error) {
	engine, err := s.workflow.EngineFor(eval)
	if err != nil {
		return false, err
	}
	return engine.CanUserApprove(ctx, actor.UserID)
}
