package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

// PermissionService decides who may evaluate whom with which form.
type PermissionService struct {
	catalog *catalog.Catalog
	org     OrgDirectory
	logger  *zap.Logger

	// requireSameUnit relaxes the same-unit rules when false. Production
	// keeps it on.
	requireSameUnit bool
}

func NewPermissionService(cat *catalog.Catalog, org OrgDirectory, logger *zap.Logger) *PermissionService {
	return &PermissionService{catalog: cat, org: org, logger: logger, requireSameUnit: true}
}

// SetRequireSameUnit toggles the same-unit restriction. Exposed for
// deployments that evaluate across unit lines.
func (s *PermissionService) SetRequireSameUnit(v bool) {
	s.requireSameUnit = v
}

// CanEvaluate reports whether evaluator may open the given form for the
// subject. Unknown forms, unknown roles and missing profiles all come back
// false rather than as errors; only infrastructure failures error.
func (s *PermissionService) CanEvaluate(ctx context.Context, evaluatorID, subjectID, formCode string) (bool, error) {
	evaluator, err := s.org.Profile(ctx, evaluatorID)
	if err != nil {
		return false, err
	}
	subject, err := s.org.Profile(ctx, subjectID)
	if err != nil {
		return false, err
	}
	return s.canEvaluateProfiles(evaluator, subject, formCode), nil
}

func (s *PermissionService) canEvaluateProfiles(evaluator, subject *entity.EmployeeProfile, formCode string) bool {
	formCode = catalog.NormalizeFormCode(formCode)
	if !s.catalog.KnownForm(formCode) {
		return false
	}

	evalTag, ok := s.catalog.RoleTagOf(evaluator.RoleCode())
	if !ok {
		return false
	}
	subjTag, ok := s.catalog.RoleTagOf(subject.RoleCode())
	if !ok {
		return false
	}

	// The manager-grade form has its own ladder: the factory manager rates
	// unit managers and section heads anywhere; a unit manager rates only
	// section heads, and only in their own unit.
	if formCode == s.catalog.ManagerFormCode() {
		switch evalTag {
		case catalog.RoleTagFactoryManager:
			return subjTag == catalog.RoleTagUnitManager || subjTag == catalog.RoleTagSectionHead
		case catalog.RoleTagUnitManager:
			if subjTag != catalog.RoleTagSectionHead {
				return false
			}
			if !s.requireSameUnit {
				return true
			}
			// Same-unit means both units are actually known and equal; a
			// missing unit on either side is not a match.
			evalUnit, subjUnit := evaluator.UnitCode(), subject.UnitCode()
			return evalUnit != "" && subjUnit != "" && evalUnit == subjUnit
		}
		return false
	}

	if !s.catalog.IsTargetRole(formCode, subjTag) {
		return false
	}
	if !s.catalog.IsEvaluatorRole(formCode, evalTag) {
		return false
	}
	// The factory manager crosses unit lines; everyone else stays inside
	// their own unit. The rule only rejects when both units are known and
	// differ, so a profile without a unit passes through.
	if s.requireSameUnit && evalTag != catalog.RoleTagFactoryManager {
		evalUnit, subjUnit := evaluator.UnitCode(), subject.UnitCode()
		if evalUnit != "" && subjUnit != "" && evalUnit != subjUnit {
			return false
		}
	}
	return true
}

// EligibleForms lists the form codes the subject may be evaluated with.
func (s *PermissionService) EligibleForms(ctx context.Context, subjectID string) ([]string, error) {
	subject, err := s.org.Profile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	tag, ok := s.catalog.RoleTagOf(subject.RoleCode())
	if !ok {
		return nil, nil
	}
	return s.catalog.EligibleFormsFor(tag), nil
}

// DefaultForm returns the default form code for a subject, empty when the
// subject's role has no form (the factory manager is never evaluated).
func (s *PermissionService) DefaultForm(ctx context.Context, subjectID string) (string, error) {
	subject, err := s.org.Profile(ctx, subjectID)
	if err != nil {
		return "", err
	}
	tag, ok := s.catalog.RoleTagOf(subject.RoleCode())
	if !ok {
		return "", nil
	}
	code, _ := s.catalog.DefaultFormFor(tag)
	return code, nil
}
