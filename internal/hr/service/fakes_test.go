package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

// fakeOrg is an in-memory OrgDirectory.
type fakeOrg struct {
	profiles map[string]*entity.EmployeeProfile
}

func newFakeOrg() *fakeOrg {
	return &fakeOrg{profiles: map[string]*entity.EmployeeProfile{}}
}

func (f *fakeOrg) add(userID, name, roleCode, unitCode string) *entity.EmployeeProfile {
	p := &entity.EmployeeProfile{
		ID:            "profile-" + userID,
		UserID:        userID,
		PersonnelCode: "pc-" + userID,
		User:          &entity.User{ID: userID, Username: userID, FullName: name},
	}
	if roleCode != "" {
		p.JobRole = &entity.JobRole{ID: "role-" + roleCode, Code: roleCode}
	}
	if unitCode != "" {
		p.Unit = &entity.Unit{ID: "unit-" + unitCode, UnitCode: unitCode}
	}
	f.profiles[userID] = p
	return p
}

func (f *fakeOrg) Profile(ctx context.Context, userID string) (*entity.EmployeeProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

// fakeStore is an in-memory EvaluationStore and WorkflowStore.
type fakeStore struct {
	evals      map[string]*entity.Evaluation
	signatures []*entity.EvaluationSignature
}

func newFakeStore() *fakeStore {
	return &fakeStore{evals: map[string]*entity.Evaluation{}}
}

func (f *fakeStore) put(eval *entity.Evaluation) {
	f.evals[eval.ID] = eval
}

func (f *fakeStore) Create(ctx context.Context, eval *entity.Evaluation) error {
	f.evals[eval.ID] = eval
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id string) (*entity.Evaluation, error) {
	eval, ok := f.evals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return eval, nil
}

func (f *fakeStore) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	var out []entity.Evaluation
	for _, e := range f.evals {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if _, ok := f.evals[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (f *fakeStore) SaveItem(ctx context.Context, item *entity.EvaluationItem) error {
	return nil
}

func (f *fakeStore) Approve(ctx context.Context, sig *entity.EvaluationSignature, from, to approval.Status) error {
	eval, ok := f.evals[sig.EvaluationID]
	if !ok {
		return repository.ErrNotFound
	}
	duplicate := false
	for _, existing := range f.signatures {
		if existing.EvaluationID == sig.EvaluationID && existing.Role == sig.Role {
			duplicate = true // signature insert is a no-op
			break
		}
	}
	if !duplicate {
		f.signatures = append(f.signatures, sig)
	}
	if eval.Status != string(from) {
		return fmt.Errorf("%w: evaluation %s is no longer in status %s", approval.ErrNotAuthorized, sig.EvaluationID, from)
	}
	eval.Status = string(to)
	return nil
}

func (f *fakeStore) SetStatus(ctx context.Context, evaluationID string, from, to approval.Status) error {
	eval, ok := f.evals[evaluationID]
	if !ok {
		return repository.ErrNotFound
	}
	if eval.Status != string(from) {
		return fmt.Errorf("%w: evaluation %s is no longer in status %s", approval.ErrNotAuthorized, evaluationID, from)
	}
	eval.Status = string(to)
	return nil
}

func (f *fakeStore) HasSignature(ctx context.Context, evaluationID string, role approval.Role) (bool, error) {
	for _, sig := range f.signatures {
		if sig.EvaluationID == evaluationID && sig.Role == string(role) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ArchiveExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, e := range f.evals {
		if e.Status == string(approval.StatusDraft) && !e.IsArchived &&
			e.VisibleUntil != nil && e.VisibleUntil.Before(now) {
			e.IsArchived = true
			t := now
			e.ArchivedAt = &t
			n++
		}
	}
	return n, nil
}

// fakeForms serves a fixed set of published templates by code.
type fakeForms struct {
	templates map[string]*entity.FormTemplate
}

func newFakeForms(templates ...*entity.FormTemplate) *fakeForms {
	f := &fakeForms{templates: map[string]*entity.FormTemplate{}}
	for _, tpl := range templates {
		f.templates[tpl.Code] = tpl
	}
	return f
}

func (f *fakeForms) FindPublishedByCode(ctx context.Context, code string) (*entity.FormTemplate, error) {
	tpl, ok := f.templates[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tpl, nil
}

// testTemplate builds a published two-criterion template.
func testTemplate(code string) *entity.FormTemplate {
	return &entity.FormTemplate{
		ID:      "tpl-" + code,
		Code:    code,
		Version: 1,
		Name:    code,
		Status:  entity.TemplateStatusPublished,
		Criteria: []entity.FormCriterion{
			{
				ID: "crit-1", TemplateID: "tpl-" + code, Order: 1, Title: "Quality", Weight: 2,
				Options: []entity.FormOption{
					{ID: "opt-1a", CriterionID: "crit-1", Order: 1, Label: "Poor", Value: 1},
					{ID: "opt-1b", CriterionID: "crit-1", Order: 2, Label: "Good", Value: 4},
				},
			},
			{
				ID: "crit-2", TemplateID: "tpl-" + code, Order: 2, Title: "Attendance", Weight: 1,
				Options: []entity.FormOption{
					{ID: "opt-2a", CriterionID: "crit-2", Order: 1, Label: "Poor", Value: 1},
					{ID: "opt-2b", CriterionID: "crit-2", Order: 2, Label: "Good", Value: 5},
				},
			},
		},
	}
}
