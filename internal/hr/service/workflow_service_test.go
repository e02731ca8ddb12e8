package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

func newWorkflowFixture() (*WorkflowService, *fakeOrg, *fakeStore) {
	org := newFakeOrg()
	store := newFakeStore()
	svc := NewWorkflowService(catalog.New(catalog.DefaultSettings()), org, store, zap.NewNop())
	return svc, org, store
}

func TestResolveRole(t *testing.T) {
	svc, org, _ := newWorkflowFixture()

	// The HR rule must win over the generic manager rule for an HR-unit
	// unit manager.
	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")
	org.add("unit-manager", "Unit Manager", "901", "105")
	org.add("section-head", "Section Head", "902", "105")
	org.add("supervisor", "Supervisor", "903", "105")
	org.add("senior-spec", "Senior Specialist", "907", "105")
	org.add("employee", "Employee", "904", "105")
	org.add("specialist", "Specialist", "906", "105")
	org.add("no-role", "Nobody", "", "105")

	tests := []struct {
		userID string
		want   approval.Role
		ok     bool
	}{
		{"hr-manager", approval.RoleHR, true},
		{"factory", approval.RoleFactoryManager, true},
		{"unit-manager", approval.RoleManager, true},
		{"section-head", approval.RoleManager, true},
		{"supervisor", approval.RoleManager, true},
		{"senior-spec", approval.RoleManager, true},
		{"employee", "", false},
		{"specialist", "", false},
		{"no-role", "", false},
	}
	for _, tt := range tests {
		got, ok, err := svc.ResolveRole(context.Background(), tt.userID)
		if err != nil {
			t.Errorf("ResolveRole(%s) error: %v", tt.userID, err)
			continue
		}
		if ok != tt.ok || got != tt.want {
			t.Errorf("ResolveRole(%s) = (%q, %v), want (%q, %v)", tt.userID, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanUserApprove(t *testing.T) {
	svc, org, store := newWorkflowFixture()

	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")
	org.add("unit-manager", "Unit Manager", "901", "105")
	org.add("section-head", "Section Head", "902", "105")

	tests := []struct {
		name   string
		status approval.Status
		userID string
		want   bool
	}{
		// The answer depends on the document: HR approves submitted, the
		// factory manager approves factory review, nobody approves a draft
		// or a final document.
		{"hr at submitted", approval.StatusSubmitted, "hr-manager", true},
		{"hr at draft", approval.StatusDraft, "hr-manager", false},
		{"hr at factory review", approval.StatusFactoryReview, "hr-manager", false},
		{"factory at factory review", approval.StatusFactoryReview, "factory", true},
		{"factory at submitted", approval.StatusSubmitted, "factory", false},
		{"factory at final", approval.StatusFinalApproved, "factory", false},
		// Generic managers resolve to a role but never hold approve rights.
		{"unit manager at submitted", approval.StatusSubmitted, "unit-manager", false},
		{"section head at submitted", approval.StatusSubmitted, "section-head", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &entity.Evaluation{ID: "eval-" + tt.name, Status: string(tt.status)}
			store.put(eval)
			engine, err := svc.EngineFor(eval)
			if err != nil {
				t.Fatalf("EngineFor: %v", err)
			}
			got, err := engine.CanUserApprove(context.Background(), tt.userID)
			if err != nil {
				t.Fatalf("CanUserApprove(%s) error: %v", tt.userID, err)
			}
			if got != tt.want {
				t.Errorf("CanUserApprove(%s) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestApproveFullChain(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")

	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}
	store.put(eval)

	engine, err := svc.EngineFor(eval)
	if err != nil {
		t.Fatalf("EngineFor: %v", err)
	}

	status, err := engine.Approve(context.Background(), "hr-manager", "looks fine")
	if err != nil {
		t.Fatalf("HR approve: %v", err)
	}
	if status != approval.StatusFactoryReview {
		t.Fatalf("after HR approve status = %q, want factory_review", status)
	}

	status, err = engine.Approve(context.Background(), "factory", "")
	if err != nil {
		t.Fatalf("factory approve: %v", err)
	}
	if status != approval.StatusFinalApproved {
		t.Fatalf("after factory approve status = %q, want final_approved", status)
	}

	if len(store.signatures) != 2 {
		t.Fatalf("signature count = %d, want 2", len(store.signatures))
	}
	if store.signatures[0].Role != string(approval.RoleHR) || store.signatures[0].IsFinal {
		t.Errorf("first signature = %+v, want non-final hr", store.signatures[0])
	}
	if store.signatures[1].Role != string(approval.RoleFactoryManager) || !store.signatures[1].IsFinal {
		t.Errorf("second signature = %+v, want final factory_manager", store.signatures[1])
	}
	if eval.ApprovedAt == nil {
		t.Error("final approval should set ApprovedAt")
	}
}

func TestApproveWrongRole(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("factory", "Factory Manager", "900", "101")
	org.add("unit-manager", "Unit Manager", "901", "105")

	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)

	// Factory manager at the HR step.
	if _, err := engine.Approve(context.Background(), "factory", ""); !errors.Is(err, approval.ErrNotAuthorized) {
		t.Errorf("factory at HR step error = %v, want ErrNotAuthorized", err)
	}
	// Generic manager is never a chain step.
	if _, err := engine.Approve(context.Background(), "unit-manager", ""); !errors.Is(err, approval.ErrNotAuthorized) {
		t.Errorf("generic manager error = %v, want ErrNotAuthorized", err)
	}
	if eval.Status != string(approval.StatusSubmitted) {
		t.Errorf("status changed to %q after failed approvals", eval.Status)
	}
	if len(store.signatures) != 0 {
		t.Errorf("failed approvals must not sign; got %d signatures", len(store.signatures))
	}
}

func TestApproveNoRole(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("employee", "Employee", "904", "105")

	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)
	if _, err := engine.Approve(context.Background(), "employee", ""); !errors.Is(err, approval.ErrNotAuthorized) {
		t.Errorf("employee approve error = %v, want ErrNotAuthorized", err)
	}
}

func TestApproveNoNextStep(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")

	// A final document has no forward move for anyone with a role.
	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusFinalApproved)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)
	for _, userID := range []string{"hr-manager", "factory"} {
		if _, err := engine.Approve(context.Background(), userID, ""); !errors.Is(err, approval.ErrNoNextStep) {
			t.Errorf("approve final by %s error = %v, want ErrNoNextStep", userID, err)
		}
	}
}

func TestApproveIdempotentSignature(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")

	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)
	if _, err := engine.Approve(context.Background(), "hr-manager", ""); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	// Second approve at the moved-on status: not the HR step any more.
	engine2, _ := svc.EngineFor(eval)
	if _, err := engine2.Approve(context.Background(), "hr-manager", ""); !errors.Is(err, approval.ErrNotAuthorized) {
		t.Errorf("second approve error = %v, want ErrNotAuthorized", err)
	}
	if len(store.signatures) != 1 {
		t.Errorf("signature count = %d, want 1", len(store.signatures))
	}
}

func TestCanSign(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")
	org.add("employee", "Employee", "904", "105")

	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)
	for _, tt := range []struct {
		userID string
		want   bool
	}{
		{"hr-manager", true},
		{"factory", false},
		{"employee", false},
	} {
		got, err := engine.CanSign(context.Background(), tt.userID)
		if err != nil {
			t.Fatalf("CanSign(%s): %v", tt.userID, err)
		}
		if got != tt.want {
			t.Errorf("CanSign(%s) = %v, want %v", tt.userID, got, tt.want)
		}
	}

	// Once HR has signed, the HR step is spent even if the status were
	// somehow still pending.
	if _, err := engine.Approve(context.Background(), "hr-manager", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	eval.Status = string(approval.StatusSubmitted)
	engine2, _ := svc.EngineFor(eval)
	got, err := engine2.CanSign(context.Background(), "hr-manager")
	if err != nil {
		t.Fatalf("CanSign after signing: %v", err)
	}
	if got {
		t.Error("CanSign = true after role already signed, want false")
	}
}

func TestApproveLegacyStatusString(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")

	// Stored legacy value "approved" parses to final_approved.
	eval := &entity.Evaluation{ID: "eval-1", Status: "approved"}
	store.put(eval)

	engine, err := svc.EngineFor(eval)
	if err != nil {
		t.Fatalf("EngineFor legacy status: %v", err)
	}
	if engine.Status() != approval.StatusFinalApproved {
		t.Fatalf("parsed legacy status = %q, want final_approved", engine.Status())
	}
	if _, err := engine.Approve(context.Background(), "hr-manager", ""); !errors.Is(err, approval.ErrNoNextStep) {
		t.Errorf("approve legacy final error = %v, want ErrNoNextStep", err)
	}
}

func TestEngineForInvalidStatus(t *testing.T) {
	svc, _, _ := newWorkflowFixture()
	eval := &entity.Evaluation{ID: "eval-1", Status: "garbage"}
	if _, err := svc.EngineFor(eval); !errors.Is(err, approval.ErrInvalidStatus) {
		t.Errorf("EngineFor error = %v, want ErrInvalidStatus", err)
	}
}

func TestReturnForEdit(t *testing.T) {
	svc, org, store := newWorkflowFixture()
	org.add("hr-manager", "HR Manager", "901", "202")
	org.add("factory", "Factory Manager", "900", "101")

	// HR can return from any status, including factory review.
	eval := &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusFactoryReview)}
	store.put(eval)

	engine, _ := svc.EngineFor(eval)
	status, err := engine.ReturnForEdit(context.Background(), "hr-manager")
	if err != nil {
		t.Fatalf("HR return: %v", err)
	}
	if status != approval.StatusDraft {
		t.Errorf("return status = %q, want draft", status)
	}
	if eval.UpdatedAt.IsZero() {
		t.Error("return should refresh UpdatedAt on the returned document")
	}

	// Factory manager cannot return a submitted document.
	eval2 := &entity.Evaluation{ID: "eval-2", Status: string(approval.StatusSubmitted)}
	store.put(eval2)
	engine2, _ := svc.EngineFor(eval2)
	if _, err := engine2.ReturnForEdit(context.Background(), "factory"); !errors.Is(err, approval.ErrNotAuthorized) {
		t.Errorf("factory return error = %v, want ErrNotAuthorized", err)
	}
}
