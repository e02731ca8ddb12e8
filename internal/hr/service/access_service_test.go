package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
)

func newAccessFixture() (*AccessService, *fakeOrg, *fakeStore) {
	org := newFakeOrg()
	store := newFakeStore()
	cat := catalog.New(catalog.DefaultSettings())
	workflow := NewWorkflowService(cat, org, store, zap.NewNop())
	return NewAccessService(cat, org, workflow), org, store
}

func TestCanView(t *testing.T) {
	svc, org, _ := newAccessFixture()

	hr := org.add("hr-manager", "HR Manager", "901", "202")
	um := org.add("um-105", "Unit Manager", "901", "105")
	factory := org.add("factory", "Factory Manager", "900", "101")
	employee := org.add("employee", "Emp Loyee", "904", "105")
	outsider := org.add("outsider", "Out Sider", "904", "106")

	draft := &entity.Evaluation{ID: "d1", Status: string(approval.StatusDraft), EvaluatorID: "supervisor", EmployeeID: "employee", UnitCode: "105"}
	submitted := &entity.Evaluation{ID: "s1", Status: string(approval.StatusSubmitted), EvaluatorID: "supervisor", EmployeeID: "employee", UnitCode: "105"}

	tests := []struct {
		name  string
		actor *Actor
		eval  *entity.Evaluation
		want  bool
	}{
		{"admin sees drafts", &Actor{UserID: "admin", IsAdmin: true}, draft, true},
		{"subject sees own draft", &Actor{UserID: "employee", Profile: employee}, draft, true},
		{"evaluator sees own draft", &Actor{UserID: "supervisor"}, draft, true},
		{"HR sees drafts", &Actor{UserID: "hr-manager", Profile: hr}, draft, true},
		{"unit manager blocked from drafts", &Actor{UserID: "um-105", Profile: um}, draft, false},
		{"unit manager sees own unit after submit", &Actor{UserID: "um-105", Profile: um}, submitted, true},
		{"factory manager sees everything after submit", &Actor{UserID: "factory", Profile: factory}, submitted, true},
		{"other-unit employee blocked", &Actor{UserID: "outsider", Profile: outsider}, submitted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanView(context.Background(), tt.actor, tt.eval)
			if err != nil {
				t.Fatalf("CanView error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEdit(t *testing.T) {
	svc, _, _ := newAccessFixture()

	draft := &entity.Evaluation{Status: string(approval.StatusDraft), EvaluatorID: "supervisor"}
	submitted := &entity.Evaluation{Status: string(approval.StatusSubmitted), EvaluatorID: "supervisor"}

	if !svc.CanEdit(&Actor{UserID: "supervisor"}, draft) {
		t.Error("evaluator should edit their draft")
	}
	if svc.CanEdit(&Actor{UserID: "someone"}, draft) {
		t.Error("non-evaluator should not edit a draft")
	}
	if svc.CanEdit(&Actor{UserID: "supervisor"}, submitted) {
		t.Error("nothing is editable after submit")
	}
	if !svc.CanEdit(&Actor{UserID: "x", IsAdmin: true}, draft) {
		t.Error("admin should edit drafts")
	}
}
