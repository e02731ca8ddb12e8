package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/testutil"
)

type stubOrg struct {
	profiles map[string]*entity.EmployeeProfile
}

func (s *stubOrg) Profile(ctx context.Context, userID string) (*entity.EmployeeProfile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubOrg) add(userID, roleCode, unitCode string) {
	s.profiles[userID] = &entity.EmployeeProfile{
		ID:     "profile-" + userID,
		UserID: userID,
		User:   &entity.User{ID: userID, Username: userID},
		JobRole: &entity.JobRole{
			ID:   "role-" + roleCode,
			Code: roleCode,
		},
		Unit: &entity.Unit{ID: "unit-" + unitCode, UnitCode: unitCode},
	}
}

type stubStore struct {
	evals      map[string]*entity.Evaluation
	signatures []*entity.EvaluationSignature
}

func (s *stubStore) Create(ctx context.Context, eval *entity.Evaluation) error {
	s.evals[eval.ID] = eval
	return nil
}

func (s *stubStore) FindByID(ctx context.Context, id string) (*entity.Evaluation, error) {
	eval, ok := s.evals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return eval, nil
}

func (s *stubStore) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Evaluation, int64, error) {
	var out []entity.Evaluation
	for _, e := range s.evals {
		if status := filters["status"]; status != "" && e.Status != status {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (s *stubStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return nil
}

func (s *stubStore) SaveItem(ctx context.Context, item *entity.EvaluationItem) error {
	return nil
}

func (s *stubStore) Approve(ctx context.Context, sig *entity.EvaluationSignature, from, to approval.Status) error {
	eval, ok := s.evals[sig.EvaluationID]
	if !ok {
		return repository.ErrNotFound
	}
	if eval.Status != string(from) {
		return fmt.Errorf("%w: stale status", approval.ErrNotAuthorized)
	}
	s.signatures = append(s.signatures, sig)
	eval.Status = string(to)
	return nil
}

func (s *stubStore) SetStatus(ctx context.Context, evaluationID string, from, to approval.Status) error {
	eval, ok := s.evals[evaluationID]
	if !ok {
		return repository.ErrNotFound
	}
	if eval.Status != string(from) {
		return fmt.Errorf("%w: stale status", approval.ErrNotAuthorized)
	}
	eval.Status = string(to)
	return nil
}

func (s *stubStore) HasSignature(ctx context.Context, evaluationID string, role approval.Role) (bool, error) {
	for _, sig := range s.signatures {
		if sig.EvaluationID == evaluationID && sig.Role == string(role) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ArchiveExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubForms struct{}

func (stubForms) FindPublishedByCode(ctx context.Context, code string) (*entity.FormTemplate, error) {
	return nil, repository.ErrNotFound
}

func setupEvaluationRouter(t *testing.T) (*gin.Engine, *stubOrg, *stubStore) {
	t.Helper()

	org := &stubOrg{profiles: map[string]*entity.EmployeeProfile{}}
	store := &stubStore{evals: map[string]*entity.Evaluation{}}
	cat := catalog.New(catalog.DefaultSettings())
	logger := zap.NewNop()

	permissions := service.NewPermissionService(cat, org, logger)
	workflow := service.NewWorkflowService(cat, org, store, logger)
	evaluations := service.NewEvaluationService(cat, store, stubForms{}, org, permissions, logger)
	access := service.NewAccessService(cat, org, workflow)

	h := NewEvaluationHandler(evaluations, workflow, access, permissions)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/evaluations/:id", h.Get)
	api.POST("/evaluations/:id/approve", h.Approve)
	api.POST("/evaluations/:id/return", h.Return)
	api.GET("/evaluations/:id/permissions", h.Permissions)
	api.GET("/workflow/pending", h.Pending)
	return r, org, store
}

func TestApproveEndpoint(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")
	store.evals["eval-1"] = &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}

	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)
	w := testutil.DoRequest(r, "POST", "/api/v1/evaluations/eval-1/approve", map[string]string{"comment": "ok"}, token)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != "factory_review" {
		t.Errorf("status = %v, want factory_review", data["status"])
	}
	if len(store.signatures) != 1 {
		t.Errorf("signature count = %d, want 1", len(store.signatures))
	}
}

func TestApproveEndpointForbidden(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("employee", "904", "105")
	store.evals["eval-1"] = &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}

	token := testutil.GenerateTestToken("employee", "employee", false)
	w := testutil.DoRequest(r, "POST", "/api/v1/evaluations/eval-1/approve", nil, token)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", w.Code, w.Body.String())
	}
}

func TestApproveEndpointConflict(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")
	store.evals["eval-1"] = &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusFinalApproved)}

	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)
	w := testutil.DoRequest(r, "POST", "/api/v1/evaluations/eval-1/approve", nil, token)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
}

func TestGetEndpointNotFound(t *testing.T) {
	r, org, _ := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")

	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)
	w := testutil.DoRequest(r, "GET", "/api/v1/evaluations/missing", nil, token)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", w.Code, w.Body.String())
	}
}

func TestEndpointsRequireAuth(t *testing.T) {
	r, _, store := setupEvaluationRouter(t)
	store.evals["eval-1"] = &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusSubmitted)}

	w := testutil.DoRequest(r, "POST", "/api/v1/evaluations/eval-1/approve", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestPendingEndpoint(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")
	org.add("employee", "904", "105")
	store.evals["draft-1"] = &entity.Evaluation{ID: "draft-1", Status: string(approval.StatusDraft)}
	store.evals["submitted-1"] = &entity.Evaluation{ID: "submitted-1", Status: string(approval.StatusSubmitted)}
	store.evals["review-1"] = &entity.Evaluation{ID: "review-1", Status: string(approval.StatusFactoryReview)}

	// The HR inbox holds only the submitted document.
	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)
	w := testutil.DoRequest(r, "GET", "/api/v1/workflow/pending", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("inbox size = %d, want 1", len(items))
	}
	row := items[0].(map[string]interface{})
	if row["can_approve"] != true {
		t.Errorf("can_approve = %v, want true", row["can_approve"])
	}

	// Users who review no step see an empty inbox, not an error.
	token = testutil.GenerateTestToken("employee", "employee", false)
	w = testutil.DoRequest(r, "GET", "/api/v1/workflow/pending", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if items := data["items"].([]interface{}); len(items) != 0 {
		t.Errorf("inbox size = %d, want 0", len(items))
	}
}

func TestPermissionsEndpoint(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")
	store.evals["draft-1"] = &entity.Evaluation{ID: "draft-1", Status: string(approval.StatusDraft)}
	store.evals["submitted-1"] = &entity.Evaluation{ID: "submitted-1", Status: string(approval.StatusSubmitted)}

	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)

	// A draft is not pending approval, so even HR gets no approve button.
	w := testutil.DoRequest(r, "GET", "/api/v1/evaluations/draft-1/permissions", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["can_view"] != true {
		t.Errorf("can_view = %v, want true", data["can_view"])
	}
	if data["can_approve"] != false {
		t.Errorf("can_approve on draft = %v, want false", data["can_approve"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/evaluations/submitted-1/permissions", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["can_approve"] != true {
		t.Errorf("can_approve on submitted = %v, want true", data["can_approve"])
	}
}

func TestReturnEndpoint(t *testing.T) {
	r, org, store := setupEvaluationRouter(t)
	org.add("hr-manager", "901", "202")
	store.evals["eval-1"] = &entity.Evaluation{ID: "eval-1", Status: string(approval.StatusFactoryReview)}

	token := testutil.GenerateTestToken("hr-manager", "hr-manager", false)
	w := testutil.DoRequest(r, "POST", "/api/v1/evaluations/eval-1/return", nil, token)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.evals["eval-1"].Status != string(approval.StatusDraft) {
		t.Errorf("status = %q, want draft", store.evals["eval-1"].Status)
	}
}
