package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
)

// EvaluationHandler serves the evaluation lifecycle: create, score, submit,
// approve, return.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
	workflow    *service.WorkflowService
	access      *service.AccessService
	permissions *service.PermissionService
}

func NewEvaluationHandler(evaluations *service.EvaluationService, workflow *service.WorkflowService, access *service.AccessService, permissions *service.PermissionService) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		workflow:    workflow,
		access:      access,
		permissions: permissions,
	}
}

type createEvaluationRequest struct {
	SubjectID   string `json:"subject_id" binding:"required"`
	FormCode    string `json:"form_code"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// Create POST /api/v1/evaluations
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req createEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := service.CreateInput{
		EvaluatorID: GetUserID(c),
		SubjectID:   req.SubjectID,
		FormCode:    req.FormCode,
	}
	if req.PeriodStart != "" {
		t, err := time.Parse("2006-01-02", req.PeriodStart)
		if err != nil {
			BadRequest(c, "period_start must be YYYY-MM-DD")
			return
		}
		in.PeriodStart = &t
	}
	if req.PeriodEnd != "" {
		t, err := time.Parse("2006-01-02", req.PeriodEnd)
		if err != nil {
			BadRequest(c, "period_end must be YYYY-MM-DD")
			return
		}
		in.PeriodEnd = &t
	}

	eval, err := h.evaluations.Create(c.Request.Context(), in)
	if err != nil {
		DomainError(c, err)
		return
	}
	Created(c, eval)
}

// List GET /api/v1/evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":           c.Query("status"),
		"employee_id":      c.Query("employee_id"),
		"evaluator_id":     c.Query("evaluator_id"),
		"unit_code":        c.Query("unit_code"),
		"form_code":        c.Query("form_code"),
		"include_archived": c.Query("include_archived"),
	}

	items, total, err := h.evaluations.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		DomainError(c, err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get GET /api/v1/evaluations/:id
func (h *EvaluationHandler) Get(c *gin.Context) {
	eval, err := h.evaluations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, eval)
}

type selectOptionRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	OptionID string `json:"option_id" binding:"required"`
	Comment  string `json:"comment"`
}

// SelectOption PUT /api/v1/evaluations/:id/items
func (h *EvaluationHandler) SelectOption(c *gin.Context) {
	var req selectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	eval, err := h.evaluations.SelectOption(c.Request.Context(), c.Param("id"), req.ItemID, req.OptionID, req.Comment)
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, eval)
}

type commentsRequest struct {
	EmployeeComment string `json:"employee_comment"`
	NextPeriodGoals string `json:"next_period_goals"`
}

// SetComments PUT /api/v1/evaluations/:id/comments
func (h *EvaluationHandler) SetComments(c *gin.Context) {
	var req commentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.evaluations.SetComments(c.Request.Context(), c.Param("id"), req.EmployeeComment, req.NextPeriodGoals); err != nil {
		DomainError(c, err)
		return
	}
	Success(c, nil)
}

// Submit POST /api/v1/evaluations/:id/submit
func (h *EvaluationHandler) Submit(c *gin.Context) {
	eval, err := h.evaluations.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, eval)
}

type approveRequest struct {
	Comment string `json:"comment"`
}

// Approve POST /api/v1/evaluations/:id/approve
func (h *EvaluationHandler) Approve(c *gin.Context) {
	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	eval, err := h.evaluations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}

	engine, err := h.workflow.EngineFor(eval)
	if err != nil {
		DomainError(c, err)
		return
	}

	status, err := engine.Approve(c.Request.Context(), GetUserID(c), req.Comment)
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"id": eval.ID, "status": string(status)})
}

// Return POST /api/v1/evaluations/:id/return
func (h *EvaluationHandler) Return(c *gin.Context) {
	eval, err := h.evaluations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}

	engine, err := h.workflow.EngineFor(eval)
	if err != nil {
		DomainError(c, err)
		return
	}

	status, err := engine.ReturnForEdit(c.Request.Context(), GetUserID(c))
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"id": eval.ID, "status": string(status)})
}

// Permissions GET /api/v1/evaluations/:id/permissions
//
// Returns the caller's effective rights on one document so the front end
// can render the right buttons without replicating the rules.
func (h *EvaluationHandler) Permissions(c *gin.Context) {
	eval, err := h.evaluations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}

	userID := GetUserID(c)
	isAdmin, _ := c.Get("is_admin")
	actor, err := h.access.ActorByID(c.Request.Context(), userID, isAdmin == true)
	if err != nil {
		DomainError(c, err)
		return
	}

	canView, err := h.access.CanView(c.Request.Context(), actor, eval)
	if err != nil {
		DomainError(c, err)
		return
	}
	canApprove, err := h.access.CanApprove(c.Request.Context(), actor, eval)
	if err != nil {
		DomainError(c, err)
		return
	}

	engine, err := h.workflow.EngineFor(eval)
	if err != nil {
		DomainError(c, err)
		return
	}
	canReturn, err := engine.CanReturn(c.Request.Context(), userID)
	if err != nil {
		DomainError(c, err)
		return
	}

	Success(c, gin.H{
		"can_view":    canView,
		"can_edit":    h.access.CanEdit(actor, eval),
		"can_approve": canApprove,
		"can_return":  canReturn,
	})
}

// Pending GET /api/v1/workflow/pending
//
// The approval inbox: documents sitting at the caller's review step. Users
// who review no step get an empty page rather than an error, so the screen
// renders the same for everyone.
func (h *EvaluationHandler) Pending(c *gin.Context) {
	userID := GetUserID(c)
	page, pageSize := GetPagination(c)

	status, ok, err := h.workflow.PendingStatus(c.Request.Context(), userID)
	if err != nil {
		DomainError(c, err)
		return
	}
	if !ok {
		Success(c, ListResponse{
			Items:      []gin.H{},
			Pagination: &Pagination{Page: page, PageSize: pageSize},
		})
		return
	}

	items, total, err := h.evaluations.List(c.Request.Context(), page, pageSize, map[string]string{
		"status": string(status),
	})
	if err != nil {
		DomainError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(items))
	for i := range items {
		engine, err := h.workflow.EngineFor(&items[i])
		if err != nil {
			DomainError(c, err)
			return
		}
		canApprove, err := engine.CanApprove(c.Request.Context(), userID)
		if err != nil {
			DomainError(c, err)
			return
		}
		rows = append(rows, gin.H{
			"evaluation":  items[i],
			"can_approve": canApprove,
		})
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: rows,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// AdvanceLegacy POST /api/v1/legacy/evaluations/:id/advance
func (h *EvaluationHandler) AdvanceLegacy(c *gin.Context) {
	status, err := h.evaluations.AdvanceWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"id": c.Param("id"), "status": string(status)})
}

// RejectLegacy POST /api/v1/legacy/evaluations/:id/reject
func (h *EvaluationHandler) RejectLegacy(c *gin.Context) {
	if err := h.evaluations.RejectWorkflow(c.Request.Context(), c.Param("id")); err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"id": c.Param("id"), "status": "draft"})
}
