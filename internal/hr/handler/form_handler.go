package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
)

// FormHandler serves form eligibility lookups.
type FormHandler struct {
	permissions *service.PermissionService
}

func NewFormHandler(permissions *service.PermissionService) *FormHandler {
	return &FormHandler{permissions: permissions}
}

// EligibleForms GET /api/v1/subjects/:id/forms
func (h *FormHandler) EligibleForms(c *gin.Context) {
	subjectID := c.Param("id")

	forms, err := h.permissions.EligibleForms(c.Request.Context(), subjectID)
	if err != nil {
		DomainError(c, err)
		return
	}
	defaultForm, err := h.permissions.DefaultForm(c.Request.Context(), subjectID)
	if err != nil {
		DomainError(c, err)
		return
	}

	Success(c, gin.H{
		"forms":        forms,
		"default_form": defaultForm,
	})
}

// CanEvaluate GET /api/v1/subjects/:id/can-evaluate?form_code=HR-F-80
func (h *FormHandler) CanEvaluate(c *gin.Context) {
	formCode := c.Query("form_code")
	if formCode == "" {
		BadRequest(c, "form_code is required")
		return
	}

	allowed, err := h.permissions.CanEvaluate(c.Request.Context(), GetUserID(c), c.Param("id"), formCode)
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"allowed": allowed})
}
