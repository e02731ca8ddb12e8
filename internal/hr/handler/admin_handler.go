package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
)

// AdminHandler serves maintenance operations.
type AdminHandler struct {
	evaluations *service.EvaluationService
}

func NewAdminHandler(evaluations *service.EvaluationService) *AdminHandler {
	return &AdminHandler{evaluations: evaluations}
}

// ArchiveExpiredDrafts POST /api/v1/admin/evaluations/archive-expired
//
// The daily sweep runs this automatically; the endpoint exists for manual
// runs after bulk imports.
func (h *AdminHandler) ArchiveExpiredDrafts(c *gin.Context) {
	n, err := h.evaluations.ArchiveExpiredDrafts(c.Request.Context())
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, gin.H{"archived": n})
}
