package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
)

// ImportHandler serves Excel imports (admin only).
type ImportHandler struct {
	imports *service.ImportService
}

func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportEmployees POST /api/v1/admin/import/employees
func (h *ImportHandler) ImportEmployees(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.imports.ImportEmployees(c.Request.Context(), file)
	if err != nil {
		DomainError(c, err)
		return
	}
	Success(c, result)
}

// ImportFormTemplate POST /api/v1/admin/import/forms
func (h *ImportHandler) ImportFormTemplate(c *gin.Context) {
	code := c.PostForm("code")
	name := c.PostForm("name")
	if code == "" || name == "" {
		BadRequest(c, "code and name are required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	tpl, err := h.imports.ImportFormTemplate(c.Request.Context(), file, code, name)
	if err != nil {
		DomainError(c, err)
		return
	}
	Created(c, tpl)
}
