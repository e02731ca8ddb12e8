package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/approval"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
)

// Handlers aggregates the HTTP handlers.
type Handlers struct {
	Auth       *AuthHandler
	Evaluation *EvaluationHandler
	Form       *FormHandler
	Import     *ImportHandler
	Admin      *AdminHandler
}

// NewHandlers wires the handler aggregate.
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:       NewAuthHandler(services.Auth),
		Evaluation: NewEvaluationHandler(services.Evaluation, services.Workflow, services.Access, services.Permission),
		Form:       NewFormHandler(services.Permission),
		Import:     NewImportHandler(services.Import),
		Admin:      NewAdminHandler(services.Evaluation),
	}
}

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// DomainError maps service-layer errors onto the response envelope.
func DomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "not found")
	case errors.Is(err, approval.ErrNotAuthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, approval.ErrNoNextStep):
		Conflict(c, err.Error())
	case errors.Is(err, approval.ErrIncompleteForm):
		BadRequest(c, err.Error())
	case errors.Is(err, approval.ErrInvalidStatus):
		Error(c, 42200, err.Error())
	case errors.Is(err, service.ErrNotEligible):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrEvaluationLocked):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Error(c, 40101, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		Error(c, 40102, err.Error())
	default:
		InternalError(c, "internal error")
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
