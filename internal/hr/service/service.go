package service

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

// Services aggregates the service layer.
type Services struct {
	Org        *OrgService
	Auth       *AuthService
	Permission *PermissionService
	Workflow   *WorkflowService
	Evaluation *EvaluationService
	Access     *AccessService
	Import     *ImportService
}

// Config carries the non-repository inputs of the service layer.
type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RequireSameUnit bool
}

// NewServices wires the service aggregate.
func NewServices(repos *repository.Repositories, cat *catalog.Catalog, rdb *redis.Client, logger *zap.Logger, cfg Config) *Services {
	org := NewOrgService(repos.Org, rdb, logger)
	permission := NewPermissionService(cat, org, logger)
	permission.SetRequireSameUnit(cfg.RequireSameUnit)
	workflow := NewWorkflowService(cat, org, repos.Evaluation, logger)

	return &Services{
		Org:        org,
		Auth:       NewAuthService(repos.User, org, rdb, logger, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Permission: permission,
		Workflow:   workflow,
		Evaluation: NewEvaluationService(cat, repos.Evaluation, repos.Form, org, permission, logger),
		Access:     NewAccessService(cat, org, workflow),
		Import:     NewImportService(repos.User, org, repos.Form, logger),
	}
}
