package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

const profileCacheTTL = 10 * time.Minute

// OrgService serves organizational lookups with a cache in front of the
// org tables. Profiles change rarely (imports, admin edits) but are read
// on every permission check, so they are cached aggressively and
// invalidated on write.
type OrgService struct {
	repo   *repository.OrgRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewOrgService(repo *repository.OrgRepository, rdb *redis.Client, logger *zap.Logger) *OrgService {
	return &OrgService{repo: repo, rdb: rdb, logger: logger}
}

func profileCacheKey(userID string) string {
	return fmt.Sprintf("hr:profile:%s", userID)
}

// Profile implements OrgDirectory with a cache-aside read. Cache failures
// degrade to the database, never to an error.
func (s *OrgService) Profile(ctx context.Context, userID string) (*entity.EmployeeProfile, error) {
	key := profileCacheKey(userID)
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var profile entity.EmployeeProfile
			if err := json.Unmarshal([]byte(raw), &profile); err == nil {
				return &profile, nil
			}
			// Corrupt entry; drop it and fall through to the database.
			s.rdb.Del(ctx, key)
		} else if err != redis.Nil {
			s.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(profile); err == nil {
			if err := s.rdb.Set(ctx, key, raw, profileCacheTTL).Err(); err != nil {
				s.logger.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	return profile, nil
}

// SaveProfile writes a profile and invalidates its cache entry.
func (s *OrgService) SaveProfile(ctx context.Context, profile *entity.EmployeeProfile) error {
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, profileCacheKey(profile.UserID)).Err(); err != nil {
			s.logger.Warn("profile cache invalidation failed", zap.String("user_id", profile.UserID), zap.Error(err))
		}
	}
	return nil
}

// ProfilesByUnit lists the employee profiles of a unit, uncached.
func (s *OrgService) ProfilesByUnit(ctx context.Context, unitCode string) ([]entity.EmployeeProfile, error) {
	return s.repo.ProfilesByUnit(ctx, unitCode)
}
