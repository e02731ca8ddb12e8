package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and refreshes JWT pairs. Refresh tokens are tracked
// by jti in redis so a logout or rotation invalidates them server-side.
type AuthService struct {
	users      *repository.UserRepository
	org        OrgDirectory
	rdb        *redis.Client
	logger     *zap.Logger
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users *repository.UserRepository, org OrgDirectory, rdb *redis.Client, logger *zap.Logger, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		org:        org,
		rdb:        rdb,
		logger:     logger,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func refreshCacheKey(jti string) string {
	return fmt.Sprintf("hr:refresh:%s", jti)
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, *entity.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return pair, user, nil
}

// Refresh rotates a refresh token into a new pair. The old jti is removed
// so each refresh token works exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims["type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	userID, _ := claims["user_id"].(string)
	if jti == "" || userID == "" {
		return nil, ErrInvalidToken
	}

	if s.rdb != nil {
		deleted, err := s.rdb.Del(ctx, refreshCacheKey(jti)).Result()
		if err != nil {
			return nil, fmt.Errorf("refresh token lookup: %w", err)
		}
		if deleted == 0 {
			return nil, ErrInvalidToken
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the refresh token's jti.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil // already unusable
	}
	if jti, _ := claims["jti"].(string); jti != "" && s.rdb != nil {
		return s.rdb.Del(ctx, refreshCacheKey(jti)).Err()
	}
	return nil
}

// HashPassword wraps bcrypt for account creation and imports.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (s *AuthService) issuePair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	personnelCode := ""
	if profile, err := s.org.Profile(ctx, user.ID); err == nil {
		personnelCode = profile.PersonnelCode
	}

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":        user.ID,
		"username":       user.Username,
		"personnel_code": personnelCode,
		"is_admin":       user.IsAdmin,
		"type":           "access",
		"iat":            now.Unix(),
		"exp":            now.Add(s.accessTTL).Unix(),
	})
	accessToken, err := access.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := uuid.NewString()
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"jti":     jti,
		"type":    "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(s.refreshTTL).Unix(),
	})
	refreshToken, err := refresh.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, refreshCacheKey(jti), user.ID, s.refreshTTL).Err(); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) parseToken(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
