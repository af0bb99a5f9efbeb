package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRoleSyncer 管理员角色同步端口（casbin）
type AdminRoleSyncer interface {
	SyncAdmin(userID uint, isAdmin bool) error
}

// IdentityClaims 外部身份提供方签发的身份令牌声明
type IdentityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Phone   string `json:"phone"`
	jwt.RegisteredClaims
}

// UserJWTClaims 用户会话 JWT 声明
type UserJWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	Created   bool         `json:"created"`
}

// UserService 用户服务：身份登录、会话令牌、个人资料
type UserService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	syncer   AdminRoleSyncer
	admins   map[string]struct{}
	now      func() time.Time
}

// NewUserService 创建用户服务
func NewUserService(cfg *config.Config, userRepo repository.UserRepository, syncer AdminRoleSyncer) *UserService {
	admins := make(map[string]struct{})
	for _, id := range cfg.Admin.ProviderIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}
	return &UserService{
		cfg:      cfg,
		userRepo: userRepo,
		syncer:   syncer,
		admins:   admins,
		now:      time.Now,
	}
}

// ParseIdentityToken 校验身份令牌（HS256、签发方、受众、有效期）
func (s *UserService) ParseIdentityToken(tokenString string) (*IdentityClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if issuer := strings.TrimSpace(s.cfg.Identity.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(s.cfg.Identity.Audience); audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(options...)
	claims := &IdentityClaims{}
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Identity.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrIdentityTokenInvalid, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrIdentityTokenInvalid)
	}
	return claims, nil
}

// LoginWithIdentity 身份登录：按身份提供方 ID 获取或创建用户，并签发会话令牌
func (s *UserService) LoginWithIdentity(ctx context.Context, identityToken string) (*LoginResult, error) {
	claims, err := s.ParseIdentityToken(identityToken)
	if err != nil {
		return nil, err
	}
	providerID := strings.TrimSpace(claims.Subject)
	_, bootstrapAdmin := s.admins[providerID]
	now := s.now()

	user, err := s.userRepo.GetByProviderID(providerID)
	if err != nil {
		return nil, err
	}
	created := false
	if user == nil {
		user = &models.User{
			ProviderID:  providerID,
			Email:       strings.TrimSpace(claims.Email),
			Phone:       strings.TrimSpace(claims.Phone),
			DisplayName: strings.TrimSpace(claims.Name),
			AvatarURL:   strings.TrimSpace(claims.Picture),
			Tier:        constants.TierGeneral,
			IsAdmin:     bootstrapAdmin,
			LastLoginAt: &now,
		}
		if err := s.userRepo.Create(user); err != nil {
			if !repository.IsDuplicateKey(err) {
				return nil, err
			}
			// 并发首次登录：另一请求已创建
			user, err = s.userRepo.GetByProviderID(providerID)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, errors.New("user vanished after duplicate create")
			}
		} else {
			created = true
		}
	}

	fields := map[string]interface{}{"last_login_at": now}
	if user.MemberNo == "" {
		user.MemberNo = MemberNumber(user.ID)
		fields["member_no"] = user.MemberNo
	}
	if bootstrapAdmin && !user.IsAdmin {
		user.IsAdmin = true
		fields["is_admin"] = true
	}
	if !created {
		if name := strings.TrimSpace(claims.Name); name != "" && user.DisplayName == "" {
			user.DisplayName = name
			fields["display_name"] = name
		}
		if picture := strings.TrimSpace(claims.Picture); picture != "" && picture != user.AvatarURL {
			user.AvatarURL = picture
			fields["avatar_url"] = picture
		}
	}
	if err := s.userRepo.UpdateFields(user.ID, fields); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	if s.syncer != nil {
		if err := s.syncer.SyncAdmin(user.ID, user.IsAdmin); err != nil {
			logger.Warnw("user_admin_role_sync_failed", "user_id", user.ID, "error", err)
		}
	}
	if err := cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user)); err != nil {
		logger.Warnw("user_auth_state_cache_write_failed", "user_id", user.ID, "error", err)
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}
	logger.Infow("user_identity_login", "user_id", user.ID, "created", created, "is_admin", user.IsAdmin)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user, Created: created}, nil
}

// GenerateUserJWT 生成用户会话令牌
func (s *UserService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	hours := s.cfg.UserJWT.ExpireHours
	if hours <= 0 {
		hours = 168
	}
	now := s.now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := UserJWTClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户会话令牌
func (s *UserService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// ResolveAuthState 获取鉴权快照（缓存未命中时回源并回写）
func (s *UserService) ResolveAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("user_auth_state_cache_read_failed", "user_id", userID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	state = cache.BuildUserAuthState(user)
	if err := cache.SetUserAuthState(ctx, state); err != nil {
		logger.Warnw("user_auth_state_cache_write_failed", "user_id", userID, "error", err)
	}
	return state, nil
}

// GetProfile 获取个人资料
func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// MemberNumber 展示用会员编号
func MemberNumber(userID uint) string {
	return fmt.Sprintf("M%06d", userID)
}
