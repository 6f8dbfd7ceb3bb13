package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== AuthService 登录认证 ====================

// 连续失败 5 次开始锁定，时长指数翻倍，封顶 120 分钟
const (
	lockoutThreshold  = 5
	lockoutBaseMinute = 5
	lockoutCapMinute  = 120
)

// AuthService 登录 / 刷新 / 登出
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RevokedTokenRepository
	logger    *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RevokedTokenRepository,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// Login 用户登录
// 检查顺序固定：超管旁路 -> 锁定 -> 激活/审批门槛 -> 密码比对
// 失败计数只在密码比对失败时增加，前置检查被拒不计数
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	if !user.IsSuperuser {
		if user.IsLocked(now) {
			return nil, NewLockedError(user.AccountLockedUntil.Sub(now))
		}
		if !user.IsFullyActive() || !user.IsActive {
			if user.Role == model.RoleNormalCustomer {
				return nil, ErrVerifyFirst
			}
			return nil, ErrNotApproved
		}
	}

	if !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		if !user.IsSuperuser {
			s.recordFailedLogin(ctx, user.ID, now)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsSuperuser {
		if err := s.userRepo.ResetLoginAttempts(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         ToUserInfo(user),
	}, nil
}

// recordFailedLogin 失败计数加一，达到阈值后按指数退避锁定
// 计数自增在数据库侧完成，并发登录失败不会丢更新
func (s *AuthService) recordFailedLogin(ctx context.Context, userID string, now time.Time) {
	attempts, err := s.userRepo.IncrementLoginAttempts(ctx, userID, now)
	if err != nil {
		s.logger.Error("登录失败计数更新失败", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if attempts >= lockoutThreshold {
		// 5 << 5 已超过封顶值；高失败次数下先取上限，位移溢出会算出负数
		minutes := lockoutCapMinute
		if k := attempts - lockoutThreshold; k < 5 {
			minutes = lockoutBaseMinute << k
		}
		until := now.Add(time.Duration(minutes) * time.Minute)
		if err := s.userRepo.LockUntil(ctx, userID, until); err != nil {
			s.logger.Error("账号锁定写入失败", zap.String("user_id", userID), zap.Error(err))
			return
		}
		s.logger.Warn("账号已临时锁定",
			zap.String("user_id", userID),
			zap.Int("attempts", attempts),
			zap.Int("minutes", minutes),
		)
	}
}

// RefreshToken 刷新 Token 对
// 旧 refresh token 的 jti 在换发时吊销，单个 token 只能用一次
func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	// 确认账号仍然可用
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsSuperuser && (!user.IsActive || !user.IsFullyActive() || user.IsRejected) {
		return nil, ErrNotApproved
	}

	if err := s.revokeClaims(ctx, claims); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// Logout 登出：吊销当前 refresh token（单点吊销，不枚举全部会话）
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.Subject != "refresh" {
		return ErrInvalidToken
	}
	return s.revokeClaims(ctx, claims)
}

func (s *AuthService) revokeClaims(ctx context.Context, claims *middleware.UserClaims) error {
	expiresAt := time.Now().Add(middleware.GetJWTConfig().RefreshTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.tokenRepo.Revoke(ctx, &model.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
	})
}
