package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	"permanence-system/pkg/config"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/service"
	"permanence-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context) (*entities.User, error)
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	jwtSvc    service.JWTService
	cfg       config.AuthConfig
	logger    *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, cacheRepo: cacheRepo, jwtSvc: jwtSvc, cfg: cfg, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(payload.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Warn("AuthService: вход в отключённый аккаунт", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrUserDisabled
	}
	s.resetLoginAttempts(ctx, user.ID)

	token, err := s.jwtSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("не удалось выпустить токен: %w", err)
	}
	s.logger.Info("AuthService: успешный вход", zap.Uint64("userID", user.ID), zap.String("role", string(user.Role)))
	return &dto.AuthResponseDTO{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtSvc.GetAccessTokenTTL().Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	return actorFrom(ctx)
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	_, err := s.cacheRepo.Get(ctx, repositories.LockoutKey(userID))
	switch {
	case err == nil:
		return apperrors.ErrAccountLocked
	case errors.Is(err, repositories.ErrCacheMiss):
		return nil
	}
	// без Redis вход не блокируем
	s.logger.Warn("AuthService: кеш недоступен при проверке блокировки", zap.Error(err))
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := repositories.LoginAttemptsKey(userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey, s.cfg.LockoutDuration)
	if err != nil {
		s.logger.Warn("AuthService: не удалось учесть неудачный вход", zap.Error(err))
		return
	}
	if s.cfg.MaxLoginAttempts > 0 && attempts >= int64(s.cfg.MaxLoginAttempts) {
		_ = s.cacheRepo.Set(ctx, repositories.LockoutKey(userID), "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("AuthService: аккаунт временно заблокирован", zap.Uint64("userID", userID))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	_ = s.cacheRepo.Del(ctx, repositories.LoginAttemptsKey(userID), repositories.LockoutKey(userID))
}
