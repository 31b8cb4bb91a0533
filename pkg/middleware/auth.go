package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/service"
	"permanence-system/pkg/utils"
)

// ActorLoader: источник актуальной записи пользователя (роль и активность
// берутся из БД, а не из токена).
type ActorLoader interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	users      ActorLoader
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, users ActorLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		users:      users,
		logger:     logger,
	}
}

func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: Пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		ctx := c.Request().Context()
		actor, err := m.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
			}
			return utils.ErrorResponse(c, err, m.logger)
		}
		if !actor.IsActive {
			m.logger.Warn("AuthMiddleware: Пользователь деактивирован", zap.Uint64("userID", actor.ID))
			return utils.ErrorResponse(c, apperrors.ErrUserDisabled, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.WithActor(ctx, actor)))
		m.logger.Debug("AuthMiddleware: Пользователь аутентифицирован", zap.Uint64("userID", actor.ID), zap.String("role", string(actor.Role)))

		return next(c)
	}
}
