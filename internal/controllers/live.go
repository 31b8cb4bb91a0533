package controllers

import (
	"errors"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/middleware"
	"permanence-system/pkg/service"
	"permanence-system/pkg/utils"
	"permanence-system/pkg/websocket"
)

// LiveController: лента уведомлений о переходах статусов.
type LiveController struct {
	hub        *websocket.Hub
	jwtService service.JWTService
	users      middleware.ActorLoader
	upgrader   gorillaws.Upgrader
	logger     *zap.Logger
}

func NewLiveController(hub *websocket.Hub, jwtService service.JWTService, users middleware.ActorLoader, allowedOrigins []string, logger *zap.Logger) *LiveController {
	return &LiveController{
		hub:        hub,
		jwtService: jwtService,
		users:      users,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// originChecker: те же origin, что и в CORS. Запрос без Origin (не браузер) пропускается.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Serve: браузер не может передать заголовок Authorization при upgrade,
// поэтому токен приходит в ?token=.
func (c *LiveController) Serve(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrEmptyAuthHeader, c.logger)
	}
	claims, err := c.jwtService.ValidateToken(token)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx := ctx.Request().Context()
	user, err := c.users.FindByID(reqCtx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return utils.ErrorResponse(ctx, apperrors.ErrUnauthorized, c.logger)
		}
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !user.IsActive {
		return utils.ErrorResponse(ctx, apperrors.ErrUserDisabled, c.logger)
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// upgrader уже ответил клиенту
		c.logger.Warn("LiveController: upgrade не удался", zap.Error(err))
		return nil
	}

	client := websocket.NewClient(c.hub, conn, user.ID, c.logger)
	if !c.hub.Register(reqCtx, client) {
		_ = conn.Close()
		return nil
	}
	client.Serve()

	c.logger.Info("LiveController: клиент подключён", zap.Uint64("userID", user.ID))
	return nil
}
