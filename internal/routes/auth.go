package routes

import (
	"github.com/labstack/echo/v4"

	"permanence-system/internal/controllers"
	"permanence-system/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}

// /ws аутентифицируется токеном из query, поэтому вне secureGroup.
func runLiveRouter(api *echo.Group, liveCtrl *controllers.LiveController) {
	api.GET("/ws", liveCtrl.Serve)
}
