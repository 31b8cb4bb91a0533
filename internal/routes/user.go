package routes

import (
	"github.com/labstack/echo/v4"

	"permanence-system/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	secureGroup.GET("/users", userCtrl.List)
	secureGroup.GET("/users/:id", userCtrl.Get)
	secureGroup.POST("/users", userCtrl.Create)
	secureGroup.PUT("/users/:id", userCtrl.Update)
}
