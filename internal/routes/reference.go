package routes

import (
	"github.com/labstack/echo/v4"

	"permanence-system/internal/controllers"
)

func runReferenceRouter(secureGroup *echo.Group, deviceCtrl *controllers.DeviceController, siteCtrl *controllers.SiteController) {
	secureGroup.GET("/devices", deviceCtrl.List)
	secureGroup.POST("/devices", deviceCtrl.Create)
	secureGroup.PUT("/devices/:id", deviceCtrl.Update)
	secureGroup.DELETE("/devices/:id", deviceCtrl.Delete)

	secureGroup.GET("/sites", siteCtrl.List)
	secureGroup.POST("/sites", siteCtrl.Create)
	secureGroup.PUT("/sites/:id", siteCtrl.Update)
	secureGroup.DELETE("/sites/:id", siteCtrl.Delete)
}

func runSettingRouter(secureGroup *echo.Group, settingCtrl *controllers.SettingController) {
	secureGroup.GET("/settings", settingCtrl.List)
	secureGroup.GET("/settings/group/:group", settingCtrl.Group)
	secureGroup.PUT("/settings/:key", settingCtrl.Set)
	secureGroup.POST("/settings/:key/file", settingCtrl.UploadFile)
}

func runExportRouter(secureGroup *echo.Group, exportCtrl *controllers.ExportController) {
	secureGroup.GET("/exports/:kind", exportCtrl.Export)
	secureGroup.GET("/activity-logs", exportCtrl.ActivityLogs)
}
