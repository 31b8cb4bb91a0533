package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/dto"
	"permanence-system/internal/services"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/utils"
)

type SettingController struct {
	settingService services.SettingServiceInterface
	logger         *zap.Logger
}

func NewSettingController(settingService services.SettingServiceInterface, logger *zap.Logger) *SettingController {
	return &SettingController{settingService: settingService, logger: logger}
}

func (c *SettingController) List(ctx echo.Context) error {
	settings, err := c.settingService.List(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "Paramètres", http.StatusOK)
}

func (c *SettingController) Group(ctx echo.Context) error {
	settings, err := c.settingService.GetGroup(ctx.Request().Context(), ctx.Param("group"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "Paramètres du groupe", http.StatusOK)
}

func (c *SettingController) Set(ctx echo.Context) error {
	key := ctx.Param("key")
	var payload dto.SettingValueDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	setting, err := c.settingService.Set(ctx.Request().Context(), key, payload.Value.Ptr())
	if err != nil {
		c.logger.Error("Ошибка при сохранении настройки", zap.String("key", key), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, setting, "Paramètre enregistré", http.StatusOK)
}

// UploadFile: multipart, поле "file".
func (c *SettingController) UploadFile(ctx echo.Context) error {
	key := ctx.Param("key")
	header, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewInvalidInputError("fichier manquant"), c.logger)
	}

	setting, err := c.settingService.UploadFile(ctx.Request().Context(), key, header)
	if err != nil {
		c.logger.Error("Ошибка при загрузке файла настройки", zap.String("key", key), zap.String("file", header.Filename), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, setting, "Fichier enregistré", http.StatusOK)
}
