package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/dto"
	"permanence-system/internal/services"
	"permanence-system/pkg/utils"
)

type DeviceController struct {
	deviceService services.DeviceServiceInterface
	logger        *zap.Logger
}

func NewDeviceController(deviceService services.DeviceServiceInterface, logger *zap.Logger) *DeviceController {
	return &DeviceController{deviceService: deviceService, logger: logger}
}

func (c *DeviceController) List(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	list, total, err := c.deviceService.List(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка при получении списка appareils", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Liste des appareils", http.StatusOK, total)
}

func (c *DeviceController) Create(ctx echo.Context) error {
	var payload dto.DeviceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.deviceService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Appareil créé", http.StatusCreated)
}

func (c *DeviceController) Update(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.DeviceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.deviceService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Appareil mis à jour", http.StatusOK)
}

func (c *DeviceController) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.deviceService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type SiteController struct {
	siteService services.SiteServiceInterface
	logger      *zap.Logger
}

func NewSiteController(siteService services.SiteServiceInterface, logger *zap.Logger) *SiteController {
	return &SiteController{siteService: siteService, logger: logger}
}

func (c *SiteController) List(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	list, total, err := c.siteService.List(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка при получении списка sites", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Liste des sites", http.StatusOK, total)
}

func (c *SiteController) Create(ctx echo.Context) error {
	var payload dto.SiteDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.siteService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Site créé", http.StatusCreated)
}

func (c *SiteController) Update(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.SiteDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.siteService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Site mis à jour", http.StatusOK)
}

func (c *SiteController) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.siteService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}
