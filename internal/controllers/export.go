package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/services"
	"permanence-system/pkg/utils"
)

type ExportController struct {
	exportService services.ExportServiceInterface
	auditService  services.AuditServiceInterface
	logger        *zap.Logger
}

func NewExportController(exportService services.ExportServiceInterface, auditService services.AuditServiceInterface, logger *zap.Logger) *ExportController {
	return &ExportController{exportService: exportService, auditService: auditService, logger: logger}
}

// Export: GET /exports/:kind?format=xlsx|csv|json
func (c *ExportController) Export(ctx echo.Context) error {
	kind := ctx.Param("kind")
	format := ctx.QueryParam("format")
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	file, err := c.exportService.Export(ctx.Request().Context(), kind, format, filter)
	if err != nil {
		c.logger.Warn("Экспорт не выполнен", zap.String("kind", kind), zap.String("format", format), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return sendFile(ctx, file.Filename, file.Mime, file.Content)
}

func (c *ExportController) ActivityLogs(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	logs, total, err := c.auditService.List(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, logs, "Journal d'activité", http.StatusOK, total)
}
