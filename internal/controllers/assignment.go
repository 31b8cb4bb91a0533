package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/dto"
	"permanence-system/internal/services"
	"permanence-system/pkg/utils"
)

// AssignmentController: состав permanence (affectations).
type AssignmentController struct {
	assignmentService services.AssignmentServiceInterface
	logger            *zap.Logger
}

func NewAssignmentController(assignmentService services.AssignmentServiceInterface, logger *zap.Logger) *AssignmentController {
	return &AssignmentController{assignmentService: assignmentService, logger: logger}
}

func (c *AssignmentController) List(ctx echo.Context) error {
	shiftID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	list, err := c.assignmentService.List(ctx.Request().Context(), shiftID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Liste des affectations", http.StatusOK)
}

func (c *AssignmentController) Create(ctx echo.Context) error {
	shiftID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.AssignmentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.assignmentService.Create(ctx.Request().Context(), shiftID, payload)
	if err != nil {
		c.logger.Info("Affectation не создана",
			zap.Uint64("permanenceID", shiftID),
			zap.Uint64("sousOfficierID", payload.SousOfficierID),
			zap.Error(err),
		)
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Sous-officier affecté", http.StatusCreated)
}

func (c *AssignmentController) Update(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.AssignmentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.assignmentService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Affectation mise à jour", http.StatusOK)
}

func (c *AssignmentController) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.assignmentService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}
