package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/dto"
	"permanence-system/internal/services"
	"permanence-system/internal/workflow"
	"permanence-system/pkg/utils"
)

type PermanenceController struct {
	permanenceService services.PermanenceServiceInterface
	printService      services.PrintServiceInterface
	logger            *zap.Logger
}

func NewPermanenceController(
	permanenceService services.PermanenceServiceInterface,
	printService services.PrintServiceInterface,
	logger *zap.Logger,
) *PermanenceController {
	return &PermanenceController{
		permanenceService: permanenceService,
		printService:      printService,
		logger:            logger,
	}
}

func (c *PermanenceController) List(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	list, total, err := c.permanenceService.List(reqCtx, filter)
	if err != nil {
		c.logger.Error("Ошибка при получении списка permanences", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Liste des permanences", http.StatusOK, total)
}

func (c *PermanenceController) Get(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.permanenceService.Get(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Permanence trouvée", http.StatusOK)
}

func (c *PermanenceController) Abilities(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	abilities, err := c.permanenceService.Abilities(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, abilities, "Actions disponibles", http.StatusOK)
}

func (c *PermanenceController) Create(ctx echo.Context) error {
	var payload dto.PermanenceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.permanenceService.Create(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("Ошибка при создании permanence", zap.String("date", payload.Date), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Permanence créée", http.StatusCreated)
}

func (c *PermanenceController) Update(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.PermanenceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.permanenceService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("Ошибка при обновлении permanence", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Permanence mise à jour", http.StatusOK)
}

func (c *PermanenceController) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.permanenceService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Transition возвращает обработчик для одного глагола машины состояний.
func (c *PermanenceController) Transition(verb workflow.Verb) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := utils.ParseIDParam(ctx, "id")
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}

		res, err := c.permanenceService.Transition(ctx.Request().Context(), id, verb)
		if err != nil {
			c.logger.Info("Переход отклонён", zap.Uint64("id", id), zap.String("verb", string(verb)), zap.Error(err))
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		return utils.SuccessResponse(ctx, res, "Statut mis à jour: "+res.StatutLabel, http.StatusOK)
	}
}

// Print: ?lang=fr|ar, по умолчанию fr.
func (c *PermanenceController) Print(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	out, err := c.printService.Print(ctx.Request().Context(), id, ctx.QueryParam("lang"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return sendFile(ctx, out.Filename, "application/pdf", out.Content)
}
