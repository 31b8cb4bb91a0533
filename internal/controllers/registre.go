package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

// shiftRecordService: общий вид сервисов записей внутри permanence
// (журнал событий, энергия, перезапуски, приём материала).
type shiftRecordService[T any, D any] interface {
	List(ctx context.Context, shiftID uint64, filter types.Filter) ([]T, uint64, error)
	Create(ctx context.Context, shiftID uint64, payload D) (*T, error)
	Update(ctx context.Context, id uint64, payload D) (*T, error)
	Delete(ctx context.Context, id uint64) error
}

// RecordMessages: тексты ответов для конкретного вида записи.
type RecordMessages struct {
	Listed  string
	Created string
	Updated string
}

type ShiftRecordController[T any, D any] struct {
	service  shiftRecordService[T, D]
	messages RecordMessages
	logger   *zap.Logger
}

func NewShiftRecordController[T any, D any](service shiftRecordService[T, D], messages RecordMessages, logger *zap.Logger) *ShiftRecordController[T, D] {
	return &ShiftRecordController[T, D]{service: service, messages: messages, logger: logger}
}

// List: GET /permanences/:id/<записи>
func (c *ShiftRecordController[T, D]) List(ctx echo.Context) error {
	shiftID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.QueryParams())

	list, total, err := c.service.List(ctx.Request().Context(), shiftID, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, c.messages.Listed, http.StatusOK, total)
}

func (c *ShiftRecordController[T, D]) Create(ctx echo.Context) error {
	shiftID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload D
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.service.Create(ctx.Request().Context(), shiftID, payload)
	if err != nil {
		c.logger.Info("Запись не создана", zap.Uint64("permanenceID", shiftID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, c.messages.Created, http.StatusCreated)
}

func (c *ShiftRecordController[T, D]) Update(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload D
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.service.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, c.messages.Updated, http.StatusOK)
}

func (c *ShiftRecordController[T, D]) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.service.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}
