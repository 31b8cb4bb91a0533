package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "permanence-system/pkg/errors"
)

// bindAndValidate ошибка разбора тела: 400, ошибка правил, 422.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Format de données invalide", err, nil)
	}
	return ctx.Validate(payload)
}

// sendFile отдаёт сформированный документ как вложение.
func sendFile(ctx echo.Context, filename, mime string, content []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, mime, content)
}
