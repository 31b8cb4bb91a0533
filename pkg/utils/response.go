package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "permanence-system/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HttpResponse{Status: true, Message: message, Body: body}

	if len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		if filter.WithPagination {
			totalPages := 0
			if filter.Limit > 0 {
				totalPages = int((total[0] + uint64(filter.Limit) - 1) / uint64(filter.Limit))
			}
			response.Body = map[string]interface{}{
				"list": body,
				"pagination": map[string]interface{}{
					"total_count": total[0],
					"page":        filter.Page,
					"limit":       filter.Limit,
					"total_pages": totalPages,
				},
			}
		}
	}
	return ctx.JSON(code, response)
}

// errorStatus: соответствие доменных ошибок HTTP-кодам.
var errorStatus = []struct {
	target error
	code   int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrInvalidTransition, http.StatusConflict},
	{apperrors.ErrConflict, http.StatusConflict},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrUserDisabled, http.StatusUnauthorized},
	{apperrors.ErrAccountLocked, http.StatusTooManyRequests},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrActorNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrValidation, http.StatusUnprocessableEntity},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

// publicMessage: текст, который уходит клиенту. Для отказа в доступе правило
// не раскрывается, оно остаётся только в логах и аудите.
func publicMessage(err error, target error) string {
	if target == apperrors.ErrForbidden || target == apperrors.ErrNotFound {
		return target.Error()
	}
	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	var transitionErr *apperrors.TransitionError
	if errors.As(err, &transitionErr) {
		return transitionErr.Error()
	}
	return target.Error()
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}
		return c.JSON(httpErr.Code, &HttpResponse{Status: false, Message: httpErr.Message})
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("le champ '%s' ne respecte pas la règle '%s'", e.Field(), e.Tag()))
		}
		return c.JSON(http.StatusUnprocessableEntity, &HttpResponse{Status: false, Message: "Données invalides: " + strings.Join(msgs, "; ")})
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return c.JSON(echoErr.Code, &HttpResponse{Status: false, Message: fmt.Sprint(echoErr.Message)})
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			if m.code == http.StatusForbidden {
				logger.Warn("Доступ запрещён", zap.String("rule", apperrors.RuleOf(err)), zap.Error(err))
			}
			return c.JSON(m.code, &HttpResponse{Status: false, Message: publicMessage(err, m.target)})
		}
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, &HttpResponse{Status: false, Message: apperrors.ErrInternalServer.Error()})
}
