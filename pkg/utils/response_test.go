package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "permanence-system/pkg/errors"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestErrorResponse_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"forbidden hides rule", apperrors.NewForbidden("permanence", "validate", "not_responsible"), http.StatusForbidden, apperrors.ErrForbidden.Error()},
		{"not found", fmt.Errorf("repo: %w", apperrors.ErrNotFound), http.StatusNotFound, apperrors.ErrNotFound.Error()},
		{"transition", &apperrors.TransitionError{Verb: "validate", From: "validee"}, http.StatusConflict, ""},
		{"conflict", fmt.Errorf("insert: %w", apperrors.ErrConflict), http.StatusConflict, apperrors.ErrConflict.Error()},
		{"unauthenticated", apperrors.ErrUnauthorized, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error()},
		{"invalid input", apperrors.NewInvalidInputError("rôle immuable"), http.StatusUnprocessableEntity, "rôle immuable"},
		{"bad request", fmt.Errorf("%w: id", apperrors.ErrBadRequest), http.StatusBadRequest, apperrors.ErrBadRequest.Error()},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, apperrors.ErrInternalServer.Error()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext("/")
			require.NoError(t, ErrorResponse(c, tc.err, zap.NewNop()))
			assert.Equal(t, tc.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["status"])
			if tc.msg != "" {
				assert.Equal(t, tc.msg, body["message"])
			}
			assert.NotContains(t, body["message"], "not_responsible")
		})
	}
}

func TestSuccessResponse_Pagination(t *testing.T) {
	c, rec := newContext("/?limit=10&page=2&withPagination=true")
	require.NoError(t, SuccessResponse(c, []int{1, 2}, "ok", http.StatusOK, 21))
	body := decode(t, rec)["body"].(map[string]interface{})
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 21, pagination["total_count"])
	assert.EqualValues(t, 3, pagination["total_pages"])
	assert.EqualValues(t, 2, pagination["page"])

	c, rec = newContext("/?withPagination=false")
	require.NoError(t, SuccessResponse(c, []int{1}, "ok", http.StatusOK, 1))
	assert.IsType(t, []interface{}{}, decode(t, rec)["body"])
}

func TestParseFilterFromQuery(t *testing.T) {
	c, _ := newContext("/?limit=1000&page=3&sort[date]=DESC&filter[statut]=validee&filter[statut]=en_cours&search=x")
	f := ParseFilterFromQuery(c.Request().URL.Query())
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 2*MaxLimit, f.Offset)
	assert.Equal(t, "desc", f.Sort["date"])
	assert.Equal(t, "validee", f.String("statut"))
	assert.Equal(t, "x", f.Search)
}
