package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"lintas.id/aidesk/pkg/apperror"
)

func recordError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ResponseError(c, err)
	return w
}

func TestResponseErrorHidesInternalCause(t *testing.T) {
	w := recordError(t, errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestResponseErrorKeepsClientFacingMessage(t *testing.T) {
	w := recordError(t, apperror.New(http.StatusConflict, "email already registered", apperror.ErrInvalidInput))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, w.Body.String())
}

func TestResponseErrorSentinelStatus(t *testing.T) {
	w := recordError(t, apperror.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
