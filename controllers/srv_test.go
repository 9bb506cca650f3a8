package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Gin_postgres_redis_lending_tracker/db"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func recordErr(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	writeErr(c, err)
	return w
}

func TestWriteErrMapsErrorKinds(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, recordErr(t, db.ErrNotFound).Code)

	w := recordErr(t, &db.ConflictError{Reason: "category still has items assigned to it", ItemCount: 3})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"category still has items assigned to it","itemCount":3}`, w.Body.String())

	w = recordErr(t, &db.ForbiddenError{Reason: "cannot delete the last administrator"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"cannot delete the last administrator"}`, w.Body.String())

	w = recordErr(t, &db.IntegrityError{Detail: "status=lent but no open lending log"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

// 没归类的错误（驱动报错、连接串之类）不能原样进响应体
func TestWriteErrHidesInternalDetail(t *testing.T) {
	w := recordErr(t, errors.New(`pq: password authentication failed for user "ilt"`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")
}
