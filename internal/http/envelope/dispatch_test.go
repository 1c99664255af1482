package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDispatch_BusinessErrorPassesThrough(t *testing.T) {
	status, env := Dispatch(errcode.NewCode(300002, "already paid"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, Envelope{Success: false, Code: 300002, Message: "already paid"}, env)

	wrapped := fmt.Errorf("pay order: %w", errcode.New(errcode.OrderAlreadyPaid))
	_, env = Dispatch(wrapped)
	assert.Equal(t, errcode.OrderAlreadyPaid.Code, env.Code)
	assert.Equal(t, errcode.OrderAlreadyPaid.Message, env.Message)
}

func TestDispatch_UnclassifiedIsGeneric(t *testing.T) {
	for _, err := range []error{
		errors.New("pq: connection refused at 10.0.0.3"),
		fmt.Errorf("load chart: %w", errors.New("nil pointer")),
	} {
		status, env := Dispatch(err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, Envelope{Code: errcode.SystemError.Code, Message: errcode.SystemError.Message}, env)
	}
}

func TestDispatch_RateLimit(t *testing.T) {
	err := &ratelimit.ExceededError{Route: "X", Dimension: ratelimit.DimensionIP, Subject: "1.2.3.4", Count: 6, MaxCount: 5, WindowSeconds: 60}
	status, env := Dispatch(fmt.Errorf("guard: %w", err))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, Envelope{Code: 100007, Message: "请求过于频繁，请稍后再试"}, env)
}

func TestDispatch_TokenErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{name: "expired", err: fmt.Errorf("%w: exp", security.ErrTokenExpired), status: http.StatusUnauthorized, code: errcode.TokenExpired.Code},
		{name: "invalid", err: fmt.Errorf("%w: sig", security.ErrTokenInvalid), status: http.StatusUnauthorized, code: errcode.TokenInvalid.Code},
		{name: "missing", err: errcode.New(errcode.Unauthorized), status: http.StatusUnauthorized, code: errcode.Unauthorized.Code},
		{name: "forbidden", err: errcode.New(errcode.PermissionDenied), status: http.StatusForbidden, code: errcode.PermissionDenied.Code},
		{name: "disabled", err: errcode.New(errcode.UserDisabled), status: http.StatusForbidden, code: errcode.UserDisabled.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := Dispatch(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Code)
			assert.False(t, env.Success)
		})
	}
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func bindErr(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var dst loginBody
	return BindJSON(c, &dst)
}

func TestDispatch_Validation(t *testing.T) {
	err := bindErr(t, `{"password":"123"}`)
	require.Error(t, err)
	status, env := Dispatch(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errcode.ParamError.Code, env.Code)
	assert.Equal(t, "username为必填字段; password长度必须至少为6个字符", env.Message)

	err = bindErr(t, `{"username":`)
	require.Error(t, err)
	_, env = Dispatch(err)
	assert.Equal(t, errcode.ParamError.Code, env.Code)
	assert.Equal(t, "请求参数格式错误", env.Message)

	_, env = Dispatch(NewValidationError("phone %s is malformed", "12"))
	assert.Equal(t, "phone 12 is malformed", env.Message)

	assert.NoError(t, bindErr(t, `{"username":"alice","password":"secret1"}`))
}

func TestFailAndOK(t *testing.T) {
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { OK(c, gin.H{"id": 7}) })
	r.GET("/limited", func(c *gin.Context) {
		Fail(c, &ratelimit.ExceededError{Route: "X", RetryAfter: 1500 * time.Millisecond})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"code":100000,"message":"操作成功","data":{"id":7}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])
	assert.Equal(t, float64(100007), env["code"])
	assert.NotContains(t, env, "data")
}
