// Package envelope renders every API response as
// {"success","code","message","data"} and classifies failures into codes.
package envelope

import (
	"net/http"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{
		Success: true,
		Code:    errcode.Success.Code,
		Message: errcode.Success.Message,
		Data:    data,
	}
}

// OK writes a successful envelope with HTTP 200.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success(data))
}

// Fail classifies err, writes its envelope and aborts the handler chain.
func Fail(c *gin.Context, err error) {
	status, env := Dispatch(err)
	if status == http.StatusTooManyRequests {
		setRetryAfter(c, err)
	}
	c.AbortWithStatusJSON(status, env)
}

// FailStatus is Fail with an explicit HTTP status.
func FailStatus(c *gin.Context, status int, err error) {
	_, env := Dispatch(err)
	c.AbortWithStatusJSON(status, env)
}
