package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery turns panics and errors recorded with c.Error into envelopes.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if errAbort, ok := r.(error); ok && errors.Is(errAbort, http.ErrAbortHandler) {
					panic(r)
				}
				log.WithFields(log.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("recovered from panic")
				if !c.Writer.Written() {
					envelope.Fail(c, fmt.Errorf("panic: %v", r))
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			envelope.Fail(c, c.Errors.Last().Err)
		}
	}
}

// AccessLog writes one log line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		id := CurrentIdentity(c)
		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      id.IPKey(),
			"user":    id.UserKey(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Info("request")
	}
}
