package envelope

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// Dispatch classifies err into an HTTP status and a failure envelope.
// Unclassified errors never leak their text; they are logged and reported
// as SystemError.
func Dispatch(err error) (int, Envelope) {
	if err == nil {
		return http.StatusOK, Success(nil)
	}

	if be, ok := errcode.AsBusiness(err); ok {
		status := statusForCode(be.Code())
		entry := log.WithError(err).WithField("code", be.Code())
		if be.Unwrap() != nil {
			entry.Warn("request failed")
		} else {
			entry.Info("request rejected")
		}
		return status, failure(be.Code(), be.Message())
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		log.WithFields(log.Fields{
			"route":   exceeded.Route,
			"subject": exceeded.Subject,
		}).Info("request rate limited")
		return http.StatusTooManyRequests, failure(errcode.RateLimitExceeded.Code, errcode.RateLimitExceeded.Message)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg := validationMessage(verrs)
		log.WithField("detail", msg).Info("request validation failed")
		return http.StatusBadRequest, failure(errcode.ParamError.Code, msg)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		log.WithError(err).Info("request validation failed")
		return http.StatusBadRequest, failure(errcode.ParamError.Code, verr.Message)
	}

	switch {
	case errors.Is(err, security.ErrTokenExpired):
		log.WithError(err).Info("token expired")
		return http.StatusUnauthorized, failure(errcode.TokenExpired.Code, errcode.TokenExpired.Message)
	case errors.Is(err, security.ErrToken):
		log.WithError(err).Info("token rejected")
		return http.StatusUnauthorized, failure(errcode.TokenInvalid.Code, errcode.TokenInvalid.Message)
	}

	log.WithError(err).Error("unhandled request error")
	return http.StatusInternalServerError, failure(errcode.SystemError.Code, errcode.SystemError.Message)
}

func failure(code int, message string) Envelope {
	return Envelope{Code: code, Message: message}
}

// statusForCode maps business codes to HTTP statuses. Business failures
// outside the credential range travel as HTTP 200.
func statusForCode(code int) int {
	switch {
	case code == errcode.PermissionDenied.Code, code == errcode.UserDisabled.Code:
		return http.StatusForbidden
	case errcode.IsAuth(code):
		return http.StatusUnauthorized
	case code == errcode.RateLimitExceeded.Code:
		return http.StatusTooManyRequests
	case code == errcode.SystemError.Code, code == errcode.DatabaseError.Code:
		return http.StatusInternalServerError
	case code == errcode.ServiceUnavailable.Code:
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func setRetryAfter(c *gin.Context, err error) {
	var exceeded *ratelimit.ExceededError
	if !errors.As(err, &exceeded) {
		return
	}
	seconds := int((exceeded.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
}
