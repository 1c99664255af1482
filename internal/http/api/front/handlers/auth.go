package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/cantian-ai/bazigate/internal/http/middleware"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/cantian-ai/bazigate/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthHandler serves login and token lifecycle endpoints.
type AuthHandler struct {
	users  *store.UserStore
	tokens *security.TokenService
	nowFn  func() time.Time
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *store.UserStore, tokens *security.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, nowFn: time.Now}
}

func badCredentials() error {
	return errcode.NewWithMessage(errcode.PasswordError, "用户名或密码错误")
}

// loginRequest defines the request body for password login.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns an access and a refresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := envelope.BindJSON(c, &body); errBind != nil {
		envelope.Fail(c, errBind)
		return
	}

	user, errFind := h.users.FindByUsername(c.Request.Context(), body.Username)
	if errFind != nil {
		if errors.Is(errFind, store.ErrUserNotFound) {
			security.CheckDummyPassword(body.Password)
			envelope.Fail(c, badCredentials())
			return
		}
		envelope.Fail(c, errFind)
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		envelope.Fail(c, badCredentials())
		return
	}
	if !user.Active() {
		envelope.Fail(c, errcode.New(errcode.UserDisabled))
		return
	}

	access, errAccess := h.tokens.Issue(user.ID, user.Username, security.TokenAccess)
	if errAccess != nil {
		envelope.Fail(c, errAccess)
		return
	}
	refresh, errRefresh := h.tokens.Issue(user.ID, user.Username, security.TokenRefresh)
	if errRefresh != nil {
		envelope.Fail(c, errRefresh)
		return
	}

	ip := middleware.CurrentIdentity(c).IP
	if errRecord := h.users.RecordLogin(c.Request.Context(), user.ID, ip, h.nowFn()); errRecord != nil {
		log.WithError(errRecord).WithField("user_id", user.ID).Warn("record login failed")
	}
	log.WithFields(log.Fields{"user_id": user.ID, "ip": ip}).Info("user logged in")

	envelope.OK(c, gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"tokenType":    "Bearer",
		"expiresIn":    int64(h.tokens.TTL(security.TokenAccess) / time.Second),
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"nickname": user.Nickname,
		},
	})
}

// Refresh exchanges a bearer refresh token for a new access token. The
// account must still exist and be active.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, errToken := middleware.BearerToken(c)
	if errToken != nil {
		envelope.Fail(c, errcode.Wrap(errcode.Unauthorized, errToken))
		return
	}
	claims, errClaims := h.tokens.Refreshable(token)
	if errClaims != nil {
		envelope.Fail(c, errClaims)
		return
	}
	if claims.Type != security.TokenRefresh {
		envelope.Fail(c, errcode.NewWithMessage(errcode.TokenInvalid, "请使用刷新令牌"))
		return
	}

	user, errFind := h.users.FindByID(c.Request.Context(), claims.UserID)
	if errFind != nil {
		if errors.Is(errFind, store.ErrUserNotFound) {
			envelope.FailStatus(c, http.StatusUnauthorized, errcode.New(errcode.UserNotFound))
			return
		}
		envelope.Fail(c, errFind)
		return
	}
	if !user.Active() {
		envelope.Fail(c, errcode.New(errcode.UserDisabled))
		return
	}

	access, errAccess := h.tokens.Issue(user.ID, user.Username, security.TokenAccess)
	if errAccess != nil {
		envelope.Fail(c, errAccess)
		return
	}
	envelope.OK(c, gin.H{
		"accessToken": access,
		"tokenType":   "Bearer",
		"expiresIn":   int64(h.tokens.TTL(security.TokenAccess) / time.Second),
	})
}

// TokenStatus reports whether the bearer token is valid and due for refresh.
func (h *AuthHandler) TokenStatus(c *gin.Context) {
	token, errToken := middleware.BearerToken(c)
	if errToken != nil {
		envelope.Fail(c, errcode.Wrap(errcode.Unauthorized, errToken))
		return
	}
	out := gin.H{
		"valid":        false,
		"expiringSoon": h.tokens.IsExpiringSoon(token),
	}
	if claims, errVerify := h.tokens.Verify(token); errVerify == nil {
		out["valid"] = true
		out["type"] = claims.Type
		out["expiresAt"] = claims.ExpiresAt.Time.UTC()
	}
	envelope.OK(c, out)
}
