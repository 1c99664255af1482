package handlers

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/cantian-ai/bazigate/internal/http/middleware"
	"github.com/cantian-ai/bazigate/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// minPasswordLength is the shortest password accepted at registration.
const minPasswordLength = 6

var mainlandPhone = regexp.MustCompile(`^1[3-9]\d{9}$`)

// UserHandler serves registration and the current user's profile.
type UserHandler struct {
	users *store.UserStore
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	user, errFind := h.users.FindByID(c.Request.Context(), middleware.CurrentUserID(c))
	if errFind != nil {
		if errors.Is(errFind, store.ErrUserNotFound) {
			envelope.Fail(c, errcode.New(errcode.UserNotFound))
			return
		}
		envelope.Fail(c, errFind)
		return
	}
	envelope.OK(c, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"nickname":    user.Nickname,
		"phone":       user.Phone,
		"status":      user.Status,
		"lastLoginAt": user.LastLoginAt,
		"lastLoginIp": user.LastLoginIP,
		"createdAt":   user.CreatedAt,
	})
}

// registerRequest defines the request body for account registration.
type registerRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname" binding:"max=64"`
	Phone    string `json:"phone"`
}

// Register creates an active account. The nickname defaults to the username.
func (h *UserHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := envelope.BindJSON(c, &body); errBind != nil {
		envelope.Fail(c, errBind)
		return
	}
	if body.Phone != "" && !mainlandPhone.MatchString(body.Phone) {
		envelope.Fail(c, envelope.NewValidationError("手机号格式不正确"))
		return
	}
	if utf8.RuneCountInString(body.Password) < minPasswordLength {
		envelope.Fail(c, errcode.New(errcode.PasswordTooWeak))
		return
	}
	nickname := body.Nickname
	if nickname == "" {
		nickname = body.Username
	}

	user, errCreate := h.users.Create(c.Request.Context(), store.CreateUserParams{
		Username: body.Username,
		Password: body.Password,
		Nickname: nickname,
		Phone:    body.Phone,
	})
	switch {
	case errors.Is(errCreate, store.ErrUsernameTaken):
		envelope.Fail(c, errcode.New(errcode.UsernameExists))
		return
	case errors.Is(errCreate, store.ErrPhoneTaken):
		envelope.Fail(c, errcode.New(errcode.PhoneExists))
		return
	case errCreate != nil:
		envelope.Fail(c, errCreate)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	envelope.OK(c, gin.H{
		"userId":   user.ID,
		"username": user.Username,
	})
}
