package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/cantian-ai/bazigate/internal/models"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/cantian-ai/bazigate/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UserFinder loads the account behind a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

var (
	errMissingCredential = errors.New("missing authorization header")
	errBadScheme         = errors.New("invalid authorization format")
)

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", errMissingCredential
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errBadScheme
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errMissingCredential
	}
	return token, nil
}

// Auth requires a valid access token for an existing, enabled account.
func Auth(tokens *security.TokenService, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, tokens, users)
		if err != nil {
			log.WithError(err).WithField("path", c.Request.URL.Path).Debug("authentication rejected")
			var be *errcode.BusinessError
			if errors.As(err, &be) && be.Code() == errcode.UserNotFound.Code {
				envelope.FailStatus(c, http.StatusUnauthorized, err)
				return
			}
			envelope.Fail(c, err)
			return
		}
		setIdentity(c, CurrentIdentity(c).WithUser(user.ID, user.Username))
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is presented and lets
// anonymous callers through otherwise.
func OptionalAuth(tokens *security.TokenService, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		user, err := authenticate(c, tokens, users)
		if err != nil {
			log.WithError(err).Debug("optional authentication ignored")
			c.Next()
			return
		}
		setIdentity(c, CurrentIdentity(c).WithUser(user.ID, user.Username))
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens *security.TokenService, users UserFinder) (*models.User, error) {
	token, err := BearerToken(c)
	if err != nil {
		if errors.Is(err, errMissingCredential) {
			return nil, errcode.Wrap(errcode.Unauthorized, err)
		}
		return nil, errcode.Wrap(errcode.TokenInvalid, err)
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != security.TokenAccess {
		return nil, errcode.NewWithMessage(errcode.TokenInvalid, "请使用访问令牌")
	}
	if users == nil {
		return &models.User{ID: claims.UserID, Username: claims.Username, Status: models.UserStatusActive}, nil
	}
	user, err := users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, errcode.New(errcode.UserNotFound)
		}
		return nil, err
	}
	if !user.Active() {
		return nil, errcode.New(errcode.UserDisabled)
	}
	return user, nil
}
