// Package front registers the public API routes.
package front

import (
	"fmt"

	"github.com/cantian-ai/bazigate/internal/http/api/front/handlers"
	"github.com/cantian-ai/bazigate/internal/http/middleware"
	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/cantian-ai/bazigate/internal/security"
	internalsettings "github.com/cantian-ai/bazigate/internal/settings"
	"github.com/cantian-ai/bazigate/internal/store"
	"github.com/gin-gonic/gin"
)

// Deps carries the collaborators shared by front routes.
type Deps struct {
	Users  *store.UserStore
	Tokens *security.TokenService
	Guard  *ratelimit.Guard
}

// RegisterFrontRoutes registers the public API on r. Every rate-limited
// route must be declared in the guard's route table.
func RegisterFrontRoutes(r gin.IRouter, deps Deps) error {
	if deps.Users == nil || deps.Tokens == nil || deps.Guard == nil {
		return fmt.Errorf("front routes: missing dependencies")
	}
	limit := func(route string) (gin.HandlerFunc, error) {
		h, err := middleware.RateLimit(deps.Guard, route)
		if err != nil {
			return nil, fmt.Errorf("front routes: %w", err)
		}
		return h, nil
	}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens)
	userHandler := handlers.NewUserHandler(deps.Users)
	requireAuth := middleware.Auth(deps.Tokens, deps.Users)

	loginLimit, err := limit(internalsettings.RouteUserLogin)
	if err != nil {
		return err
	}
	registerLimit, err := limit(internalsettings.RouteUserRegister)
	if err != nil {
		return err
	}
	refreshLimit, err := limit(internalsettings.RouteTokenRefresh)
	if err != nil {
		return err
	}

	api := r.Group("/api")
	{
		api.POST("/user/register", registerLimit, userHandler.Register)
		api.POST("/user/login", loginLimit, authHandler.Login)
		api.GET("/user/me", requireAuth, userHandler.Me)

		api.POST("/auth/token/refresh", refreshLimit, authHandler.Refresh)
		api.GET("/auth/token/status", authHandler.TokenStatus)
	}
	return nil
}
