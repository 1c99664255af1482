package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cantian-ai/bazigate/internal/config"
	"github.com/cantian-ai/bazigate/internal/db"
	"github.com/cantian-ai/bazigate/internal/errcode"
	"github.com/cantian-ai/bazigate/internal/http/api/front"
	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/cantian-ai/bazigate/internal/http/middleware"
	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/cantian-ai/bazigate/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Options overrides config file values from the command line.
type Options struct {
	Listen string
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conf, err := config.Load(config.ResolveConfigPath(cfg.ConfigPath))
	if err != nil {
		return err
	}
	conn, err := db.Open(conf.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	return db.Migrate(conn.WithContext(ctx))
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, opts Options) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen := strings.TrimSpace(opts.Listen); listen != "" {
		conf.Listen = listen
	}
	if errLog := ConfigureLogging(conf.LogLevel, conf.LogJSON); errLog != nil {
		return errLog
	}

	conn, err := db.Open(conf.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	logDatabase(conf.DatabaseDSN)

	hasUsers, errUsers := HasUsers(conn)
	if errUsers != nil {
		return errUsers
	}
	if !hasUsers {
		log.Warn("no user accounts yet, create one with -create-user")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, err := NewEngine(ctx, conf, conn)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              conf.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", conf.Listen).Info("api server listening")
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown api server: %w", errShutdown)
	}
	log.Info("api server stopped")
	return nil
}

// NewEngine wires the limiter, token service and account store into a gin
// engine. The limiter janitor runs until ctx is cancelled.
func NewEngine(ctx context.Context, conf *config.Config, conn *gorm.DB) (*gin.Engine, error) {
	limiter := ratelimit.NewMemoryLimiter(conf.RateLimit.MemoryOptions())
	limiter.Start(ctx)

	guard, err := ratelimit.NewGuard(limiter, conf.RateLimits, nil)
	if err != nil {
		return nil, err
	}
	tokens, err := security.NewTokenService(conf.JWT.TokenOptions())
	if err != nil {
		return nil, err
	}
	for _, rule := range guard.Rules() {
		log.WithFields(log.Fields{
			"route":     rule.Route,
			"dimension": rule.Dimension,
			"max":       rule.MaxCount,
			"window":    rule.WindowSeconds,
		}).Debug("rate limit rule")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.Recovery(), middleware.Identity(), middleware.AccessLog())
	engine.NoRoute(func(c *gin.Context) {
		envelope.FailStatus(c, http.StatusNotFound, errcode.NewWithMessage(errcode.ParamError, "接口不存在"))
	})
	engine.NoMethod(func(c *gin.Context) {
		envelope.FailStatus(c, http.StatusMethodNotAllowed, errcode.New(errcode.RequestMethodError))
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if errRoutes := front.RegisterFrontRoutes(engine, front.Deps{
		Users:  store.NewUserStore(conn),
		Tokens: tokens,
		Guard:  guard,
	}); errRoutes != nil {
		return nil, errRoutes
	}
	return engine, nil
}

// ConfigureLogging applies the level and formatter to the standard logger.
func ConfigureLogging(level string, jsonFormat bool) error {
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)
	if jsonFormat {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
		return nil
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	return nil
}

func logDatabase(dsn string) {
	info, err := describeDSN(dsn)
	if err != nil {
		log.WithError(err).Debug("database dsn not described")
		return
	}
	log.WithFields(log.Fields{
		"type": info.DatabaseType,
		"host": info.DatabaseHost,
		"name": info.DatabaseName,
		"path": info.DatabasePath,
	}).Info("database ready")
}
