package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cantian-ai/bazigate/internal/app"
	"github.com/cantian-ai/bazigate/internal/config"
	"github.com/cantian-ai/bazigate/internal/store"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		stop()
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the server or runs a one-off command.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bazigate", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	addr := fs.String("addr", "", "listen address, overrides `listen` in config")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	createUser := fs.String("create-user", "", "create a user account with this username and exit")
	password := fs.String("password", "", "password for -create-user")
	nickname := fs.String("nickname", "", "nickname for -create-user")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validateAddr(*addr); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	switch {
	case *migrateOnly:
		if errMigrate := app.Migrate(ctx, appCfg); errMigrate != nil {
			return errMigrate
		}
		log.Info("database migrated")
		return nil
	case strings.TrimSpace(*createUser) != "":
		user, errCreate := app.CreateUser(ctx, appCfg, store.CreateUserParams{
			Username: *createUser,
			Password: *password,
			Nickname: *nickname,
		})
		if errCreate != nil {
			return errCreate
		}
		log.WithFields(log.Fields{"id": user.ID, "username": user.Username}).Info("user created")
		return nil
	}

	return app.RunServer(ctx, appCfg, app.Options{Listen: *addr})
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}
