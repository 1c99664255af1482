package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// dsnInfo is the loggable part of a database DSN. Passwords are never kept.
type dsnInfo struct {
	DatabaseType        string
	DatabaseHost        string
	DatabasePort        int
	DatabaseUser        string
	DatabaseName        string
	DatabaseSSLMode     string
	DatabasePath        string
	DatabasePasswordSet bool
}

func describeDSN(dsn string) (dsnInfo, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return dsnInfo{}, fmt.Errorf("empty dsn")
	}

	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"file:", "sqlite://"} {
		if strings.HasPrefix(lowered, prefix) {
			pathPart := trimmed[len(prefix):]
			pathPart, _, _ = strings.Cut(pathPart, "?")
			return dsnInfo{
				DatabaseType: "sqlite",
				DatabasePath: strings.TrimSpace(pathPart),
			}, nil
		}
	}

	if !strings.HasPrefix(lowered, "postgres://") && !strings.HasPrefix(lowered, "postgresql://") {
		return dsnInfo{}, fmt.Errorf("unsupported dsn scheme")
	}
	pgCfg, errParse := pgconn.ParseConfig(trimmed)
	if errParse != nil {
		return dsnInfo{}, fmt.Errorf("parse dsn: %w", errParse)
	}
	sslMode := "disable"
	if u, errURL := url.Parse(trimmed); errURL == nil {
		if mode := strings.TrimSpace(u.Query().Get("sslmode")); mode != "" {
			sslMode = mode
		}
	}
	return dsnInfo{
		DatabaseType:        "postgres",
		DatabaseHost:        pgCfg.Host,
		DatabasePort:        int(pgCfg.Port),
		DatabaseUser:        pgCfg.User,
		DatabaseName:        pgCfg.Database,
		DatabaseSSLMode:     sslMode,
		DatabasePasswordSet: pgCfg.Password != "",
	}, nil
}
