package main

import (
	"context"
	"path/filepath"
	"testing"
)

func TestValidateAddr(t *testing.T) {
	for _, addr := range []string{"", ":8080", "127.0.0.1:9000", "[::1]:80"} {
		if err := validateAddr(addr); err != nil {
			t.Fatalf("validateAddr(%q): %v", addr, err)
		}
	}
	for _, addr := range []string{"8080", "localhost"} {
		if err := validateAddr(addr); err == nil {
			t.Fatalf("expected error for %q", addr)
		}
	}
}

func TestRun_CreateUserAndMigrate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_CONNECTION", "file:"+filepath.Join(dir, "cli.db"))

	if err := run(context.Background(), []string{"-migrate"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := run(context.Background(), []string{"-create-user", "alice", "-password", "secret-1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := run(context.Background(), []string{"-create-user", "alice", "-password", "secret-1"}); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
}

func TestRun_BadFlags(t *testing.T) {
	if err := run(context.Background(), []string{"-addr", "nope"}); err == nil {
		t.Fatalf("expected invalid address error")
	}
	if err := run(context.Background(), []string{"-unknown"}); err == nil {
		t.Fatalf("expected flag parse error")
	}
}
