package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cantian-ai/bazigate/internal/db"
	"github.com/cantian-ai/bazigate/internal/models"
	"github.com/cantian-ai/bazigate/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.Migrate(conn))
	return NewUserStore(conn)
}

func TestUserStore_CreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, CreateUserParams{Username: " alice ", Password: "secret-1", Nickname: "Alice"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Active())
	assert.True(t, security.CheckPassword(user.Password, "secret-1"))

	byID, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Nickname)

	byName, err := s.FindByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = s.Create(ctx, CreateUserParams{Username: "Alice", Password: "other-pass"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStore_CreateDisabled(t *testing.T) {
	s := newTestStore(t)

	user, err := s.Create(context.Background(), CreateUserParams{Username: "carol", Password: "secret-1", Disabled: true})
	require.NoError(t, err)

	loaded, err := s.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusDisabled, loaded.Status)
	assert.False(t, loaded.Active())
}

func TestUserStore_RecordLoginAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, CreateUserParams{Username: "dave", Password: "secret-1"})
	require.NoError(t, err)

	at := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.RecordLogin(ctx, user.ID, "1.2.3.4", at))

	loaded, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.True(t, at.Equal(*loaded.LastLoginAt))
	assert.Equal(t, "1.2.3.4", loaded.LastLoginIP)

	require.NoError(t, s.SetStatus(ctx, user.ID, models.UserStatusDisabled))
	loaded, err = s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Active())

	assert.Error(t, s.SetStatus(ctx, user.ID, 7))
	assert.ErrorIs(t, s.SetStatus(ctx, 999, models.UserStatusActive), ErrUserNotFound)
	assert.ErrorIs(t, s.RecordLogin(ctx, 999, "", at), ErrUserNotFound)
}

func TestUserStore_CreateRejectsUsedPhone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateUserParams{Username: "alice", Password: "secret-1", Phone: "13800138000"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateUserParams{Username: "bob", Password: "secret-1", Phone: " 13800138000 "})
	assert.ErrorIs(t, err, ErrPhoneTaken)

	_, err = s.Create(ctx, CreateUserParams{Username: "carol", Password: "secret-1"})
	assert.NoError(t, err)
}
