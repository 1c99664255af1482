package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_CodesAreUniqueAndPartitioned(t *testing.T) {
	modules := map[int]bool{10: true, 20: true, 30: true, 40: true, 50: true, 60: true, 70: true}
	seen := make(map[int]string)
	for _, e := range All() {
		if prev, dup := seen[e.Code]; dup {
			t.Fatalf("code %d used twice (%q and %q)", e.Code, prev, e.Message)
		}
		seen[e.Code] = e.Message
		assert.True(t, e.Code >= 100000 && e.Code <= 999999, "code %d is not six digits", e.Code)
		assert.True(t, modules[e.Module()], "code %d has unknown module %d", e.Code, e.Module())
		assert.NotEmpty(t, e.Message)
	}
}

func TestTable_StableCodes(t *testing.T) {
	assert.Equal(t, 100001, SystemError.Code)
	assert.Equal(t, 100002, ParamError.Code)
	assert.Equal(t, 100007, RateLimitExceeded.Code)
	assert.Equal(t, "请求过于频繁，请稍后再试", RateLimitExceeded.Message)
	assert.Equal(t, 200008, TokenInvalid.Code)
	assert.Equal(t, 200009, TokenExpired.Code)
	assert.Equal(t, 200010, Unauthorized.Code)
	assert.Equal(t, 200011, PermissionDenied.Code)
	assert.Equal(t, 300002, OrderAlreadyPaid.Code)
	assert.Equal(t, 700005, FileDownloadFailed.Code)
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(300002)
	require.True(t, ok)
	assert.Equal(t, OrderAlreadyPaid, e)

	_, ok = Lookup(123456)
	assert.False(t, ok)
}

func TestIsAuth(t *testing.T) {
	for _, code := range []int{200008, 200009, 200010, 200011} {
		assert.True(t, IsAuth(code), "code %d", code)
	}
	for _, code := range []int{200007, 200012, 100007, 300002} {
		assert.False(t, IsAuth(code), "code %d", code)
	}
}

func TestBusinessError_Constructors(t *testing.T) {
	t.Run("from entry", func(t *testing.T) {
		err := New(OrderAlreadyPaid)
		assert.Equal(t, 300002, err.Code())
		assert.Equal(t, "订单已支付", err.Message())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("custom message", func(t *testing.T) {
		err := NewWithMessage(OrderAlreadyPaid, "already paid")
		assert.Equal(t, 300002, err.Code())
		assert.Equal(t, "already paid", err.Message())
	})

	t.Run("explicit pair", func(t *testing.T) {
		err := NewCode(300002, "already paid")
		assert.Equal(t, 300002, err.Code())
		assert.Equal(t, "already paid", err.Message())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(DatabaseError, cause)
		assert.Equal(t, DatabaseError.Code, err.Code())
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestBusinessError_IsAndAs(t *testing.T) {
	wrapped := fmt.Errorf("pay order: %w", NewWithMessage(OrderAlreadyPaid, "already paid"))

	assert.ErrorIs(t, wrapped, New(OrderAlreadyPaid))
	assert.NotErrorIs(t, wrapped, New(OrderExpired))

	be, ok := AsBusiness(wrapped)
	require.True(t, ok)
	assert.Equal(t, "already paid", be.Message())

	_, ok = AsBusiness(errors.New("plain"))
	assert.False(t, ok)
}
