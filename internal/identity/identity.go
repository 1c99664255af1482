// Package identity carries the per-request caller identity used for rate
// limiting and authorization.
//
// The transport layer resolves an Identity once per inbound request and
// passes it explicitly; nothing in this package reads global state.
package identity

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Anonymous is the dimension value used when no user or address resolves.
const Anonymous = "anonymous"

const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// Identity describes the caller of a single request.
type Identity struct {
	IP       string
	UserID   int64
	Username string
}

// Authenticated reports whether a user id was attached by an authenticator.
func (id Identity) Authenticated() bool {
	return id.UserID > 0
}

// UserKey returns the user id as a string, or Anonymous.
func (id Identity) UserKey() string {
	if !id.Authenticated() {
		return Anonymous
	}
	return strconv.FormatInt(id.UserID, 10)
}

// IPKey returns the client address, or Anonymous when none resolved.
func (id Identity) IPKey() string {
	if strings.TrimSpace(id.IP) == "" {
		return Anonymous
	}
	return id.IP
}

// WithUser returns a copy of id bound to the authenticated user.
func (id Identity) WithUser(userID int64, username string) Identity {
	id.UserID = userID
	id.Username = username
	return id
}

// FromRequest resolves the client address of r.
func FromRequest(r *http.Request) Identity {
	if r == nil {
		return Identity{}
	}
	return Identity{IP: ClientIP(r)}
}

// ClientIP applies the header precedence X-Forwarded-For > X-Real-IP > peer
// address. Empty and "unknown" values are skipped. It returns "" when nothing
// resolves.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := firstForwarded(r.Header.Get(HeaderForwardedFor)); ip != "" {
		return ip
	}
	if ip := usable(r.Header.Get(HeaderRealIP)); ip != "" {
		return ip
	}
	return peerAddress(r.RemoteAddr)
}

func firstForwarded(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		if ip := usable(part); ip != "" {
			return ip
		}
	}
	return ""
}

func usable(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "unknown") {
		return ""
	}
	return v
}

func peerAddress(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
