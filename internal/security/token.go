package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum HMAC secret size in bytes.
const MinSecretLength = 32

// Default token lifetimes.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// DefaultRefreshGrace bounds how long after expiry a token may still be
	// refreshed when refresh after expiry is allowed.
	DefaultRefreshGrace = 24 * time.Hour
	// ExpiringSoonThreshold is the remaining lifetime under which a token
	// should be refreshed.
	ExpiringSoonThreshold = time.Hour
)

// TokenType distinguishes access and refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	// ErrToken is wrapped by every token verification failure.
	ErrToken = errors.New("token")
	// ErrTokenInvalid reports a bad signature or a malformed token.
	ErrTokenInvalid = fmt.Errorf("%w invalid", ErrToken)
	// ErrTokenExpired reports a well-formed token past its expiry.
	ErrTokenExpired = fmt.Errorf("%w expired", ErrToken)
)

// Claims is the payload carried by issued tokens.
type Claims struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	Type     TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenOptions configures a TokenService.
type TokenOptions struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// AllowRefreshAfterExpiry lets Refresh accept an expired but otherwise
	// valid token, up to RefreshGrace past its expiry.
	AllowRefreshAfterExpiry bool
	RefreshGrace            time.Duration
	Now                     func() time.Time
}

// TokenService issues and verifies HS256 tokens. It is immutable after
// construction and safe for concurrent use.
type TokenService struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	allowExpired bool
	grace        time.Duration
	nowFn        func() time.Time
	parser       *jwt.Parser
	lenient      *jwt.Parser
}

// NewTokenService validates opts and builds a TokenService.
func NewTokenService(opts TokenOptions) (*TokenService, error) {
	if len(opts.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret too short (min %d bytes)", MinSecretLength)
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.RefreshGrace == 0 {
		opts.RefreshGrace = DefaultRefreshGrace
	}
	if opts.AccessTTL < 0 || opts.RefreshTTL < 0 {
		return nil, fmt.Errorf("jwt token lifetimes must be positive")
	}
	if opts.RefreshGrace < 0 {
		return nil, fmt.Errorf("jwt refresh grace must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TokenService{
		secret:       []byte(opts.Secret),
		accessTTL:    opts.AccessTTL,
		refreshTTL:   opts.RefreshTTL,
		allowExpired: opts.AllowRefreshAfterExpiry,
		grace:        opts.RefreshGrace,
		nowFn:        opts.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(opts.Now),
		),
		lenient: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// TTL returns the lifetime of tokens of the given kind.
func (s *TokenService) TTL(kind TokenType) time.Duration {
	if kind == TokenRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Issue signs a new token for the user.
func (s *TokenService) Issue(userID int64, username string, kind TokenType) (string, error) {
	if kind != TokenAccess && kind != TokenRefresh {
		return "", fmt.Errorf("unknown token type %q", kind)
	}
	if userID <= 0 {
		return "", fmt.Errorf("invalid user id %d", userID)
	}
	now := s.nowFn()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL(kind))),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure and expiry. A token is expired once
// now reaches its exp claim.
func (s *TokenService) Verify(token string) (*Claims, error) {
	return s.parse(s.parser, token)
}

// IsExpiringSoon reports whether the token has less than an hour left.
// Tokens that fail verification report true.
func (s *TokenService) IsExpiringSoon(token string) bool {
	claims, err := s.Verify(token)
	if err != nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(s.nowFn()) < ExpiringSoonThreshold
}

// Refresh issues a new access token for the subject of old.
func (s *TokenService) Refresh(old string) (string, error) {
	claims, err := s.Refreshable(old)
	if err != nil {
		return "", err
	}
	return s.Issue(claims.UserID, claims.Username, TokenAccess)
}

// Refreshable returns the claims of old if it may be exchanged for a new
// access token. Expired tokens pass only when refresh after expiry is
// allowed and the token expired no more than the grace period ago.
func (s *TokenService) Refreshable(old string) (*Claims, error) {
	claims, err := s.Verify(old)
	if err == nil || !s.allowExpired || !errors.Is(err, ErrTokenExpired) {
		return claims, err
	}
	claims, errLenient := s.parse(s.lenient, old)
	if errLenient != nil {
		return nil, errLenient
	}
	if s.nowFn().Sub(claims.ExpiresAt.Time) > s.grace {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) parse(p *jwt.Parser, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	_, err := p.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing claims", ErrTokenInvalid)
	}
	if claims.Type != TokenAccess && claims.Type != TokenRefresh {
		return nil, fmt.Errorf("%w: unknown type %q", ErrTokenInvalid, claims.Type)
	}
	return claims, nil
}
