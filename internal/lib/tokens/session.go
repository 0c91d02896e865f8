package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every way a token can fail verification:
// bad signature, malformed payload, expiry. Callers do not get to
// distinguish between them.
var ErrInvalidToken = errors.New("invalid token")

type UserClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionClaims is the payload of access and refresh tokens. Both are
// structurally identical, only the Refresh flag and the validity window
// differ.
type SessionClaims struct {
	User    UserClaims `json:"user"`
	Refresh bool       `json:"refresh"`
	jwt.RegisteredClaims
}

type SessionCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionCodec(secret string, accessTTL, refreshTTL time.Duration) *SessionCodec {
	return &SessionCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue signs a session token with the codec's default TTL for the
// requested kind.
func (c *SessionCodec) Issue(user UserClaims, refresh bool) (string, error) {
	ttl := c.accessTTL
	if refresh {
		ttl = c.refreshTTL
	}

	return c.IssueWithTTL(user, refresh, ttl)
}

// IssueWithTTL signs a session token with an explicit validity window.
// Every token gets a fresh jti so it can be revoked individually.
func (c *SessionCodec) IssueWithTTL(user UserClaims, refresh bool, ttl time.Duration) (string, error) {
	const op = "tokens.SessionCodec.IssueWithTTL"

	now := time.Now()

	claims := SessionClaims{
		User:    user,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse verifies signature and expiry and returns the claims. Any
// failure comes back as ErrInvalidToken.
func (c *SessionCodec) Parse(raw string) (*SessionClaims, error) {
	const op = "tokens.SessionCodec.Parse"

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: unexpected signing method", op)
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}
