package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Action tokens back one-shot email links (verification, password
// reset). They are signed under a salted key so a leaked link can never
// be replayed as a bearer token, and the other way around.
const (
	actionSalt    = "email-configuration"
	actionPurpose = "email-action"
)

type ActionClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type ActionCodec struct {
	secret []byte
}

func NewActionCodec(secret string) *ActionCodec {
	return &ActionCodec{
		secret: append([]byte(secret), []byte(actionSalt)...),
	}
}

// Issue signs the email into a token stamped with the issue time. The
// validity window is decided at verification time, not at issuance.
func (c *ActionCodec) Issue(email string) (string, error) {
	const op = "tokens.ActionCodec.Issue"

	claims := ActionClaims{
		Email:   email,
		Purpose: actionPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks signature and age. Malformed and expired tokens are
// deliberately indistinguishable to the caller.
func (c *ActionCodec) Verify(raw string, maxAge time.Duration) (string, error) {
	const op = "tokens.ActionCodec.Verify"

	token, err := jwt.ParseWithClaims(raw, &ActionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: unexpected signing method", op)
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*ActionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Purpose != actionPurpose || claims.Email == "" || claims.IssuedAt == nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if time.Since(claims.IssuedAt.Time) > maxAge {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims.Email, nil
}
