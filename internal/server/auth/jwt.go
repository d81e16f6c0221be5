// Package auth holds the credential primitives of the server: password
// hashing and the signed session token codec.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the standard iat/exp pair plus the subject
// id under "id".
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// TokenCodec issues and verifies HS256 session tokens. It holds no state
// besides its secret, so a token stays valid until it expires.
type TokenCodec struct {
	secret   []byte
	validity time.Duration
}

// NewTokenCodec returns a codec signing with secret and issuing tokens
// that live for validity.
func NewTokenCodec(secret []byte, validity time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, validity: validity}
}

// Validity is the lifetime of issued tokens.
func (c *TokenCodec) Validity() time.Duration {
	return c.validity
}

// Issue signs a token for subjectID issued at now. Claims carry whole
// seconds, so exp is rounded up and the token never expires before
// now+validity.
func (c *TokenCodec) Issue(subjectID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(c.validity))),
		},
		UserID: subjectID,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks tokenString against the secret as of now and returns the
// subject id. Failures are one of common.ErrTokenMalformed,
// ErrTokenSignatureMismatch, ErrTokenExpired or ErrTokenInvalidClaims.
func (c *TokenCodec) Verify(tokenString string, now time.Time) (string, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", c.verifyUntyped(parser, tokenString)
		}
		return "", classify(err)
	}

	if !token.Valid {
		return "", common.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return "", common.ErrTokenInvalidClaims
	}

	return claims.UserID, nil
}

// classify maps golang-jwt validation errors onto our token error kinds.
// Expiry is checked before the generic claims error because the parser
// reports both.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", common.ErrTokenSignatureMismatch, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrTokenInvalidClaims, err)
	}
}

// verifyUntyped handles payloads whose claims have the wrong JSON types. A
// token that still passes signature and expiry checks is reported as
// ErrTokenInvalidClaims.
func (c *TokenCodec) verifyUntyped(parser *jwt.Parser, tokenString string) error {
	_, err := parser.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return classify(err)
	}
	return common.ErrTokenInvalidClaims
}

func ceilSecond(t time.Time) time.Time {
	if s := t.Truncate(time.Second); !s.Equal(t) {
		return s.Add(time.Second)
	}
	return t
}
