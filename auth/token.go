package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of every issued token.
const TokenTTL = time.Hour

// Claims is the JWT payload carried by issued tokens. UserID duplicates
// the registered subject so older clients reading "userId" keep working.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Result is the outcome of token verification: an authenticated account
// id, or the zero value when no identity could be established.
type Result struct {
	AccountID     string
	Email         string
	Authenticated bool
}

// Anonymous is the unauthenticated Result.
var Anonymous = Result{}

// TokenService issues and verifies signed, time-bounded identity tokens.
// The signing key is process-wide configuration, never a literal.
type TokenService struct {
	signingKey []byte
}

func NewTokenService(signingKey []byte) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("auth: no signing key defined")
	}
	return &TokenService{signingKey: signingKey}, nil
}

// Issue signs a token for the given account, valid for TokenTTL.
func (ts *TokenService) Issue(accountID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: accountID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.signingKey)
}

// Verify decodes a raw token and fails closed: a missing token, bad
// signature, unexpected algorithm, or expired timestamp all yield the
// anonymous Result rather than an error.
func (ts *TokenService) Verify(raw string) Result {
	if raw == "" {
		return Anonymous
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})
	if err != nil {
		return Anonymous
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Anonymous
	}

	return resultFromClaims(claims)
}

func resultFromClaims(claims *Claims) Result {
	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return Anonymous
	}
	return Result{AccountID: id, Email: claims.Email, Authenticated: true}
}
