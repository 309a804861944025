package auth

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"postfeed/domain"
)

// ContextKey is where the parsed token lives in the echo context.
const ContextKey = "user"

// Middleware returns the JWT gate for protected routes. Requests matched
// by skipper pass through without a token and resolve to Anonymous in
// FromContext; everything else is rejected with 401 before the handler runs.
func Middleware(signingKey []byte, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: signingKey,
		ContextKey: ContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		Skipper: skipper,
		// missing and malformed tokens collapse into the same
		// unauthenticated outcome as expired ones
		ErrorHandler: func(c echo.Context, err error) error {
			return domain.ErrUnauthenticated
		},
	})
}

// FromContext extracts the verified identity attached by Middleware.
// Fails closed: any missing or unparseable token yields Anonymous.
func FromContext(c echo.Context) Result {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return Anonymous
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Anonymous
	}

	return resultFromClaims(claims)
}
