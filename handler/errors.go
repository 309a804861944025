package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"postfeed/domain"
)

// HTTPErrorHandler maps the domain error taxonomy onto HTTP statuses.
// Validation failures carry their field messages; everything unexpected
// is a generic 500 so internals never leak.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := echo.Map{"message": "Internal server error."}

	var ve *domain.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		code = http.StatusUnprocessableEntity
		body = echo.Map{"message": "Your entered data is invalid", "data": ve.Fields}
	case errors.Is(err, domain.ErrUnauthenticated):
		code = http.StatusUnauthorized
		body = echo.Map{"message": "Not authenticated."}
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
		body = echo.Map{"message": "Not authorized"}
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		body = echo.Map{"message": "Could not find post."}
	case errors.Is(err, domain.ErrEmailTaken):
		code = http.StatusConflict
		body = echo.Map{"message": "User exists already"}
	case errors.As(err, &he):
		code = he.Code
		body = echo.Map{"message": fmt.Sprint(he.Message)}
	}

	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if jerr := c.JSON(code, body); jerr != nil {
		c.Logger().Error(jerr)
	}
}
