package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"postfeed/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c echo.Context) error {
	if h.Environment != "dev" && !h.EnableSignup {
		return echo.NewHTTPError(http.StatusForbidden, "Sign up has been disabled.")
	}

	req := signupRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}

	id, err := h.Store.CreateAccount(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created!",
		"userId":  id,
	})
}

func (h *Handler) Login(c echo.Context) error {
	req := loginRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}

	id, err := h.Store.VerifyCredentials(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.Tokens.Issue(id, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":  token,
		"userId": id,
	})
}

func (h *Handler) GetStatus(c echo.Context) error {
	status, err := h.Store.GetStatus(c.Request().Context(), auth.FromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	req := struct {
		Status string `json:"status"`
	}{}
	if err := c.Bind(&req); err != nil {
		return err
	}

	err := h.Store.SetStatus(c.Request().Context(), auth.FromContext(c), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Status updated."})
}
