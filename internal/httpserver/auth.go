package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akozhevin/accounts-api/internal/cookie"
	"github.com/akozhevin/accounts-api/internal/logging"
	"github.com/akozhevin/accounts-api/internal/repo"
	"github.com/akozhevin/accounts-api/internal/service"
	"github.com/akozhevin/accounts-api/internal/token"
	"github.com/akozhevin/accounts-api/internal/transport"
)

type AuthHTTP struct {
	Svc    *service.AuthService
	Issuer *token.Issuer
	Cookie *cookie.Baker
}

func (h *AuthHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_sign_up")

	var req transport.SignUpRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("sign-up rejected", "reason", "email already exists")
			return echo.NewHTTPError(http.StatusConflict, "email already exists")
		}
		return err
	}

	signed, err := h.Issuer.Issue(user)
	if err != nil {
		l.Error("token signing failed", "error", err)
		return err
	}
	h.Cookie.Set(c, signed)

	return c.JSON(http.StatusCreated, transport.AuthResponse{
		Message: "user registered",
		User:    user,
	})
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_sign_in")

	var req transport.SignInRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Svc.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		// unknown email and wrong password are indistinguishable outward
		if errors.Is(err, repo.ErrUserNotFound) || errors.Is(err, service.ErrInvalidPassword) {
			l.Warn("sign-in rejected")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	signed, err := h.Issuer.Issue(user)
	if err != nil {
		l.Error("token signing failed", "error", err)
		return err
	}
	h.Cookie.Set(c, signed)

	return c.JSON(http.StatusOK, transport.AuthResponse{
		Message: "signed in",
		User:    user,
	})
}

func (h *AuthHTTP) SignOut(c echo.Context) error {
	h.Cookie.Clear(c)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "signed out"})
}
